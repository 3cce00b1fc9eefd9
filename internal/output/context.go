package output

import "context"

// ctxKey namespaces the printing options carried on a command context.
type ctxKey int

const (
	formatKey ctxKey = iota
	queryKey
	limitKey
	quietKey
)

func value[T any](ctx context.Context, key ctxKey) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// WithFormat attaches the output format.
func WithFormat(ctx context.Context, format Format) context.Context {
	return context.WithValue(ctx, formatKey, format)
}

// FormatFromContext returns the attached format, FormatJSON when unset.
func FormatFromContext(ctx context.Context) Format {
	if f := value[Format](ctx, formatKey); f != "" {
		return f
	}
	return FormatJSON
}

// WithQuery attaches a jq expression applied to JSON output.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey, query)
}

func QueryFromContext(ctx context.Context) string {
	return value[string](ctx, queryKey)
}

// WithLimit caps how many top-level bookmarks (or list entries) are printed.
// Zero means no cap.
func WithLimit(ctx context.Context, limit int) context.Context {
	return context.WithValue(ctx, limitKey, limit)
}

func LimitFromContext(ctx context.Context) int {
	return value[int](ctx, limitKey)
}

// WithQuiet suppresses informational output.
func WithQuiet(ctx context.Context, quiet bool) context.Context {
	return context.WithValue(ctx, quietKey, quiet)
}

func QuietFromContext(ctx context.Context) bool {
	return value[bool](ctx, quietKey)
}
