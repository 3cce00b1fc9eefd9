package toc

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// Extract reads the table of contents of src with the named backend and
// returns it as a bookmark forest. Panics raised by the backend are
// returned as InternalError.
func Extract(ctx context.Context, reg *Registry, backend string, src Source) (nodes []*outline.Node, err error) {
	reader, err := reg.Lookup(backend)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			nodes = nil
			err = InternalError{
				Message: fmt.Sprintf("unexpected failure in %s reader: %v", reader.Name(), rec),
				Trace:   string(debug.Stack()),
			}
		}
	}()

	var records []outline.Record
	switch src.Kind {
	case SourcePath:
		records, err = reader.ReadFile(ctx, src.Path)
	default:
		records, err = reader.ReadBytes(ctx, src.Data)
	}
	if err != nil {
		return nil, err
	}

	return outline.Build(records), nil
}

// Run resolves arg, extracts its bookmarks, and converts the outcome into a
// Result. It never returns a nil Result.
func Run(ctx context.Context, reg *Registry, backend, arg string, stdin io.Reader) *Result {
	src, err := ParseSource(arg, stdin)
	if err != nil {
		return Failure(err, nil)
	}

	return RunSource(ctx, reg, backend, src)
}

// RunSource extracts the bookmarks of an already resolved src.
func RunSource(ctx context.Context, reg *Registry, backend string, src Source) *Result {
	nodes, err := Extract(ctx, reg, backend, src)
	if err != nil {
		return Failure(err, map[string]interface{}{
			"source":  string(src.Kind),
			"backend": backendName(reg, backend),
		})
	}
	return Success(nodes)
}

func backendName(reg *Registry, backend string) string {
	if reader, err := reg.Lookup(backend); err == nil {
		return reader.Name()
	}
	return backend
}
