package cmd

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type (
	errorFormatKey struct{}
	ioKey          struct{}
	loggerKey      struct{}
)

type ioState struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// WithErrorFormat stores the error format in the context.
func WithErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

// ErrorFormatFromContext retrieves the error format from context.
func ErrorFormatFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(errorFormatKey{}).(string); ok {
		return v
	}
	return ""
}

func withIO(ctx context.Context, in io.Reader, out, err io.Writer) context.Context {
	return context.WithValue(ctx, ioKey{}, ioState{in: in, out: out, err: err})
}

func ioFromContext(ctx context.Context) ioState {
	if ctx != nil {
		if v, ok := ctx.Value(ioKey{}).(ioState); ok {
			return v
		}
	}
	return ioState{}
}

func stdinFromContext(ctx context.Context) io.Reader {
	if in := ioFromContext(ctx).in; in != nil {
		return in
	}
	return os.Stdin
}

func stdoutFromContext(ctx context.Context) io.Writer {
	if out := ioFromContext(ctx).out; out != nil {
		return out
	}
	return os.Stdout
}

func stderrFromContext(ctx context.Context) io.Writer {
	if errW := ioFromContext(ctx).err; errW != nil {
		return errW
	}
	return os.Stderr
}

func withLogger(ctx context.Context, log *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// loggerFromContext returns the command logger, or a warn-level stderr
// logger when none was installed.
func loggerFromContext(ctx context.Context) *logrus.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey{}).(*logrus.Logger); ok && log != nil {
			return log
		}
	}
	return newLogger(stderrFromContext(ctx), false)
}
