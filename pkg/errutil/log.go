// Package errutil bridges oops errors to slog and to tests.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and the
// attached context are logged as separate attributes.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.LogAttrs(ctx, slog.LevelError, msg, Attrs(err)...)
}

// LogWarn is LogError at warn level, for failures caused by the caller.
func LogWarn(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.LogAttrs(ctx, slog.LevelWarn, msg, Attrs(err)...)
}

// Attrs extracts loggable attributes from err.
func Attrs(err error) []slog.Attr {
	attrs := []slog.Attr{slog.String("error", err.Error())}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return attrs
	}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, slog.Any("code", code))
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, slog.Any("context", ctx))
	}
	return attrs
}
