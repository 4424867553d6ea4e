package slogx

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/dentaldesk/pkg/idx"
)

type ctxKey struct{}

type reqIDKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithRequestID records the request id in ctx and tags the contextual logger.
func WithRequestID(ctx context.Context, reqID idx.ID) context.Context {
	ctx = context.WithValue(ctx, reqIDKey{}, reqID)
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID.String()))
}

// RequestID returns the request id stored by WithRequestID.
func RequestID(ctx context.Context) (idx.ID, bool) {
	id, ok := ctx.Value(reqIDKey{}).(idx.ID)
	return id, ok
}
