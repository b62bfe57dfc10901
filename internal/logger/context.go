package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	shopKey      ctxKey = "shop"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithShop tags every log line of the request with the tenant shop domain.
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopKey, shop)
}

func ShopFrom(ctx context.Context) string {
	if v, ok := ctx.Value(shopKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns logger with request_id and shop automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if shop := ShopFrom(ctx); shop != "" {
		l = l.With(zap.String("shop", shop))
	}
	return l
}
