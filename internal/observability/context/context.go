package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type userIDKey struct{}
type platformKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithUserID stores the integration owner acting on this request.
func WithUserID(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userIDKey{}).(string)
	return value
}

func WithPlatform(ctx context.Context, platformID string) context.Context {
	platformID = strings.TrimSpace(platformID)
	if platformID == "" {
		return ctx
	}
	return context.WithValue(ctx, platformKey{}, platformID)
}

func PlatformFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(platformKey{}).(string)
	return value
}
