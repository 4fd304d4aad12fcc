package context

import (
	"context"
	"testing"
)

func TestContextValuesRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	ctx = WithUserID(ctx, "user-9")
	ctx = WithPlatform(ctx, "doppus")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := UserIDFromContext(ctx); got != "user-9" {
		t.Fatalf("expected user-9, got %q", got)
	}
	if got := PlatformFromContext(ctx); got != "doppus" {
		t.Fatalf("expected doppus, got %q", got)
	}
}

func TestBlankValuesAreNotStored(t *testing.T) {
	ctx := WithUserID(context.Background(), "  ")
	if got := UserIDFromContext(ctx); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty request id for nil context, got %q", got)
	}
}
