package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiter_BurstThenThrottle(t *testing.T) {
	hl := NewHostLimiter(1000, 2)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := hl.Wait(ctx, "https://www.km77.com/coches"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst requests should not block, took %v", elapsed)
	}
}

func TestHostLimiter_SeparateHosts(t *testing.T) {
	hl := NewHostLimiter(1000, 1)
	ctx := context.Background()

	if err := hl.Wait(ctx, "https://www.km77.com/a"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// A different host has its own bucket and is not throttled by the first.
	start := time.Now()
	if err := hl.Wait(ctx, "https://mirror.example.com/a"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("second host should not be throttled, took %v", elapsed)
	}
}

func TestHostLimiter_InvalidURLProceeds(t *testing.T) {
	hl := NewHostLimiter(1, 1)
	if err := hl.Wait(context.Background(), "::not a url::"); err != nil {
		t.Errorf("invalid URL should proceed, got %v", err)
	}
}

func TestHostLimiter_CancelledContext(t *testing.T) {
	hl := NewHostLimiter(0.001, 1)
	ctx := context.Background()
	_ = hl.Wait(ctx, "https://www.km77.com/a") // drain the bucket

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := hl.Wait(cancelled, "https://www.km77.com/b"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
