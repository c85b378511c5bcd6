package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiter_FirstRequestImmediate(t *testing.T) {
	l := NewHostLimiter(1, 1)

	start := time.Now()
	if err := l.WaitURL(context.Background(), "https://a.example.com/jobs"); err != nil {
		t.Fatalf("WaitURL: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request should not wait, took %v", elapsed)
	}
}

func TestHostLimiter_HostsAreIndependent(t *testing.T) {
	// 1 req/s with burst 1: a second request to the SAME host would
	// block ~1s, but a different host has its own bucket.
	l := NewHostLimiter(1, 1)
	ctx := context.Background()

	if err := l.WaitURL(ctx, "https://a.example.com/jobs"); err != nil {
		t.Fatalf("WaitURL a: %v", err)
	}

	start := time.Now()
	if err := l.WaitURL(ctx, "https://b.example.com/jobs"); err != nil {
		t.Fatalf("WaitURL b: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("different host blocked for %v", elapsed)
	}
}

func TestHostLimiter_SameHostThrottled(t *testing.T) {
	l := NewHostLimiter(20, 1) // 50ms between requests
	ctx := context.Background()

	if err := l.WaitURL(ctx, "https://a.example.com/1"); err != nil {
		t.Fatalf("WaitURL: %v", err)
	}
	start := time.Now()
	if err := l.WaitURL(ctx, "https://a.example.com/2"); err != nil {
		t.Fatalf("WaitURL: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("second request to same host returned after %v, want a delay", elapsed)
	}
}

func TestHostLimiter_CancelledContext(t *testing.T) {
	l := NewHostLimiter(0.001, 1) // effectively frozen after the first token
	ctx := context.Background()

	if err := l.WaitURL(ctx, "https://a.example.com/1"); err != nil {
		t.Fatalf("WaitURL: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.WaitURL(cancelled, "https://a.example.com/2"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestHostLimiter_UnparseableURLStillLimited(t *testing.T) {
	l := NewHostLimiter(1, 1)
	if err := l.WaitURL(context.Background(), "::::not-a-url"); err != nil {
		t.Errorf("WaitURL on junk url: %v", err)
	}
}
