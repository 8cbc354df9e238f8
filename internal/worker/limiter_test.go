package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_BurstFloor(t *testing.T) {
	if l := NewLimiter(10, 3); l.burst != 3 {
		t.Errorf("expected burst 3, got %d", l.burst)
	}
	if l := NewLimiter(10, 0); l.burst != 5 {
		t.Errorf("expected default burst 5 for zero input, got %d", l.burst)
	}
	if l := NewLimiter(10, -1); l.burst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.burst)
	}
}

func TestLimiter_IndependentEndpoints(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://flare-api.flare.network/ext/C/rpc"); err != nil {
		t.Errorf("rpc wait failed: %v", err)
	}
	// The metadata service is a different host, so its bucket is fresh.
	if err := limiter.Wait(ctx, "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/identity"); err != nil {
		t.Errorf("metadata wait failed: %v", err)
	}
}

func TestLimiter_PathVariantsShareBucket(t *testing.T) {
	limiter := NewLimiter(1, 1)

	variants := []string{
		"http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/identity",
		"http://metadata.google.internal/computeMetadata/v1/instance/confidential-vm/token",
	}

	ctx := context.Background()
	if err := limiter.Wait(ctx, variants[0]); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	// The burst token is spent; the second variant must wait on the same
	// bucket and therefore time out under a short deadline.
	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(shortCtx, variants[1]); err == nil {
		t.Error("expected second variant to be throttled by the shared bucket")
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	ctx := context.Background()
	endpoint := "https://flare-api.flare.network/ext/C/rpc"

	if err := limiter.Wait(ctx, endpoint); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := limiter.Wait(cancelCtx, endpoint); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestEndpointHost(t *testing.T) {
	host, err := endpointHost("https://flare-api.flare.network/ext/C/rpc")
	if err != nil {
		t.Fatalf("endpointHost failed: %v", err)
	}
	if host != "flare-api.flare.network" {
		t.Errorf("expected flare-api.flare.network, got %s", host)
	}

	// Hostless endpoints key as themselves.
	host, err = endpointHost("local-signer")
	if err != nil {
		t.Fatalf("endpointHost failed: %v", err)
	}
	if host != "local-signer" {
		t.Errorf("expected local-signer, got %s", host)
	}

	if _, err := endpointHost("http://bad host/"); err == nil {
		t.Error("expected error for invalid endpoint")
	}
}
