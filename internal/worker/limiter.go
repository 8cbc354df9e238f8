package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to external endpoints: the chain RPC and the
// instance metadata service. One token bucket per endpoint host, so the
// metadata path variants on the same host share a budget while the RPC
// endpoint is limited independently.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewLimiter creates a limiter granting requestsPerSecond with the given
// burst to each endpoint host.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

// Wait blocks until the endpoint's bucket grants a slot or the context
// is cancelled.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	bucket, err := l.bucket(endpoint)
	if err != nil {
		return err
	}
	return bucket.Wait(ctx)
}

// bucket returns the token bucket for the endpoint's host, creating it
// on first use.
func (l *Limiter) bucket(endpoint string) (*rate.Limiter, error) {
	host, err := endpointHost(endpoint)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, ok := l.buckets[host]; ok {
		return bucket, nil
	}

	bucket := rate.NewLimiter(l.rps, l.burst)
	l.buckets[host] = bucket
	return bucket, nil
}

// endpointHost keys an endpoint by its host so path variants share one
// bucket. Hostless strings key as themselves.
func endpointHost(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if parsed.Host == "" {
		return endpoint, nil
	}
	return parsed.Host, nil
}
