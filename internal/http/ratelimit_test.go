package http

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWriteLimiterCountsPerWindow(t *testing.T) {
	l := newWriteLimiter(2, time.Minute)
	defer l.stop()
	m := &securityMetrics{}

	if !l.allow("10.0.0.1", m) || !l.allow("10.0.0.1", m) {
		t.Fatalf("requests within the limit must pass")
	}
	if l.allow("10.0.0.1", m) {
		t.Fatalf("request over the limit must be denied")
	}
	if hits := atomic.LoadInt64(&m.rateLimitHits); hits != 1 {
		t.Fatalf("rateLimitHits = %d", hits)
	}

	// Clients count independently.
	if !l.allow("10.0.0.2", m) {
		t.Fatalf("other client must not share the window")
	}
}

func TestWriteLimiterWindowReopens(t *testing.T) {
	l := newWriteLimiter(1, 20*time.Millisecond)
	defer l.stop()

	if !l.allow("10.0.0.1", nil) {
		t.Fatalf("first request must pass")
	}
	if l.allow("10.0.0.1", nil) {
		t.Fatalf("second request in the window must be denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.allow("10.0.0.1", nil) {
		t.Fatalf("request after the window must open a fresh one")
	}
}

func TestWriteLimiterStopIdempotent(t *testing.T) {
	l := newWriteLimiter(1, time.Minute)
	l.stop()
	l.stop()
}
