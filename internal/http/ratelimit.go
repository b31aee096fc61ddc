package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// writeLimiter caps form submissions per client IP using a fixed
// window: the first request opens a window, every request inside it
// counts against the limit, and the first request after it opens a
// fresh one. Limit and window come from configuration.
type writeLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*ipWindow

	stopSweep chan struct{}
	sweepDone chan struct{}
	stopOnce  sync.Once
}

type ipWindow struct {
	openedAt time.Time
	count    int
}

func newWriteLimiter(limit int, window time.Duration) *writeLimiter {
	l := &writeLimiter{
		limit:     limit,
		window:    window,
		windows:   make(map[string]*ipWindow),
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	go l.sweep()
	return l
}

// allow counts one request against the client's current window.
func (l *writeLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[clientIP]
	if !ok || now.Sub(w.openedAt) >= l.window {
		l.windows[clientIP] = &ipWindow{openedAt: now, count: 1}
		return true
	}

	w.count++
	if w.count > l.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// sweep drops windows that closed long ago so idle clients do not
// accumulate in the map.
func (l *writeLimiter) sweep() {
	defer close(l.sweepDone)

	ticker := time.NewTicker(l.window * 5)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * l.window)
			l.mu.Lock()
			for ip, w := range l.windows {
				if w.openedAt.Before(cutoff) {
					delete(l.windows, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stopSweep:
			return
		}
	}
}

// stop shuts down the sweep goroutine. Safe to call more than once.
func (l *writeLimiter) stop() {
	l.stopOnce.Do(func() {
		close(l.stopSweep)
		<-l.sweepDone
	})
}
