package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit       = 60
	DefaultWindow      = time.Minute
	DefaultMinInterval = time.Second
)

// Limiter guards calls to the language-model endpoint with a per-window cap and a minimum
// spacing between accepted calls. The window is reset lazily on each attempt.
type Limiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	minInterval time.Duration
	now         func() time.Time

	count       int
	windowStart time.Time
	lastCall    time.Time
}

type Option func(*Limiter)

func WithLimit(limit int) Option {
	return func(l *Limiter) {
		l.limit = limit
	}
}

func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		l.window = window
	}
}

func WithMinInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		l.minInterval = interval
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// ------------------------------------------------------------------------------------------------------
func New(opts ...Option) *Limiter {
	l := &Limiter{
		limit:       DefaultLimit,
		window:      DefaultWindow,
		minInterval: DefaultMinInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// ------------------------------------------------------------------------------------------------------
// TryAcquire reports whether a call may proceed. An accepted call is counted before the lock
// is released.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if now.Sub(l.windowStart) > l.window {
		l.count = 0
		l.windowStart = now
	}

	if l.count >= l.limit {
		return false
	}

	if !l.lastCall.IsZero() && now.Sub(l.lastCall) < l.minInterval {
		return false
	}

	l.count++
	l.lastCall = now
	return true
}

// ------------------------------------------------------------------------------------------------------
// Count returns the number of calls accepted in the current window.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
