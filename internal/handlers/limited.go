package handlers

import (
	"context"
	"time"

	"github.com/agrimitra/agrimitra/internal/limits"
)

// LimitedHandler wraps a Handler with a bounded-concurrency semaphore and a
// per-call timeout, so one slow upstream cannot exhaust capacity or hang a
// request.
type LimitedHandler struct {
	inner   Handler
	sem     *limits.Semaphore
	timeout time.Duration
}

// Limited wraps h. A zero timeout disables the per-call deadline.
func Limited(h Handler, sem *limits.Semaphore, timeout time.Duration) *LimitedHandler {
	if sem == nil {
		sem = limits.NewSemaphore(0)
	}
	return &LimitedHandler{inner: h, sem: sem, timeout: timeout}
}

func (l *LimitedHandler) Name() string        { return l.inner.Name() }
func (l *LimitedHandler) Description() string { return l.inner.Description() }

func (l *LimitedHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	if err := l.sem.Acquire(ctx); err != nil {
		return "", err
	}
	defer l.sem.Release()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.inner.Invoke(ctx, query, convContext)
}
