package handlers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agrimitra/agrimitra/internal/limits"
)

type slowHandler struct {
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32
}

func (h *slowHandler) Name() string        { return "slow" }
func (h *slowHandler) Description() string { return "test handler" }

func (h *slowHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	cur := h.active.Add(1)
	defer h.active.Add(-1)
	for {
		p := h.peak.Load()
		if cur <= p || h.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	select {
	case <-time.After(h.delay):
		return "ok", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestLimitedBoundsConcurrency(t *testing.T) {
	inner := &slowHandler{delay: 20 * time.Millisecond}
	h := Limited(inner, limits.NewSemaphore(2), 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Invoke(context.Background(), "q", ""); err != nil {
				t.Errorf("Invoke failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak := inner.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestLimitedTimeout(t *testing.T) {
	inner := &slowHandler{delay: time.Second}
	h := Limited(inner, limits.NewSemaphore(1), 10*time.Millisecond)

	_, err := h.Invoke(context.Background(), "q", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLimitedPreservesIdentity(t *testing.T) {
	inner := &slowHandler{}
	h := Limited(inner, nil, 0)
	if h.Name() != "slow" || h.Description() != "test handler" {
		t.Error("wrapper must pass through name and description")
	}
}
