package limits

import "context"

// Semaphore bounds concurrent calls to one external dependency so that a
// single slow upstream cannot exhaust the whole process.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with n slots. If n <= 0, defaults to 4.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = 4
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (s *Semaphore) Release() {
	<-s.slots
}

// Cap returns the semaphore capacity.
func (s *Semaphore) Cap() int { return cap(s.slots) }
