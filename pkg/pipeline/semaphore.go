package pipeline

import "context"

// semaphore bounds the number of in-flight validator and rule executions.
// A nil semaphore is unbounded; acquire and release are no-ops on it.
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(limit int) *semaphore {
	if limit <= 0 {
		return nil
	}
	return &semaphore{slots: make(chan struct{}, limit)}
}

func (s *semaphore) acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	if s == nil {
		return
	}
	<-s.slots
}
