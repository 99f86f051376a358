// Package lifecycle owns delayed callbacks so they can be cancelled together when the
// component that scheduled them goes away.
package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

// Timer is a handle to one scheduled callback.
type Timer struct {
	state atomic.Int32
	stop  chan struct{}
}

// Stop prevents the callback from running. It reports whether the call stopped the
// timer; false means the callback already started or the timer was stopped before.
func (t *Timer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	close(t.stop)
	return true
}

// Scope runs delayed callbacks as children of one cancellable context.
// Close cancels every pending child and waits for running ones to return.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu      sync.Mutex
	closed  bool
	pending atomic.Int64
}

// NewScope creates a scope whose children are cancelled when parent is done or when
// Close is called.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// AfterFunc runs fn after delay unless the timer is stopped or the scope is closed
// first. On a closed scope it returns an already stopped timer.
func (s *Scope) AfterFunc(delay time.Duration, fn func(ctx context.Context) error) *Timer {
	t := &Timer{stop: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		t.Stop()
		return t
	}

	s.pending.Add(1)
	s.group.Go(func() error {
		defer s.pending.Add(-1)

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			t.state.CompareAndSwap(timerPending, timerStopped)
			return nil
		case <-t.stop:
			return nil
		case <-timer.C:
		}

		if s.ctx.Err() != nil || !t.state.CompareAndSwap(timerPending, timerFired) {
			return nil
		}
		return fn(s.ctx)
	})
	return t
}

// Pending returns how many callbacks are scheduled or running.
func (s *Scope) Pending() int {
	return int(s.pending.Load())
}

// Close cancels every child and waits for them. It returns the first callback error.
// Calling Close more than once is safe.
func (s *Scope) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.group.Wait()
}
