package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source used by the poll loop and the offline orbital
// source. Sleep must return early with ctx.Err() when ctx is cancelled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Real returns a Clock backed by wall-clock time.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TimeController is a manually driven Clock for deterministic runs and
// tests; the binary always uses Real. Sleep advances the controller's time
// instantly instead of blocking, and listeners added with AddListener see
// every advance, so a test can cancel or inspect the poll loop at a chosen
// simulated instant.
type TimeController struct {
	mu          sync.RWMutex
	currentTime time.Time
	listeners   []func(time.Time)
}

// NewTimeController constructs a controller starting at start.
func NewTimeController(start time.Time) *TimeController {
	return &TimeController{currentTime: start}
}

// Now returns the controller's current time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime jumps to t without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// Advance moves time forward by d and notifies listeners.
func (tc *TimeController) Advance(d time.Duration) {
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(d)
	now := tc.currentTime
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now)
	}
}

// Sleep advances time by d unless ctx is already done.
func (tc *TimeController) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tc.Advance(d)
	return nil
}

// AddListener registers a callback invoked after every Advance.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}
