// Package engine provides the lifecycle plumbing shared by the long-running
// components of the coordinator.
package engine

import (
	"context"
	"sync"
	"time"
)

// Unit handles synchronization management, startup, and shutdown for engines.
type Unit struct {
	admitLock sync.Mutex // synchronizes shutdown with work admittance

	wg     sync.WaitGroup // tracks in-progress functions
	ctx    context.Context
	cancel context.CancelFunc
}

// NewUnit returns a new unit.
func NewUnit() *Unit {
	ctx, cancel := context.WithCancel(context.Background())
	return &Unit{
		ctx:    ctx,
		cancel: cancel,
	}
}

// admit tracks the function as in-progress, unless the unit has already shut
// down, in which case it is not admitted.
func (u *Unit) admit() bool {
	u.admitLock.Lock()
	defer u.admitLock.Unlock()

	select {
	case <-u.ctx.Done():
		return false
	default:
	}

	u.wg.Add(1)
	return true
}

// stopAdmitting stops admittance of new work, so shutdown can wait on a
// stable set of in-progress functions.
func (u *Unit) stopAdmitting() {
	u.admitLock.Lock()
	defer u.admitLock.Unlock()
	u.cancel()
}

// Do synchronously executes the input function f, unless the unit has shut
// down, in which case it is a no-op.
func (u *Unit) Do(f func() error) error {
	if !u.admit() {
		return nil
	}
	defer u.wg.Done()
	return f()
}

// Launch asynchronously executes the input function, unless the unit has
// shut down.
func (u *Unit) Launch(f func()) {
	if !u.admit() {
		return
	}
	go func() {
		defer u.wg.Done()
		f()
	}()
}

// LaunchPeriodically asynchronously executes the input function on an
// interval, starting after the given delay, until the unit shuts down. The
// function is never run concurrently with itself: a tick during a running
// invocation is delivered after it returns.
func (u *Unit) LaunchPeriodically(f func(), interval time.Duration, delay time.Duration) {
	u.Launch(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		select {
		case <-u.ctx.Done():
			return
		case <-time.After(delay):
		}

		for {
			select {
			case <-u.ctx.Done():
				return
			default:
			}

			select {
			case <-u.ctx.Done():
				return
			case <-ticker.C:
				f()
			}
		}
	})
}

// Ready returns a channel that is closed when the unit is ready, after all
// the given startup checks have run.
func (u *Unit) Ready(checks ...func()) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		for _, check := range checks {
			check()
		}
		close(ready)
	}()
	return ready
}

// Ctx returns a context that is cancelled on shutdown, for use in blocking
// operations run with Launch or Do.
func (u *Unit) Ctx() context.Context {
	return u.ctx
}

// Quit returns a channel that is closed when the unit begins to shut down.
func (u *Unit) Quit() <-chan struct{} {
	return u.ctx.Done()
}

// Done returns a channel that is closed when shutdown has completed: new
// work is refused, the given teardown actions have run, and all in-progress
// functions have returned.
func (u *Unit) Done(actions ...func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		u.stopAdmitting()

		var wg sync.WaitGroup
		for _, action := range actions {
			wg.Add(1)
			go func(action func()) {
				defer wg.Done()
				action()
			}(action)
		}
		wg.Wait()

		u.wg.Wait()
		close(done)
	}()
	return done
}
