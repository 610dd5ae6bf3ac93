package loop

import (
	"sync"
	"sync/atomic"
)

// Lifecycle owns the liveness flag of one loop run. Stop clears the flag and
// wakes any wait; it never interrupts a detector call already in flight.
type Lifecycle struct {
	alive    atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once
}

// NewLifecycle returns a live lifecycle
func NewLifecycle() *Lifecycle {
	lc := &Lifecycle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	lc.alive.Store(true)
	return lc
}

// Alive reports whether the loop may schedule another cycle
func (lc *Lifecycle) Alive() bool {
	return lc.alive.Load()
}

// Stop clears the liveness flag. Safe to call more than once.
func (lc *Lifecycle) Stop() {
	lc.stopOnce.Do(func() {
		lc.alive.Store(false)
		close(lc.stop)
	})
}

// Stopping is closed once Stop has been called
func (lc *Lifecycle) Stopping() <-chan struct{} {
	return lc.stop
}

// Done is closed when the loop has exited
func (lc *Lifecycle) Done() <-chan struct{} {
	return lc.done
}

func (lc *Lifecycle) finish() {
	lc.doneOnce.Do(func() { close(lc.done) })
}
