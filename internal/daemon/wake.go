// Package daemon holds the pieces that make gloam a well-behaved background
// process: the wake signal handing settings changes from the control
// listener to the render loop, the detach re-exec, and the signal policy.
package daemon

import "sync"

// Wake is a boolean latch with notification, built on a one-slot channel so
// the waiter can select on it alongside other traffic. The listener sets
// the latch and the waiter consumes it before acting, so a burst of signals
// before the waiter gets scheduled collapses into a single wake.
type Wake struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

// NewWake returns an unsignaled wake.
func NewWake() *Wake {
	return &Wake{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Signal sets the latch. Setting an already-set latch is a no-op, which is
// what collapses bursts.
func (w *Wake) Signal() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// Ready returns the latch channel. Receiving from it consumes the pending
// signal, exactly like a successful Wait.
func (w *Wake) Ready() <-chan struct{} {
	return w.ch
}

// Done returns a channel that is closed once the wake is shut down.
func (w *Wake) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the latch is set, consumes it, and returns true. It
// returns false without consuming anything once the wake is closed.
func (w *Wake) Wait() bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case <-w.ch:
		return true
	case <-w.done:
		return false
	}
}

// Closed reports whether Close has been called.
func (w *Wake) Closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Close wakes every waiter and makes all future Waits return false.
func (w *Wake) Close() {
	w.once.Do(func() { close(w.done) })
}
