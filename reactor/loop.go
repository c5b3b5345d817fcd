// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/loop.go
// Summary: Single-threaded event multiplexer owning every runtime event source.
// Usage: The compositor registers its sources once, then drives RunOnce from
//        the main goroutine with the frame interval as the timeout.
// Notes: Handlers run inline on the loop goroutine and must never block.

package reactor

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRegister wraps any failure to install an event source.
	ErrRegister = errors.New("reactor: register source")
)

// Event is an opaque payload delivered to a handler. Each source defines its
// own event types; handlers type-switch on what they registered for.
type Event interface{}

// Handler consumes one event inline on the loop goroutine.
type Handler func(Event)

// Source is one registered producer of events. Implementations enqueue from
// any goroutine; the loop drains on its own goroutine only.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Pending reports whether at least one event is queued.
	Pending() bool
	// Drain returns queued events in arrival order and empties the queue.
	Drain() []Event
	// Close releases the source. Called on removal and loop shutdown.
	Close() error
}

type registration struct {
	src     Source
	handler Handler
}

// Loop multiplexes heterogeneous event sources onto one goroutine. Sources
// fire in registration order when simultaneously ready; events within one
// source keep arrival order.
type Loop struct {
	sources []registration
	ready   chan struct{}
	exiting bool
	exitErr error
	timer   *time.Timer
}

func NewLoop() *Loop {
	return &Loop{ready: make(chan struct{}, 1)}
}

// Notify returns the wake callback a source calls after enqueueing. The
// channel is lossy by design: one pending wake is enough to drain everything.
func (l *Loop) Notify() func() {
	ready := l.ready
	return func() {
		select {
		case ready <- struct{}{}:
		default:
		}
	}
}

// Register installs a source with its handler. A source registers exactly
// once; a nil source or handler cannot be polled and fails.
func (l *Loop) Register(src Source, h Handler) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrRegister)
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrRegister, src.Name())
	}
	for _, reg := range l.sources {
		if reg.src == src {
			return fmt.Errorf("%w: %q already registered", ErrRegister, src.Name())
		}
	}
	l.sources = append(l.sources, registration{src: src, handler: h})
	return nil
}

// Remove detaches a source, e.g. on device loss. The source is closed; events
// still queued are discarded.
func (l *Loop) Remove(src Source) {
	for i, reg := range l.sources {
		if reg.src == src {
			l.sources = append(l.sources[:i], l.sources[i+1:]...)
			_ = src.Close()
			return
		}
	}
}

// RunOnce blocks until at least one source is ready or the timeout elapses,
// then invokes every ready handler. Returning with zero dispatched events is
// the normal timeout path, not an error.
func (l *Loop) RunOnce(timeout time.Duration) error {
	if l.exiting {
		return l.exitErr
	}
	if !l.anyPending() {
		if l.timer == nil {
			l.timer = time.NewTimer(timeout)
		} else {
			l.timer.Reset(timeout)
		}
		select {
		case <-l.ready:
			if !l.timer.Stop() {
				<-l.timer.C
			}
		case <-l.timer.C:
		}
	}

	// Drain in registration order. A handler may request exit; dispatch of
	// already-ready sources still completes, only later RunOnce calls stop.
	for _, reg := range l.sources {
		if !reg.src.Pending() {
			continue
		}
		for _, ev := range reg.src.Drain() {
			reg.handler(ev)
		}
	}
	return nil
}

func (l *Loop) anyPending() bool {
	for _, reg := range l.sources {
		if reg.src.Pending() {
			return true
		}
	}
	return false
}

// RequestExit asks the loop's owner to stop after the current RunOnce. Safe
// to call from handlers; the first error wins.
func (l *Loop) RequestExit(err error) {
	if !l.exiting {
		l.exiting = true
		l.exitErr = err
	}
}

// Exiting reports whether shutdown was requested.
func (l *Loop) Exiting() bool { return l.exiting }

// ExitErr returns the error passed to RequestExit, nil for a clean exit.
func (l *Loop) ExitErr() error { return l.exitErr }

// Close closes every registered source.
func (l *Loop) Close() {
	for _, reg := range l.sources {
		_ = reg.src.Close()
	}
	l.sources = nil
}
