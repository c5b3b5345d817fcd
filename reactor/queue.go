// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/queue.go
// Summary: FIFO event queue backing every concrete event source.

package reactor

import "sync"

// Queue is the standard Source implementation. Producer goroutines Push;
// the loop goroutine drains. Arrival order is preserved per queue.
type Queue struct {
	name   string
	mu     sync.Mutex
	events []Event
	closed bool
	notify func()
}

// NewQueue creates a queue source. notify is the loop's wake callback and
// may be nil until Bind is called.
func NewQueue(name string, notify func()) *Queue {
	return &Queue{name: name, notify: notify}
}

// Bind attaches the loop's wake callback after construction.
func (q *Queue) Bind(notify func()) {
	q.mu.Lock()
	q.notify = notify
	q.mu.Unlock()
}

func (q *Queue) Name() string { return q.name }

// Push enqueues one event and wakes the loop. Events pushed after Close are
// dropped.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.events = append(q.events, ev)
	notify := q.notify
	q.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events) > 0
}

func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.events = nil
	q.mu.Unlock()
	return nil
}
