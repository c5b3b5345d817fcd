// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/pacer.go
// Summary: Gates the frame tick to a fixed interval, one tick per loop pass.

package reactor

import "time"

// Pacer decides, once per RunOnce return, whether a frame tick is due. When
// the loop stalls past several intervals the pacer still grants a single
// tick and resets its clock to now: late frames are skipped, never batched.
type Pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewPacer creates a pacer with the given tick interval. The first Due call
// after the interval elapses from construction fires.
func NewPacer(interval time.Duration) *Pacer {
	return newPacer(interval, time.Now)
}

func newPacer(interval time.Duration, now func() time.Time) *Pacer {
	return &Pacer{interval: interval, last: now(), now: now}
}

// Interval returns the fixed tick interval, which doubles as the RunOnce
// timeout so an idle loop still wakes for the next frame.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Due reports whether a tick should run now, at most once per call. On a
// granted tick the clock resets to now, discarding any backlog.
func (p *Pacer) Due() bool {
	now := p.now()
	if now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	return true
}
