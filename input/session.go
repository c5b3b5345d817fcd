// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: input/session.go
// Summary: Seat session notifier source. Session management itself is
//          delegated; this source carries its pause/resume events.

package input

import "github.com/lumenwm/lumen/reactor"

// SessionSource carries seat activity notifications from whatever session
// manager backs the process (logind, seatd, or the sim backend).
type SessionSource struct {
	*reactor.Queue
}

func NewSessionSource() *SessionSource {
	return &SessionSource{Queue: reactor.NewQueue("session", nil)}
}

// Pause reports the seat became inactive (VT switch away).
func (s *SessionSource) Pause() { s.Push(SessionEvent{Active: false}) }

// Resume reports the seat regained device access.
func (s *SessionSource) Resume() { s.Push(SessionEvent{Active: true}) }
