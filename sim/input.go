// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/input.go
// Summary: Terminal keyboard as an input source: tcell key events become
//          evdev-coded press/release pairs.

package sim

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lumenwm/lumen/input"
	"github.com/lumenwm/lumen/reactor"
)

// InputSource polls the screen for key events on a pump goroutine. A
// terminal reports keystrokes, not transitions, so every key arrives as a
// press immediately followed by a release.
type InputSource struct {
	*reactor.Queue
	screen tcell.Screen
	done   chan struct{}
}

// Input starts the device's keyboard source.
func (d *Device) Input() *InputSource {
	src := &InputSource{
		Queue:  reactor.NewQueue("sim-input", nil),
		screen: d.screen,
		done:   make(chan struct{}),
	}
	go src.pump()
	return src
}

func (s *InputSource) pump() {
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case <-s.done:
			return
		default:
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		code, ok := keycodeFor(key)
		if !ok {
			continue
		}
		now := time.Now()
		s.Push(input.KeyboardEvent{Code: code, Pressed: true, Time: now, Device: connectorName})
		s.Push(input.KeyboardEvent{Code: code, Pressed: false, Time: now, Device: connectorName})
	}
}

func (s *InputSource) Close() error {
	close(s.done)
	return s.Queue.Close()
}

var runeCodes = map[rune]uint16{
	'1': 2, '2': 3, '3': 4, '4': 5, '5': 6, '6': 7, '7': 8, '8': 9, '9': 10, '0': 11,
	'q': 16, 'w': 17, 'e': 18, 'r': 19, 't': 20, 'y': 21, 'u': 22, 'i': 23, 'o': 24, 'p': 25,
	'a': 30, 's': 31, 'd': 32, 'f': 33, 'g': 34, 'h': 35, 'j': 36, 'k': 37, 'l': 38,
	'z': 44, 'x': 45, 'c': 46, 'v': 47, 'b': 48, 'n': 49, 'm': 50,
	' ': 57,
}

// keycodeFor maps a tcell key event to an evdev keycode. Escape and Ctrl+C
// both land on KEY_ESC so the default shutdown chord works in a terminal.
func keycodeFor(ev *tcell.EventKey) (uint16, bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return input.KeyEsc, true
	case tcell.KeyEnter:
		return input.KeyEnter, true
	case tcell.KeyTab:
		return 15, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return 14, true
	case tcell.KeyRune:
		code, ok := runeCodes[ev.Rune()]
		return code, ok
	}
	return 0, false
}
