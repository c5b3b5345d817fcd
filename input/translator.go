// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: input/translator.go
// Summary: Translates raw input events to portable keys, tracks modifier and
//          focus state, and routes keys through protocol focus filtering.
// Notes: Runs only on the reactor goroutine; FocusState needs no locking.

package input

import (
	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/protocol"
)

// FocusState is the modifier mask and keyboard focus target. Mutated only by
// the translator on the reactor goroutine; protocol handlers read it to
// route key events.
type FocusState struct {
	Modifiers Modifiers
	Focus     protocol.Surface
}

// Sink receives forwarded portable keys on the application input channel.
type Sink func(protocol.KeyEvent)

// Options configure a Translator.
type Options struct {
	Keymap Keymap
	// ReservedKey triggers a graceful runtime shutdown instead of being
	// forwarded. Defaults to KeyEsc.
	ReservedKey uint16
	// Shutdown is invoked when the reserved key is pressed. The request
	// travels through the loop's exit channel, not a direct teardown.
	Shutdown func()
	Sink     Sink
	// OnSession fires on seat activity changes, after state logging. A
	// resume handler typically reopens paused input devices.
	OnSession func(SessionEvent)
}

// Translator converts raw device events into portable key events.
type Translator struct {
	keymap    Keymap
	display   protocol.Display
	sink      Sink
	shutdown  func()
	onSession func(SessionEvent)
	reserved  uint16
	state     FocusState
	log       *logrus.Entry

	forwarded uint64
	consumed  uint64
}

func NewTranslator(display protocol.Display, opts Options, log *logrus.Entry) *Translator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	keymap := opts.Keymap
	if keymap == nil {
		keymap = BuiltinKeymap()
	}
	reserved := opts.ReservedKey
	if reserved == 0 {
		reserved = KeyEsc
	}
	return &Translator{
		keymap:    keymap,
		display:   display,
		sink:      opts.Sink,
		shutdown:  opts.Shutdown,
		onSession: opts.OnSession,
		reserved:  reserved,
		log:       log,
	}
}

// State exposes the current modifier and focus state for protocol handlers.
func (t *Translator) State() FocusState { return t.state }

// SetFocus moves keyboard focus. Called by protocol handlers on the reactor
// goroutine when the focused surface changes.
func (t *Translator) SetFocus(s protocol.Surface) { t.state.Focus = s }

// OnRawEvent consumes one raw event from any input source.
func (t *Translator) OnRawEvent(ev interface{}) {
	switch e := ev.(type) {
	case KeyboardEvent:
		t.onKeyboard(e)
	case PointerEvent:
		// Pointer translation is out of scope; the category exists so the
		// source can be registered and drained.
	case DeviceEvent:
		t.log.WithFields(logrus.Fields{
			"action":    e.Action.String(),
			"subsystem": e.Subsystem,
			"path":      e.Path,
		}).Info("input device hot-plug")
	case SessionEvent:
		if e.Active {
			t.log.Info("session resumed")
		} else {
			t.log.Info("session paused")
		}
		if t.onSession != nil {
			t.onSession(e)
		}
	default:
		t.log.WithField("event", ev).Debug("unhandled raw event")
	}
}

func (t *Translator) onKeyboard(e KeyboardEvent) {
	if bit := modifierBit(e.Code); bit != 0 {
		if e.Pressed {
			t.state.Modifiers |= bit
		} else {
			t.state.Modifiers &^= bit
		}
		return
	}

	if e.Code == t.reserved && e.Pressed && !e.Repeat {
		t.log.Info("reserved key pressed, requesting shutdown")
		if t.shutdown != nil {
			t.shutdown()
		}
		return
	}

	sym, ok := t.keymap.Lookup(e.Code, t.state.Modifiers)
	if !ok {
		t.log.WithField("code", e.Code).Debug("keycode outside keymap")
		return
	}
	key := protocol.KeyEvent{
		Code:      uint32(e.Code),
		Sym:       sym,
		Modifiers: uint8(t.state.Modifiers),
		Pressed:   e.Pressed,
		Time:      e.Time,
	}

	if t.display != nil && t.display.FilterKey(key) == protocol.Consume {
		t.consumed++
		return
	}
	t.forwarded++
	if t.sink != nil {
		t.sink(key)
	}
}

// Stats reports forwarded and filter-consumed key counts.
func (t *Translator) Stats() (forwarded, consumed uint64) {
	return t.forwarded, t.consumed
}
