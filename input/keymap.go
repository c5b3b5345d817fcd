// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: input/keymap.go
// Summary: Keymap seam plus a minimal built-in table for tests and the sim
//          backend. Full keycode mapping is delegated, not owned here.

package input

// Modifiers is the current modifier mask.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Common evdev keycodes the runtime itself cares about.
const (
	KeyEsc        uint16 = 1
	KeyEnter      uint16 = 28
	KeyLeftCtrl   uint16 = 29
	KeyLeftShift  uint16 = 42
	KeyRightShift uint16 = 54
	KeyLeftAlt    uint16 = 56
	KeySpace      uint16 = 57
	KeyRightCtrl  uint16 = 97
	KeyRightAlt   uint16 = 100
	KeyLeftMeta   uint16 = 125
	KeyRightMeta  uint16 = 126
)

// Keymap resolves a raw keycode plus modifier state into a portable key
// symbol. Real deployments plug in an xkb-backed implementation.
type Keymap interface {
	Lookup(code uint16, mods Modifiers) (sym string, ok bool)
}

// builtinKeymap covers enough of a US layout to drive tests and the sim
// backend: letters, digits and a few control keys.
type builtinKeymap struct{}

// BuiltinKeymap returns the built-in US-layout subset.
func BuiltinKeymap() Keymap { return builtinKeymap{} }

var builtinRows = map[uint16]string{
	KeyEsc: "Escape", KeyEnter: "Return", KeySpace: "space",
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	14: "BackSpace", 15: "Tab",
}

func (builtinKeymap) Lookup(code uint16, mods Modifiers) (string, bool) {
	sym, ok := builtinRows[code]
	if !ok {
		return "", false
	}
	if mods&ModShift != 0 && len(sym) == 1 && sym[0] >= 'a' && sym[0] <= 'z' {
		return string(sym[0] - 'a' + 'A'), true
	}
	return sym, true
}

// modifierBit maps a keycode to its modifier bit, zero for ordinary keys.
func modifierBit(code uint16) Modifiers {
	switch code {
	case KeyLeftShift, KeyRightShift:
		return ModShift
	case KeyLeftCtrl, KeyRightCtrl:
		return ModCtrl
	case KeyLeftAlt, KeyRightAlt:
		return ModAlt
	case KeyLeftMeta, KeyRightMeta:
		return ModSuper
	}
	return 0
}
