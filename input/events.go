// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: input/events.go
// Summary: Raw event types flowing from input backends into the translator.

package input

import "time"

// KeyboardEvent is one raw key transition from an input device.
type KeyboardEvent struct {
	Code    uint16
	Pressed bool
	// Repeat marks an autorepeat, delivered as a pressed key.
	Repeat bool
	Time   time.Time
	Device string
}

// PointerEvent is acknowledged as an event category and forwarded without
// translation; pointer semantics live outside this core.
type PointerEvent struct {
	DX, DY  float64
	Button  uint16
	Pressed bool
	Time    time.Time
}

// DeviceAction distinguishes hot-plug notifications.
type DeviceAction int

const (
	DeviceAdded DeviceAction = iota
	DeviceChanged
	DeviceRemoved
)

func (a DeviceAction) String() string {
	switch a {
	case DeviceAdded:
		return "added"
	case DeviceChanged:
		return "changed"
	case DeviceRemoved:
		return "removed"
	}
	return "unknown"
}

// DeviceEvent is one hot-plug notification (input device or GPU).
type DeviceEvent struct {
	Action    DeviceAction
	Subsystem string
	Path      string
}

// SessionEvent reports seat session activity changes. A paused session has
// lost device access (VT switch); resume restores it.
type SessionEvent struct {
	Active bool
}
