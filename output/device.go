// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: output/device.go
// Summary: Seam to the kernel display subsystem and its buffer allocator.
// Usage: Implemented by the drm backend for real hardware and by the sim
//        backend for terminal-hosted development runs.

package output

import "fmt"

// Mode is one display timing a connector can drive.
type Mode struct {
	Name      string
	Width     int
	Height    int
	RefreshHz int
	Preferred bool
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.RefreshHz)
}

// Connector is one physical output port as reported by the device.
type Connector struct {
	ID        uint32
	Name      string
	Connected bool
	Modes     []Mode
	// CRTCs lists the controller ids able to drive this connector.
	CRTCs []uint32
}

// Buffer is one allocated scanout buffer.
type Buffer interface {
	// Framebuffer returns the device framebuffer id used in commits.
	Framebuffer() uint32
	// Export hands out a cross-process-importable handle (dmabuf fd).
	Export() (int, error)
	// Map exposes the pixel storage for software rendering paths.
	Map() ([]byte, error)
	// Stride is the row pitch in bytes.
	Stride() int
	Destroy() error
}

// Allocator produces scanout buffers for the chosen device node.
type Allocator interface {
	// Allocate returns a buffer of the given size in the device's scanout
	// format.
	Allocate(width, height int) (Buffer, error)
}

// CommitRequest is one atomic presentation request.
type CommitRequest struct {
	Framebuffer uint32
	Connector   uint32
	CRTC        uint32
	Plane       uint32
	Mode        Mode
	// Modeset requests a full mode programming; only the first commit
	// after setup sets it.
	Modeset bool
	// Cookie is echoed back in the matching completion event.
	Cookie uint64
	// Damage is the changed region; zero means full frame.
	Damage Rect
}

// Rect is a damage rectangle in buffer coordinates.
type Rect struct {
	X, Y, W, H int
}

// CompletionEvent reports that a previously committed buffer is now the one
// physically shown (vblank / page-flip completion).
type CompletionEvent struct {
	Cookie   uint64
	Sequence uint32
	CRTC     uint32
}

// Device is the display subsystem: connector enumeration, plane binding and
// atomic commits. Completion events arrive through the reactor, not here.
type Device interface {
	ScanConnectors() ([]Connector, error)
	// ClaimPlane binds a primary plane for the controller, exclusive for
	// the process lifetime.
	ClaimPlane(crtc uint32) (uint32, error)
	Allocator() Allocator
	Commit(req CommitRequest) error
	Close() error
}

// ModePreference remembers accepted modes across runs.
type ModePreference interface {
	Preferred(connector string) (Mode, bool)
	Remember(connector string, m Mode) error
}
