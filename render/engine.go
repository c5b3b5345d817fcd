// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/engine.go
// Summary: Contract for the external render engine driven once per tick.

package render

// Target identifies the externally visible texture the engine draws into.
// It is valid for the duration of one frame tick only; the bridge owns it
// for that tick and reclaims it afterwards.
type Target struct {
	// Texture is the engine-facing handle for this frame's image.
	Texture uint64
	// Dmabuf is the cross-process buffer handle backing the texture, -1
	// when the buffer did not export one.
	Dmabuf int
	// Pixels is the mapped storage for software engines. GPU engines
	// ignore it and import the dmabuf instead.
	Pixels []byte
	Width  int
	Height int
	Stride int
}

// Engine is the opaque external render engine. The runtime's only demands:
// accept the tick's target and populate it in exactly one update cycle.
type Engine interface {
	// Name identifies the engine in logs and the engine registry.
	Name() string
	// Update runs one render cycle into the target. The target is stable
	// for the full call; the engine must not retain it afterwards.
	Update(t Target) error
}
