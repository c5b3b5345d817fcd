// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/bridge.go
// Summary: Imports a writable swapchain slot as the engine's frame target
//          and drives exactly one engine update per tick.

package render

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/output"
)

// ErrImport reports that a slot's buffer could not be made visible to the
// engine this tick. The tick is skipped; the previous frame stays on glass.
var ErrImport = errors.New("render: target import failed")

// Bridge hands one hardware buffer per tick to the external engine. Tick is
// only ever called from the reactor goroutine, serialized by the pacer, so
// no two ticks overlap.
type Bridge struct {
	width  int
	height int
	log    *logrus.Entry

	ticks   uint64
	imports uint64
}

func NewBridge(mode output.Mode, log *logrus.Entry) *Bridge {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bridge{width: mode.Width, height: mode.Height, log: log}
}

// Tick imports the writable slot's buffer as a frame target and invokes one
// engine update. On import failure the error wraps ErrImport and the slot is
// left untouched for the caller to release.
func (b *Bridge) Tick(engine Engine, slot *output.Slot) error {
	b.ticks++

	target, err := b.importTarget(slot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImport, err)
	}
	b.imports++

	if err := engine.Update(target); err != nil {
		return fmt.Errorf("render: engine %q update: %w", engine.Name(), err)
	}
	return nil
}

func (b *Bridge) importTarget(slot *output.Slot) (Target, error) {
	buf := slot.Buffer()
	fd, err := buf.Export()
	if err != nil {
		return Target{}, fmt.Errorf("export dmabuf: %w", err)
	}
	pixels, err := buf.Map()
	if err != nil {
		return Target{}, fmt.Errorf("map buffer: %w", err)
	}
	return Target{
		Texture: uint64(slot.Index()) + 1,
		Dmabuf:  fd,
		Pixels:  pixels,
		Width:   b.width,
		Height:  b.height,
		Stride:  buf.Stride(),
	}, nil
}

// Stats reports tick attempts and successful target imports.
func (b *Bridge) Stats() (ticks, imports uint64) {
	return b.ticks, b.imports
}
