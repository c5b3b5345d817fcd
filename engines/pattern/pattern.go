// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: engines/pattern/pattern.go
// Summary: Software engine painting an animated gradient, used by the sim
//          backend and for bring-up of real outputs before a GPU engine is
//          attached.

package pattern

import (
	"fmt"

	"github.com/lumenwm/lumen/registry"
	"github.com/lumenwm/lumen/render"
)

func init() {
	registry.Register("pattern", func() render.Engine { return New() })
}

// Engine fills each frame with an XRGB8888 gradient that shifts every
// update, so frame pacing is visible to the naked eye.
type Engine struct {
	frame uint64
}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "pattern" }

func (e *Engine) Update(t render.Target) error {
	if t.Pixels == nil {
		return fmt.Errorf("pattern: target has no mapped pixels")
	}
	e.frame++
	shift := uint8(e.frame)
	for y := 0; y < t.Height; y++ {
		row := t.Pixels[y*t.Stride:]
		for x := 0; x < t.Width; x++ {
			// XRGB8888 little endian: B, G, R, X.
			p := x * 4
			row[p+0] = uint8(x) + shift
			row[p+1] = uint8(y) + shift
			row[p+2] = uint8(x+y) - shift
			row[p+3] = 0xff
		}
	}
	return nil
}

// Frame reports how many updates the engine has produced.
func (e *Engine) Frame() uint64 { return e.frame }
