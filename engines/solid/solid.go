// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: engines/solid/solid.go
// Summary: Trivial engine clearing every frame to a single color.

package solid

import (
	"fmt"

	"github.com/lumenwm/lumen/registry"
	"github.com/lumenwm/lumen/render"
)

func init() {
	registry.Register("solid", func() render.Engine { return &Engine{R: 0x10, G: 0x10, B: 0x18} })
}

// Engine clears the target to a fixed XRGB color each update.
type Engine struct {
	R, G, B uint8
}

func (e *Engine) Name() string { return "solid" }

func (e *Engine) Update(t render.Target) error {
	if t.Pixels == nil {
		return fmt.Errorf("solid: target has no mapped pixels")
	}
	for y := 0; y < t.Height; y++ {
		row := t.Pixels[y*t.Stride:]
		for x := 0; x < t.Width; x++ {
			p := x * 4
			row[p+0] = e.B
			row[p+1] = e.G
			row[p+2] = e.R
			row[p+3] = 0xff
		}
	}
	return nil
}
