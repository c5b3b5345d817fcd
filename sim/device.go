// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/device.go
// Summary: Terminal-hosted display device. Presents frames as colored cells
//          on a tcell screen and synthesizes completion events, so the full
//          runtime can be exercised without hardware.

package sim

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/output"
	"github.com/lumenwm/lumen/reactor"
)

const connectorName = "SIM-1"

// Device drives a tcell screen as if it were a display card with a single
// always-connected connector. One terminal cell stands in for one pixel.
type Device struct {
	screen tcell.Screen
	log    *logrus.Entry

	mu      sync.Mutex
	buffers map[uint32]*buffer
	nextFB  uint32
	seq     uint32
	events  *reactor.Queue

	width  int
	height int
}

// New wraps an initialized tcell screen. Tests pass a SimulationScreen;
// production callers pass tcell.NewScreen after Init.
func New(screen tcell.Screen, log *logrus.Entry) *Device {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	w, h := screen.Size()
	return &Device{
		screen:  screen,
		log:     log.WithField("backend", "sim"),
		buffers: map[uint32]*buffer{},
		nextFB:  1,
		width:   w,
		height:  h,
	}
}

// Events returns the completion event source. Commits push into it
// synchronously, which the loop picks up on its next pass.
func (d *Device) Events() *reactor.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.events == nil {
		d.events = reactor.NewQueue("sim", nil)
	}
	return d.events
}

func (d *Device) ScanConnectors() ([]output.Connector, error) {
	return []output.Connector{{
		ID:        1,
		Name:      connectorName,
		Connected: true,
		CRTCs:     []uint32{1},
		Modes: []output.Mode{{
			Name:      fmt.Sprintf("%dx%d", d.width, d.height),
			Width:     d.width,
			Height:    d.height,
			RefreshHz: 60,
			Preferred: true,
		}},
	}}, nil
}

func (d *Device) ClaimPlane(crtc uint32) (uint32, error) {
	if crtc != 1 {
		return 0, fmt.Errorf("sim: unknown crtc %d", crtc)
	}
	return 1, nil
}

func (d *Device) Allocator() output.Allocator {
	return allocator{dev: d}
}

// Commit paints the committed buffer onto the screen and reports the flip
// as complete. Rejects unknown framebuffer ids the way a card would.
func (d *Device) Commit(req output.CommitRequest) error {
	d.mu.Lock()
	buf, ok := d.buffers[req.Framebuffer]
	events := d.events
	d.seq++
	seq := d.seq
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("sim: commit of unknown framebuffer %d", req.Framebuffer)
	}

	d.paint(buf)
	d.screen.Show()

	if events != nil {
		events.Push(output.CompletionEvent{
			Cookie:   req.Cookie,
			Sequence: seq,
			CRTC:     req.CRTC,
		})
	}
	return nil
}

func (d *Device) paint(buf *buffer) {
	for y := 0; y < buf.height; y++ {
		row := buf.pixels[y*buf.stride:]
		for x := 0; x < buf.width; x++ {
			// XRGB8888 little-endian: B, G, R, X.
			px := row[x*4 : x*4+4]
			color := tcell.NewRGBColor(int32(px[2]), int32(px[1]), int32(px[0]))
			d.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(color))
		}
	}
}

func (d *Device) Close() error {
	d.mu.Lock()
	events := d.events
	d.events = nil
	d.mu.Unlock()
	if events != nil {
		events.Close()
	}
	d.screen.Fini()
	return nil
}

type allocator struct {
	dev *Device
}

func (a allocator) Allocate(width, height int) (output.Buffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("sim: bad buffer size %dx%d", width, height)
	}
	a.dev.mu.Lock()
	defer a.dev.mu.Unlock()
	buf := &buffer{
		dev:    a.dev,
		fb:     a.dev.nextFB,
		width:  width,
		height: height,
		stride: width * 4,
		pixels: make([]byte, width*height*4),
	}
	a.dev.nextFB++
	a.dev.buffers[buf.fb] = buf
	return buf, nil
}

// buffer is a plain memory buffer. Export hands out no real handle; the
// software render path maps it directly.
type buffer struct {
	dev    *Device
	fb     uint32
	width  int
	height int
	stride int
	pixels []byte
}

func (b *buffer) Framebuffer() uint32  { return b.fb }
func (b *buffer) Export() (int, error) { return -1, nil }
func (b *buffer) Map() ([]byte, error) { return b.pixels, nil }
func (b *buffer) Stride() int          { return b.stride }

func (b *buffer) Destroy() error {
	b.dev.mu.Lock()
	delete(b.dev.buffers, b.fb)
	b.dev.mu.Unlock()
	b.pixels = nil
	return nil
}

var _ output.Device = (*Device)(nil)
