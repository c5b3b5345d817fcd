// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/device_test.go
// Summary: Simulated device tests on a tcell SimulationScreen.

package sim

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lumenwm/lumen/input"
	"github.com/lumenwm/lumen/output"
)

func newTestDevice(t *testing.T) (*Device, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(16, 8)
	dev := New(screen, nil)
	t.Cleanup(func() { dev.Close() })
	return dev, screen
}

func TestScanConnectorsReportsTerminal(t *testing.T) {
	dev, _ := newTestDevice(t)
	conns, err := dev.ScanConnectors()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(conns) != 1 || !conns[0].Connected {
		t.Fatalf("expected one connected connector, got %+v", conns)
	}
	mode := conns[0].Modes[0]
	if !mode.Preferred || mode.Width != 16 || mode.Height != 8 {
		t.Fatalf("mode does not match screen size: %+v", mode)
	}
}

func TestCommitPaintsAndCompletes(t *testing.T) {
	dev, screen := newTestDevice(t)
	events := dev.Events()

	buf, err := dev.Allocator().Allocate(16, 8)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	pixels, _ := buf.Map()
	// Solid red frame: XRGB8888 stores B,G,R,X.
	for i := 0; i < len(pixels); i += 4 {
		pixels[i+2] = 0xff
	}

	err = dev.Commit(output.CommitRequest{
		Framebuffer: buf.Framebuffer(),
		CRTC:        1,
		Cookie:      42,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	drained := events.Drain()
	if len(drained) != 1 {
		t.Fatalf("expected one completion, got %d", len(drained))
	}
	done := drained[0].(output.CompletionEvent)
	if done.Cookie != 42 || done.CRTC != 1 {
		t.Fatalf("completion mismatch: %+v", done)
	}

	_, _, style, _ := screen.GetContent(3, 3)
	_, bg, _ := style.Decompose()
	if bg != tcell.NewRGBColor(0xff, 0, 0) {
		t.Fatalf("cell not painted red: %v", bg)
	}
}

func TestCommitRejectsUnknownFramebuffer(t *testing.T) {
	dev, _ := newTestDevice(t)
	err := dev.Commit(output.CommitRequest{Framebuffer: 99, CRTC: 1})
	if err == nil {
		t.Fatal("expected rejection of unknown framebuffer")
	}
}

func TestDestroyedBufferCannotCommit(t *testing.T) {
	dev, _ := newTestDevice(t)
	buf, err := dev.Allocator().Allocate(16, 8)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	fb := buf.Framebuffer()
	if err := buf.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := dev.Commit(output.CommitRequest{Framebuffer: fb, CRTC: 1}); err == nil {
		t.Fatal("expected commit of destroyed buffer to fail")
	}
}

func TestInputSourceTranslatesKeys(t *testing.T) {
	dev, screen := newTestDevice(t)
	src := dev.Input()
	defer src.Close()

	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	deadline := time.Now().Add(2 * time.Second)
	for !src.Pending() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var keys []input.KeyboardEvent
	collect := func() {
		for _, ev := range src.Drain() {
			keys = append(keys, ev.(input.KeyboardEvent))
		}
	}
	collect()
	for len(keys) < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		collect()
	}

	if len(keys) < 4 {
		t.Fatalf("expected press/release pairs for two keys, got %d events", len(keys))
	}
	if keys[0].Code != 30 || !keys[0].Pressed || keys[1].Code != 30 || keys[1].Pressed {
		t.Fatalf("expected 'a' press then release, got %+v %+v", keys[0], keys[1])
	}
	if keys[2].Code != input.KeyEsc || !keys[2].Pressed {
		t.Fatalf("expected escape press, got %+v", keys[2])
	}
}
