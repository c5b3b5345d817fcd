// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/runtime_test.go
// Summary: Runtime integration tests on the simulated backend.

package compositor

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lumenwm/lumen/input"
	"github.com/lumenwm/lumen/protocol"
	"github.com/lumenwm/lumen/reactor"
	"github.com/lumenwm/lumen/render"
	"github.com/lumenwm/lumen/sim"
)

type fillEngine struct {
	updates int
	fail    error
}

func (e *fillEngine) Name() string { return "fill" }

func (e *fillEngine) Update(t render.Target) error {
	if e.fail != nil {
		return e.fail
	}
	e.updates++
	for i := 0; i < len(t.Pixels); i += 4 {
		t.Pixels[i+1] = 0x80
	}
	return nil
}

type testRig struct {
	rt      *Runtime
	display *protocol.NopDisplay
	engine  *fillEngine
	keys    *reactor.Queue
}

func newTestRig(t *testing.T, opts Options) *testRig {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(8, 4)
	dev := sim.New(screen, nil)

	display := protocol.NewNopDisplay()
	engine := &fillEngine{}
	keys := reactor.NewQueue("test-keys", nil)

	opts.Display = display
	opts.Device = dev
	opts.Completions = dev.Events()
	opts.Inputs = append(opts.Inputs, Bindable(keys))
	opts.Engine = engine
	if opts.FrameInterval == 0 {
		opts.FrameInterval = time.Millisecond
	}

	rt, err := New(opts, nil)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	t.Cleanup(rt.close)
	return &testRig{rt: rt, display: display, engine: engine, keys: keys}
}

// step waits out the frame interval then runs one loop pass.
func (r *testRig) step() error {
	time.Sleep(2 * time.Millisecond)
	return r.rt.RunOnce(time.Millisecond)
}

func TestTickSubmitsAndPresentsFrame(t *testing.T) {
	rig := newTestRig(t, Options{})

	if err := rig.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if rig.engine.updates != 1 {
		t.Fatalf("engine updates = %d, want 1", rig.engine.updates)
	}
	stats := rig.rt.Stats()
	if stats.Submitted != 1 {
		t.Fatalf("submitted = %d, want 1", stats.Submitted)
	}

	// The sim device completes synchronously; the next pass consumes it.
	if err := rig.rt.RunOnce(time.Millisecond); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if got := rig.rt.Stats().Presented; got != 1 {
		t.Fatalf("presented = %d, want 1", got)
	}
}

func TestAtMostOneTickPerPass(t *testing.T) {
	rig := newTestRig(t, Options{})

	// Stall well past several intervals, then run a single pass.
	time.Sleep(10 * time.Millisecond)
	if err := rig.rt.RunOnce(time.Millisecond); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if rig.engine.updates != 1 {
		t.Fatalf("stalled loop batched ticks: %d updates", rig.engine.updates)
	}
}

func TestReservedKeyRequestsExit(t *testing.T) {
	rig := newTestRig(t, Options{})

	rig.keys.Push(input.KeyboardEvent{Code: input.KeyEsc, Pressed: true, Time: time.Now()})
	if err := rig.rt.RunOnce(time.Second); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if !rig.rt.Exiting() {
		t.Fatal("reserved key did not request exit")
	}

	// No tick may run once exit is requested.
	before := rig.engine.updates
	time.Sleep(3 * time.Millisecond)
	rig.rt.RunOnce(time.Millisecond)
	if rig.engine.updates != before {
		t.Fatal("tick ran after exit was requested")
	}
}

func TestEngineFailureSkipsTickAndRecovers(t *testing.T) {
	rig := newTestRig(t, Options{})

	rig.engine.fail = errShaderGone
	if err := rig.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	stats := rig.rt.Stats()
	if stats.Submitted != 0 || stats.Skipped != 1 {
		t.Fatalf("expected skipped tick, got %+v", stats)
	}
	if rig.rt.Exiting() {
		t.Fatal("engine failure must not stop the runtime")
	}

	rig.engine.fail = nil
	if err := rig.step(); err != nil {
		t.Fatalf("recovery step: %v", err)
	}
	if rig.rt.Stats().Submitted != 1 {
		t.Fatal("runtime did not recover after engine failure")
	}
}

func TestDispatchRunsOnReadiness(t *testing.T) {
	rig := newTestRig(t, Options{})

	rig.display.Poke()
	deadline := time.Now().Add(2 * time.Second)
	for rig.display.Dispatches() == 0 && time.Now().Before(deadline) {
		if err := rig.rt.RunOnce(10 * time.Millisecond); err != nil {
			t.Fatalf("pass: %v", err)
		}
	}
	if rig.display.Dispatches() != 1 {
		t.Fatalf("dispatches = %d, want 1", rig.display.Dispatches())
	}
}

func TestClientAcceptedOverSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "lumen.sock")
	rig := newTestRig(t, Options{Socket: socket})

	conn, err := net.Dial("unix", socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for rig.rt.clients.ActiveClients() == 0 && time.Now().Before(deadline) {
		if err := rig.rt.RunOnce(10 * time.Millisecond); err != nil {
			t.Fatalf("pass: %v", err)
		}
	}
	if got := rig.rt.clients.ActiveClients(); got != 1 {
		t.Fatalf("active clients = %d, want 1", got)
	}
}

func TestStopWakesBlockedLoop(t *testing.T) {
	rig := newTestRig(t, Options{FrameInterval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- rig.rt.Run() }()

	time.Sleep(10 * time.Millisecond)
	rig.rt.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not stop")
	}
}

func TestStatsObserverSeesSkips(t *testing.T) {
	var seen []FrameStats
	rig := newTestRig(t, Options{})
	rig.rt.SetObserver(observerFunc(func(s FrameStats) { seen = append(seen, s) }))

	rig.engine.fail = errShaderGone
	if err := rig.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if len(seen) == 0 || seen[len(seen)-1].Skipped != 1 {
		t.Fatalf("observer missed the skip: %+v", seen)
	}
}

type observerFunc func(FrameStats)

func (f observerFunc) ObserveFrameStats(s FrameStats) { f(s) }

var errShaderGone = &engineError{"shader compile failed"}

type engineError struct{ msg string }

func (e *engineError) Error() string { return e.msg }
