// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/runtime.go
// Summary: Wires the event loop, output controller, frame bridge, pacer,
//          input translator and client registry into the running compositor.
// Usage: cmd/lumen-server builds Options for the chosen backend, then calls
//        New followed by Run on the main goroutine.

package compositor

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/drm"
	"github.com/lumenwm/lumen/input"
	"github.com/lumenwm/lumen/output"
	"github.com/lumenwm/lumen/protocol"
	"github.com/lumenwm/lumen/reactor"
	"github.com/lumenwm/lumen/render"
	"github.com/lumenwm/lumen/server"
)

// DefaultFrameInterval paces rendering when no rate is configured.
const DefaultFrameInterval = time.Second / 144

// Bindable is a queue-backed source that accepts the loop's wake callback
// after construction. Every concrete source embeds reactor.Queue and has it.
type Bindable interface {
	reactor.Source
	Bind(notify func())
}

// Options assemble a runtime. Device and Completions come from the same
// backend (drm or sim); Inputs are registered in slice order.
type Options struct {
	Display protocol.Display
	Device  output.Device
	// Completions delivers output.CompletionEvent values from the device.
	Completions Bindable
	// Inputs feed raw events to the translator.
	Inputs []Bindable
	Engine render.Engine

	// Socket, when set, serves the client protocol on this unix path.
	Socket string

	FrameInterval  time.Duration
	SwapchainDepth int
	Preferences    output.ModePreference
	ReservedKey    uint16
	Keymap         input.Keymap
	Sink           input.Sink
	// OnSession fires on seat pause/resume, e.g. to reopen input devices
	// after a VT switch back.
	OnSession func(input.SessionEvent)
}

// Runtime is the assembled compositor. All state past construction is owned
// by the loop goroutine; Run must be called from exactly one goroutine.
type Runtime struct {
	loop       *reactor.Loop
	pacer      *reactor.Pacer
	controller *output.Controller
	bridge     *render.Bridge
	engine     render.Engine
	translator *input.Translator
	display    protocol.Display
	clients    *server.Registry
	listener   *server.Listener
	session    *input.SessionSource
	dispatch   *dispatchSource
	log        *logrus.Entry

	stats    FrameStats
	observer StatsObserver
	closed   bool
}

// New builds the runtime and registers every event source. Registration
// order is fixed: session, inputs, client listener, protocol dispatch,
// device completions. Sources ready in the same pass fire in that order.
func New(opts Options, log *logrus.Entry) (*Runtime, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Display == nil {
		return nil, errors.New("compositor: nil display")
	}
	if opts.Engine == nil {
		return nil, errors.New("compositor: nil engine")
	}

	interval := opts.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	controller, err := output.NewController(opts.Device, output.Options{
		SwapchainDepth: opts.SwapchainDepth,
		Preferences:    opts.Preferences,
	}, log)
	if err != nil {
		return nil, err
	}

	loop := reactor.NewLoop()
	r := &Runtime{
		loop:       loop,
		pacer:      reactor.NewPacer(interval),
		controller: controller,
		bridge:     render.NewBridge(controller.Descriptor().Mode, log),
		engine:     opts.Engine,
		display:    opts.Display,
		clients:    server.NewRegistry(opts.Display, log),
		session:    input.NewSessionSource(),
		log:        log,
	}
	r.translator = input.NewTranslator(opts.Display, input.Options{
		Keymap:      opts.Keymap,
		ReservedKey: opts.ReservedKey,
		Shutdown:    func() { loop.RequestExit(nil) },
		Sink:        opts.Sink,
		OnSession:   opts.OnSession,
	}, log)

	if err := r.registerSources(opts); err != nil {
		controller.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runtime) registerSources(opts Options) error {
	raw := func(ev reactor.Event) { r.translator.OnRawEvent(ev) }

	r.session.Bind(r.loop.Notify())
	if err := r.loop.Register(r.session, raw); err != nil {
		return err
	}
	for _, src := range opts.Inputs {
		src.Bind(r.loop.Notify())
		if err := r.loop.Register(src, raw); err != nil {
			return err
		}
	}

	if opts.Socket != "" {
		listener, err := server.Listen(opts.Socket, r.log)
		if err != nil {
			return err
		}
		listener.Bind(r.loop.Notify())
		if err := r.loop.Register(listener, r.onAccept); err != nil {
			listener.Close()
			return err
		}
		r.listener = listener
	}

	r.dispatch = newDispatchSource(r.display)
	r.dispatch.Bind(r.loop.Notify())
	if err := r.loop.Register(r.dispatch, r.onDispatchReady); err != nil {
		return err
	}

	if opts.Completions != nil {
		opts.Completions.Bind(r.loop.Notify())
		if err := r.loop.Register(opts.Completions, r.onDeviceEvent); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) onAccept(ev reactor.Event) {
	acc, ok := ev.(server.Accepted)
	if !ok {
		return
	}
	if _, err := r.clients.Accept(acc.Conn); err != nil {
		r.log.WithError(err).Warn("client rejected")
	}
}

func (r *Runtime) onDispatchReady(reactor.Event) {
	if err := r.display.Dispatch(); err != nil {
		r.log.WithError(err).Error("protocol dispatch failed")
		r.loop.RequestExit(fmt.Errorf("compositor: dispatch: %w", err))
	}
}

func (r *Runtime) onDeviceEvent(ev reactor.Event) {
	switch e := ev.(type) {
	case output.CompletionEvent:
		r.controller.HandleCompletion(e)
	case drm.ErrorEvent:
		r.log.WithError(e.Err).Error("display device lost")
		r.loop.RequestExit(fmt.Errorf("compositor: device: %w", e.Err))
	}
}

// Session exposes seat activity control for VT-switch signal handlers.
func (r *Runtime) Session() *input.SessionSource { return r.session }

// Translator exposes focus state to protocol integration code.
func (r *Runtime) Translator() *input.Translator { return r.translator }

// Descriptor returns the bound output's shape.
func (r *Runtime) Descriptor() output.Descriptor { return r.controller.Descriptor() }

// SetObserver installs a frame stats observer. Call before Run.
func (r *Runtime) SetObserver(o StatsObserver) { r.observer = o }

// Stop requests a graceful exit from any goroutine.
func (r *Runtime) Stop() {
	r.loop.RequestExit(nil)
	r.loop.Notify()()
}

// Run drives the loop until exit is requested. At most one frame tick runs
// per loop pass, and none after exit; a stalled loop pass renders the next
// frame late rather than catching up.
func (r *Runtime) Run() error {
	defer r.close()
	for !r.loop.Exiting() {
		if err := r.loop.RunOnce(r.pacer.Interval()); err != nil {
			return err
		}
		if r.loop.Exiting() {
			break
		}
		if r.pacer.Due() {
			r.tick()
		}
	}
	return r.loop.ExitErr()
}

// RunOnce drives a single loop pass plus at most one tick. Tests use it to
// step the runtime deterministically.
func (r *Runtime) RunOnce(timeout time.Duration) error {
	if err := r.loop.RunOnce(timeout); err != nil {
		return err
	}
	if !r.loop.Exiting() && r.pacer.Due() {
		r.tick()
	}
	return nil
}

// Exiting reports whether shutdown has been requested.
func (r *Runtime) Exiting() bool { return r.loop.Exiting() }

func (r *Runtime) tick() {
	r.stats.Ticks++

	slot, err := r.controller.AcquireWritable()
	if err != nil {
		// All buffers in flight: drop this tick, the next completion
		// frees a slot.
		if errors.Is(err, output.ErrNoFreeSlot) {
			r.stats.Skipped++
			r.observe()
			return
		}
		r.log.WithError(err).Error("swapchain acquire failed")
		r.loop.RequestExit(fmt.Errorf("compositor: acquire: %w", err))
		return
	}

	if err := r.bridge.Tick(r.engine, slot); err != nil {
		r.controller.Release(slot)
		r.stats.Skipped++
		if errors.Is(err, render.ErrImport) {
			r.log.WithError(err).Warn("frame target import failed")
		} else {
			r.log.WithError(err).Error("engine update failed")
		}
		r.observe()
		return
	}

	if err := r.controller.Submit(slot, output.Rect{}); err != nil {
		r.stats.Skipped++
		r.log.WithError(err).Error("frame commit rejected")
		r.observe()
		return
	}

	now := time.Now()
	for _, surface := range r.display.Surfaces() {
		surface.SendFrameCallback(now)
	}
	if err := r.display.Flush(); err != nil {
		r.log.WithError(err).Warn("protocol flush failed")
	}
	r.observe()
}

func (r *Runtime) observe() {
	if r.observer == nil {
		return
	}
	submitted, presented := r.controller.Stats()
	r.stats.Submitted = submitted
	r.stats.Presented = presented
	r.observer.ObserveFrameStats(r.stats)
}

// Stats returns a snapshot of frame accounting.
func (r *Runtime) Stats() FrameStats {
	submitted, presented := r.controller.Stats()
	s := r.stats
	s.Submitted = submitted
	s.Presented = presented
	return s
}

func (r *Runtime) close() {
	if r.closed {
		return
	}
	r.closed = true
	r.loop.Close()
	r.clients.Close()
	_ = r.display.Close()
	r.controller.Close()
	r.log.Info("compositor stopped")
}
