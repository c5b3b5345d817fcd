// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/lumen-server/main.go
// Summary: Display server entry point: flags, config, backend selection and
//          signal-driven lifecycle around the compositor runtime.
// Usage: Run `lumen-server` on a VT for real hardware, or with
//        `--backend sim` inside any terminal for development.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lumenwm/lumen/compositor"
	"github.com/lumenwm/lumen/config"
	"github.com/lumenwm/lumen/drm"
	"github.com/lumenwm/lumen/input"
	"github.com/lumenwm/lumen/protocol"
	"github.com/lumenwm/lumen/registry"
	"github.com/lumenwm/lumen/sim"
	"github.com/lumenwm/lumen/store"

	_ "github.com/lumenwm/lumen/engines/pattern"
	_ "github.com/lumenwm/lumen/engines/solid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("lumen-server", flag.ContinueOnError)

	configPath := fs.String("config", config.DefaultPath(), "Config file path")
	socketPath := fs.String("socket", "", "Unix socket path for protocol clients")
	backend := fs.String("backend", "", "Display backend: drm or sim")
	engineName := fs.String("engine", "", "Render engine to drive")
	frameRate := fs.Int("frame-rate", 0, "Frame rate in Hz")
	drmNode := fs.String("drm-node", "", "DRM card node (default: probe /dev/dri)")
	cpuProfile := fs.String("pprof-cpu", "", "Write CPU profile to file")
	memProfile := fs.String("pprof-mem", "", "Write heap profile to file on exit")
	verboseLogs := fs.Bool("verbose-logs", false, "Enable verbose logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if fs.Changed("socket") {
		cfg.Socket = *socketPath
	}
	if fs.Changed("backend") {
		cfg.Backend = *backend
	}
	if fs.Changed("engine") {
		cfg.Engine = *engineName
	}
	if fs.Changed("frame-rate") {
		cfg.FrameRateHz = *frameRate
	}
	if fs.Changed("drm-node") {
		cfg.DRMNode = *drmNode
	}
	if *verboseLogs {
		cfg.VerboseLogs = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.VerboseLogs {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("component", "lumen-server")

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	engine, err := registry.New(cfg.Engine)
	if err != nil {
		return fmt.Errorf("engine %q: %w (available: %v)", cfg.Engine, err, registry.Names())
	}

	opts := compositor.Options{
		Display:        protocol.NewNopDisplay(),
		Engine:         engine,
		Socket:         cfg.Socket,
		FrameInterval:  cfg.FrameInterval(),
		SwapchainDepth: cfg.SwapchainDepth,
		ReservedKey:    cfg.ReservedKey,
	}

	if cfg.StatePath != "" {
		st, err := store.Open(cfg.StatePath)
		if err != nil {
			log.WithError(err).Warn("state store unavailable, preferences not persisted")
		} else {
			defer st.Close()
			opts.Preferences = st
		}
	}

	switch cfg.Backend {
	case "sim":
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("sim backend needs a terminal on stdin")
		}
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init terminal screen: %w", err)
		}
		dev := sim.New(screen, log)
		opts.Device = dev
		opts.Completions = dev.Events()
		opts.Inputs = []compositor.Bindable{dev.Input()}

	case "drm":
		var card *drm.Card
		if cfg.DRMNode != "" {
			card, err = drm.OpenCard(cfg.DRMNode, log)
		} else {
			card, err = drm.FindCard(log)
		}
		if err != nil {
			return err
		}
		opts.Device = card
		opts.Completions = card.Events()

		keyboards, err := input.OpenEvdev(log)
		if err != nil {
			return fmt.Errorf("open input devices: %w", err)
		}
		opts.Inputs = append(opts.Inputs, keyboards)

		hotplug, err := input.OpenHotplug(log)
		if err != nil {
			log.WithError(err).Warn("device hot-plug monitoring unavailable")
		} else {
			opts.Inputs = append(opts.Inputs, hotplug)
		}
	}

	rt, err := compositor.New(opts, log)
	if err != nil {
		return err
	}
	rt.SetObserver(compositor.NewStatsLogger(log, 0))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		for sig := range sigs {
			switch sig {
			case syscall.SIGUSR1:
				rt.Session().Pause()
			case syscall.SIGUSR2:
				rt.Session().Resume()
			default:
				rt.Stop()
				return
			}
		}
	}()

	log.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"engine":  cfg.Engine,
		"output":  rt.Descriptor().Connector,
		"mode":    rt.Descriptor().Mode.String(),
	}).Info("lumen starting")

	runErr := rt.Run()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err == nil {
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.WithError(err).Warn("heap profile not written")
			}
			_ = f.Close()
		}
	}
	return runErr
}
