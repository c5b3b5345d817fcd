// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: output/controller.go
// Summary: Hardware output controller binding connector, mode, plane and
//          swapchain; owns buffer submission and completion handling.

package output

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	// ErrCommitRejected wraps a kernel-level modeset or commit error. It
	// is surfaced to the caller, never retried here.
	ErrCommitRejected = errors.New("output: commit rejected")

	// ErrNoOutput reports setup failure: no connected connector exposes a
	// usable mode. Fatal to process start.
	ErrNoOutput = errors.New("output: no usable connector")
)

// Descriptor is the physical and logical shape of the managed output. Set
// once at startup; a hot-plug reconfiguration may only replace it wholesale.
type Descriptor struct {
	Connector string
	Mode      Mode
	Transform int
	X, Y      int
}

// Options tune controller setup.
type Options struct {
	// SwapchainDepth is the buffer pool size; 0 means 3 (triple buffer).
	SwapchainDepth int
	// Preferences, when set, is consulted before the connector's own
	// preferred mode.
	Preferences ModePreference
}

// Controller owns the display-subsystem connection for a single output. All
// methods run on the reactor goroutine.
type Controller struct {
	dev   Device
	sc    *Swapchain
	desc  Descriptor
	conn  Connector
	crtc  uint32
	plane uint32
	log   *logrus.Entry

	modeset   bool
	submitted uint64
	presented uint64
}

// NewController enumerates connectors, picks the first connected one with a
// usable mode, claims its primary plane and builds the swapchain. Every
// failure here is fatal to process start.
func NewController(dev Device, opts Options, log *logrus.Entry) (*Controller, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	connectors, err := dev.ScanConnectors()
	if err != nil {
		return nil, fmt.Errorf("output: scan connectors: %w", err)
	}

	conn, mode, err := pickOutput(connectors, opts.Preferences)
	if err != nil {
		return nil, err
	}
	if len(conn.CRTCs) == 0 {
		return nil, fmt.Errorf("%w: %s has no controller", ErrNoOutput, conn.Name)
	}
	crtc := conn.CRTCs[0]

	plane, err := dev.ClaimPlane(crtc)
	if err != nil {
		return nil, fmt.Errorf("output: claim plane for crtc %d: %w", crtc, err)
	}

	depth := opts.SwapchainDepth
	if depth == 0 {
		depth = 3
	}
	sc, err := NewSwapchain(dev.Allocator(), depth, mode.Width, mode.Height)
	if err != nil {
		return nil, err
	}

	if opts.Preferences != nil {
		if err := opts.Preferences.Remember(conn.Name, mode); err != nil {
			log.WithError(err).Warn("mode preference not persisted")
		}
	}

	log.WithFields(logrus.Fields{
		"connector": conn.Name,
		"mode":      mode.String(),
		"crtc":      crtc,
		"plane":     plane,
		"depth":     depth,
	}).Info("output bound")

	return &Controller{
		dev:   dev,
		sc:    sc,
		desc:  Descriptor{Connector: conn.Name, Mode: mode},
		conn:  conn,
		crtc:  crtc,
		plane: plane,
		log:   log,
	}, nil
}

func pickOutput(connectors []Connector, prefs ModePreference) (Connector, Mode, error) {
	for _, conn := range connectors {
		if !conn.Connected || len(conn.Modes) == 0 {
			continue
		}
		if prefs != nil {
			if want, ok := prefs.Preferred(conn.Name); ok {
				for _, m := range conn.Modes {
					if m.Width == want.Width && m.Height == want.Height && m.RefreshHz == want.RefreshHz {
						return conn, m, nil
					}
				}
			}
		}
		for _, m := range conn.Modes {
			if m.Preferred {
				return conn, m, nil
			}
		}
		return conn, conn.Modes[0], nil
	}
	return Connector{}, Mode{}, ErrNoOutput
}

// Descriptor returns the bound output's shape.
func (c *Controller) Descriptor() Descriptor { return c.desc }

// AcquireWritable hands out the next free slot for rendering. ErrNoFreeSlot
// means the flip pipeline is full; the caller skips this tick's submission.
func (c *Controller) AcquireWritable() (*Slot, error) {
	return c.sc.Acquire()
}

// Release returns a slot whose tick was abandoned before presentation.
func (c *Controller) Release(slot *Slot) {
	if err := c.sc.Release(slot); err != nil {
		c.log.WithError(err).Warn("slot release out of order")
	}
}

// Submit queues a writable slot and issues the atomic commit. A rejected
// commit surfaces as ErrCommitRejected with the slot returned to free; the
// previously presented slot stays on glass untouched.
func (c *Controller) Submit(slot *Slot, damage Rect) error {
	cookie, err := c.sc.Queue(slot)
	if err != nil {
		return err
	}
	req := CommitRequest{
		Framebuffer: slot.Buffer().Framebuffer(),
		Connector:   c.conn.ID,
		CRTC:        c.crtc,
		Plane:       c.plane,
		Mode:        c.desc.Mode,
		Modeset:     !c.modeset,
		Cookie:      cookie,
		Damage:      damage,
	}
	if err := c.dev.Commit(req); err != nil {
		_ = c.sc.Release(slot)
		return fmt.Errorf("%w: %v", ErrCommitRejected, err)
	}
	c.modeset = true
	c.submitted++
	return nil
}

// HandleCompletion consumes one display-subsystem completion event and
// cycles the matching slot queued → presented, freeing the prior frame.
func (c *Controller) HandleCompletion(ev CompletionEvent) {
	if slot := c.sc.Complete(ev.Cookie); slot != nil {
		c.presented++
		return
	}
	c.log.WithField("cookie", ev.Cookie).Debug("stale completion ignored")
}

// Stats reports submitted and presented frame counts.
func (c *Controller) Stats() (submitted, presented uint64) {
	return c.submitted, c.presented
}

// Close tears down the swapchain and the device connection.
func (c *Controller) Close() {
	c.sc.Destroy()
	_ = c.dev.Close()
}
