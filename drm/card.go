// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: drm/card.go
// Summary: DRM card node handle implementing the output device seam.
// Usage: OpenCard("/dev/dri/card0") or FindCard() for the first node with a
//        connected connector; the result plugs into output.NewController.

package drm

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/output"
)

const (
	clientCapUniversalPlanes = 2
	clientCapAtomic          = 3
)

type setClientCap struct {
	capability uint64
	value      uint64
}

// Card is an open DRM card node with atomic modesetting enabled.
type Card struct {
	file *os.File
	fd   int
	log  *logrus.Entry

	// crtcs keeps resource order; possible-CRTC bitmasks index into it.
	crtcs    []uint32
	props    *propCache
	rawModes map[string]modeInfo
}

// OpenCard opens the node and enables universal planes and atomic commits.
// A node refusing the atomic capability cannot drive this runtime.
func OpenCard(path string, log *logrus.Entry) (*Card, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("drm: open %s: %w", path, err)
	}
	c := &Card{
		file:     f,
		fd:       int(f.Fd()),
		log:      log.WithField("card", path),
		props:    newPropCache(),
		rawModes: make(map[string]modeInfo),
	}

	for _, cap := range []uint64{clientCapUniversalPlanes, clientCapAtomic} {
		arg := setClientCap{capability: cap, value: 1}
		if err := ioctl(c.fd, iow(0x0d, unsafe.Sizeof(arg)), unsafe.Pointer(&arg)); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("drm: client cap %d on %s: %w", cap, path, err)
		}
	}
	if err := c.loadResources(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

// FindCard probes /dev/dri/card* and returns the first node exposing a
// connected connector. No such node is a setup failure.
func FindCard(log *logrus.Entry) (*Card, error) {
	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("/dev/dri/card%d", i)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		card, err := OpenCard(path, log)
		if err != nil {
			continue
		}
		connectors, err := card.ScanConnectors()
		if err == nil {
			for _, conn := range connectors {
				if conn.Connected {
					return card, nil
				}
			}
		}
		_ = card.Close()
	}
	return nil, fmt.Errorf("drm: no card with a connected connector")
}

// Fd exposes the node descriptor for the event source.
func (c *Card) Fd() int { return c.fd }

// Allocator returns the dumb-buffer allocator bound to this node.
func (c *Card) Allocator() output.Allocator { return &dumbAllocator{card: c} }

func (c *Card) Close() error { return c.file.Close() }

var _ output.Device = (*Card)(nil)
