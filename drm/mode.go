// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: drm/mode.go
// Summary: Mode-setting resource enumeration: CRTCs, connectors, encoders.

package drm

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/lumenwm/lumen/output"
)

type modeCardRes struct {
	fbIDPtr, crtcIDPtr, connectorIDPtr, encoderIDPtr     uint64
	countFBs, countCRTCs, countConnectors, countEncoders uint32
	minWidth, maxWidth, minHeight, maxHeight             uint32
}

type modeInfo struct {
	clock                                         uint32
	hdisplay, hsyncStart, hsyncEnd, htotal, hskew uint16
	vdisplay, vsyncStart, vsyncEnd, vtotal, vscan uint16
	vrefresh                                      uint32
	flags                                         uint32
	typ                                           uint32
	name                                          [32]byte
}

const modeTypePreferred = 1 << 3

type modeGetConnector struct {
	encodersPtr, modesPtr, propsPtr, propValuesPtr         uint64
	countModes, countProps, countEncoders                  uint32
	encoderID, connectorID, connectorType, connectorTypeID uint32
	connection, mmWidth, mmHeight, subpixel                uint32
	pad                                                    uint32
}

type modeGetEncoder struct {
	encoderID, encoderType        uint32
	crtcID                        uint32
	possibleCrtcs, possibleClones uint32
}

const connectionConnected = 1

var connectorTypeNames = map[uint32]string{
	0: "Unknown", 1: "VGA", 2: "DVI-I", 3: "DVI-D", 4: "DVI-A",
	5: "Composite", 6: "SVIDEO", 7: "LVDS", 8: "Component", 9: "DIN",
	10: "DP", 11: "HDMI-A", 12: "HDMI-B", 13: "TV", 14: "eDP",
	15: "Virtual", 16: "DSI", 17: "DPI", 18: "Writeback", 19: "SPI", 20: "USB",
}

func connectorName(typ, typeID uint32) string {
	name, ok := connectorTypeNames[typ]
	if !ok {
		name = fmt.Sprintf("Connector%d", typ)
	}
	return fmt.Sprintf("%s-%d", name, typeID)
}

func (c *Card) loadResources() error {
	var res modeCardRes
	req := iowr(0xa0, unsafe.Sizeof(res))
	if err := ioctl(c.fd, req, unsafe.Pointer(&res)); err != nil {
		return fmt.Errorf("drm: get resources: %w", err)
	}
	if res.countCRTCs == 0 {
		return fmt.Errorf("drm: node exposes no CRTCs")
	}
	crtcs := make([]uint32, res.countCRTCs)
	res.crtcIDPtr = uint64(uintptr(unsafe.Pointer(&crtcs[0])))
	res.countConnectors = 0
	res.countEncoders = 0
	res.countFBs = 0
	if err := ioctl(c.fd, req, unsafe.Pointer(&res)); err != nil {
		return fmt.Errorf("drm: get crtc list: %w", err)
	}
	c.crtcs = crtcs[:res.countCRTCs]
	return nil
}

func (c *Card) connectorIDs() ([]uint32, error) {
	var res modeCardRes
	req := iowr(0xa0, unsafe.Sizeof(res))
	if err := ioctl(c.fd, req, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("drm: get resources: %w", err)
	}
	if res.countConnectors == 0 {
		return nil, nil
	}
	ids := make([]uint32, res.countConnectors)
	res.connectorIDPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	res.countCRTCs = 0
	res.countEncoders = 0
	res.countFBs = 0
	if err := ioctl(c.fd, req, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("drm: get connector list: %w", err)
	}
	return ids[:res.countConnectors], nil
}

// ScanConnectors enumerates every connector with its modes and the CRTCs
// able to drive it, in kernel resource order.
func (c *Card) ScanConnectors() ([]output.Connector, error) {
	ids, err := c.connectorIDs()
	if err != nil {
		return nil, err
	}
	connectors := make([]output.Connector, 0, len(ids))
	for _, id := range ids {
		conn, err := c.getConnector(id)
		if err != nil {
			c.log.WithError(err).WithField("connector", id).Warn("connector probe failed")
			continue
		}
		connectors = append(connectors, conn)
	}
	return connectors, nil
}

func (c *Card) getConnector(id uint32) (output.Connector, error) {
	var arg modeGetConnector
	req := iowr(0xa7, unsafe.Sizeof(arg))
	arg.connectorID = id
	if err := ioctl(c.fd, req, unsafe.Pointer(&arg)); err != nil {
		return output.Connector{}, fmt.Errorf("probe connector %d: %w", id, err)
	}

	modes := make([]modeInfo, max32(arg.countModes, 1))
	encoders := make([]uint32, max32(arg.countEncoders, 1))
	arg.modesPtr = uint64(uintptr(unsafe.Pointer(&modes[0])))
	arg.encodersPtr = uint64(uintptr(unsafe.Pointer(&encoders[0])))
	arg.countProps = 0
	if err := ioctl(c.fd, req, unsafe.Pointer(&arg)); err != nil {
		return output.Connector{}, fmt.Errorf("fetch connector %d: %w", id, err)
	}

	conn := output.Connector{
		ID:        id,
		Name:      connectorName(arg.connectorType, arg.connectorTypeID),
		Connected: arg.connection == connectionConnected,
	}
	for _, m := range modes[:arg.countModes] {
		mode := output.Mode{
			Name:      string(bytes.TrimRight(m.name[:], "\x00")),
			Width:     int(m.hdisplay),
			Height:    int(m.vdisplay),
			RefreshHz: int(m.vrefresh),
			Preferred: m.typ&modeTypePreferred != 0,
		}
		conn.Modes = append(conn.Modes, mode)
		// Keep the kernel's timings; mode blobs for commits reuse them.
		c.rawModes[rawModeKey(mode)] = m
	}
	for _, encID := range encoders[:arg.countEncoders] {
		var enc modeGetEncoder
		enc.encoderID = encID
		if err := ioctl(c.fd, iowr(0xa6, unsafe.Sizeof(enc)), unsafe.Pointer(&enc)); err != nil {
			continue
		}
		for idx, crtc := range c.crtcs {
			if enc.possibleCrtcs&(1<<uint(idx)) != 0 && !containsID(conn.CRTCs, crtc) {
				conn.CRTCs = append(conn.CRTCs, crtc)
			}
		}
	}
	return conn, nil
}

func rawModeKey(m output.Mode) string {
	return fmt.Sprintf("%s/%dx%d@%d", m.Name, m.Width, m.Height, m.RefreshHz)
}

// rawMode returns the kernel-reported timings for a scanned mode.
func (c *Card) rawMode(m output.Mode) (modeInfo, bool) {
	info, ok := c.rawModes[rawModeKey(m)]
	return info, ok
}

func max32(v uint32, floor int) int {
	if int(v) > floor {
		return int(v)
	}
	return floor
}

func containsID(ids []uint32, id uint32) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}
