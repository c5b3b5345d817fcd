// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: drm/atomic.go
// Summary: Atomic commit assembly: property blobs, per-object property
//          lists and the commit ioctl with page-flip event request.

package drm

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/lumenwm/lumen/output"
)

const (
	pageFlipEvent      = 0x01
	atomicAllowModeset = 0x0400
)

type modeCreateBlob struct {
	data   uint64
	length uint32
	blobID uint32
}

type modeAtomic struct {
	flags         uint32
	countObjs     uint32
	objsPtr       uint64
	countPropsPtr uint64
	propsPtr      uint64
	propValuesPtr uint64
	reserved      uint64
	userData      uint64
}

// atomicReq accumulates object/property/value triplets in the sorted object
// order the kernel requires.
type atomicReq struct {
	props map[uint32][]propValue
}

type propValue struct {
	prop  uint32
	value uint64
}

func newAtomicReq() *atomicReq {
	return &atomicReq{props: make(map[uint32][]propValue)}
}

func (r *atomicReq) add(obj, prop uint32, value uint64) {
	r.props[obj] = append(r.props[obj], propValue{prop: prop, value: value})
}

func (r *atomicReq) commit(c *Card, flags uint32, userData uint64) error {
	objs := make([]uint32, 0, len(r.props))
	for obj := range r.props {
		objs = append(objs, obj)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i] < objs[j] })

	var counts []uint32
	var props []uint32
	var values []uint64
	for _, obj := range objs {
		counts = append(counts, uint32(len(r.props[obj])))
		for _, pv := range r.props[obj] {
			props = append(props, pv.prop)
			values = append(values, pv.value)
		}
	}

	arg := modeAtomic{
		flags:         flags,
		countObjs:     uint32(len(objs)),
		objsPtr:       uint64(uintptr(unsafe.Pointer(&objs[0]))),
		countPropsPtr: uint64(uintptr(unsafe.Pointer(&counts[0]))),
		propsPtr:      uint64(uintptr(unsafe.Pointer(&props[0]))),
		propValuesPtr: uint64(uintptr(unsafe.Pointer(&values[0]))),
		userData:      userData,
	}
	return ioctl(c.fd, iowr(0xbc, unsafe.Sizeof(arg)), unsafe.Pointer(&arg))
}

func (c *Card) createModeBlob(m output.Mode) (uint32, error) {
	info, ok := c.rawMode(m)
	if !ok {
		return 0, fmt.Errorf("drm: no kernel timings for mode %s", m)
	}

	arg := modeCreateBlob{
		data:   uint64(uintptr(unsafe.Pointer(&info))),
		length: uint32(unsafe.Sizeof(info)),
	}
	if err := ioctl(c.fd, iowr(0xbd, unsafe.Sizeof(arg)), unsafe.Pointer(&arg)); err != nil {
		return 0, fmt.Errorf("drm: create mode blob: %w", err)
	}
	return arg.blobID, nil
}

// Commit issues one atomic commit presenting the framebuffer, requesting a
// page-flip completion event tagged with the request cookie.
func (c *Card) Commit(req output.CommitRequest) error {
	planeProps, err := c.objectProps(req.Plane, objTypePlane)
	if err != nil {
		return err
	}
	crtcProps, err := c.objectProps(req.CRTC, objTypeCRTC)
	if err != nil {
		return err
	}

	r := newAtomicReq()
	w, h := uint64(req.Mode.Width), uint64(req.Mode.Height)
	r.add(req.Plane, planeProps["FB_ID"], uint64(req.Framebuffer))
	r.add(req.Plane, planeProps["CRTC_ID"], uint64(req.CRTC))
	r.add(req.Plane, planeProps["SRC_X"], 0)
	r.add(req.Plane, planeProps["SRC_Y"], 0)
	r.add(req.Plane, planeProps["SRC_W"], w<<16) // 16.16 fixed point
	r.add(req.Plane, planeProps["SRC_H"], h<<16)
	r.add(req.Plane, planeProps["CRTC_X"], 0)
	r.add(req.Plane, planeProps["CRTC_Y"], 0)
	r.add(req.Plane, planeProps["CRTC_W"], w)
	r.add(req.Plane, planeProps["CRTC_H"], h)

	flags := uint32(pageFlipEvent)
	if req.Modeset {
		connProps, err := c.objectProps(req.Connector, objTypeConnector)
		if err != nil {
			return err
		}
		blob, err := c.createModeBlob(req.Mode)
		if err != nil {
			return err
		}
		r.add(req.CRTC, crtcProps["MODE_ID"], uint64(blob))
		r.add(req.CRTC, crtcProps["ACTIVE"], 1)
		r.add(req.Connector, connProps["CRTC_ID"], uint64(req.CRTC))
		flags |= atomicAllowModeset
	}

	if err := r.commit(c, flags, req.Cookie); err != nil {
		return fmt.Errorf("drm: atomic commit: %w", err)
	}
	return nil
}
