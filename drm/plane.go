// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: drm/plane.go
// Summary: Plane enumeration, primary-plane claiming and property lookup.

package drm

import (
	"bytes"
	"fmt"
	"unsafe"
)

type modeGetPlaneRes struct {
	planeIDPtr  uint64
	countPlanes uint32
	_           uint32
}

type modeGetPlane struct {
	planeID, crtcID, fbID    uint32
	possibleCrtcs, gammaSize uint32
	countFormatTypes         uint32
	formatTypePtr            uint64
}

type modeObjGetProperties struct {
	propsPtr      uint64
	propValuesPtr uint64
	countProps    uint32
	objID         uint32
	objType       uint32
	_             uint32
}

type modeGetProperty struct {
	valuesPtr      uint64
	enumBlobPtr    uint64
	propID         uint32
	flags          uint32
	name           [32]byte
	countValues    uint32
	countEnumBlobs uint32
}

const (
	objTypeCRTC      = 0xcccccccc
	objTypeConnector = 0xc0c0c0c0
	objTypePlane     = 0xeeeeeeee

	planeTypePrimary = 1
)

// propCache maps object id → property name → property id, filled lazily the
// first time an object participates in an atomic commit.
type propCache struct {
	byObject map[uint32]map[string]uint32
}

func newPropCache() *propCache {
	return &propCache{byObject: make(map[uint32]map[string]uint32)}
}

func (c *Card) objectProps(objID, objType uint32) (map[string]uint32, error) {
	if props, ok := c.props.byObject[objID]; ok {
		return props, nil
	}
	var arg modeObjGetProperties
	req := iowr(0xb9, unsafe.Sizeof(arg))
	arg.objID = objID
	arg.objType = objType
	if err := ioctl(c.fd, req, unsafe.Pointer(&arg)); err != nil {
		return nil, fmt.Errorf("drm: count props of %d: %w", objID, err)
	}
	if arg.countProps == 0 {
		return nil, fmt.Errorf("drm: object %d has no properties", objID)
	}
	ids := make([]uint32, arg.countProps)
	values := make([]uint64, arg.countProps)
	arg.propsPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	arg.propValuesPtr = uint64(uintptr(unsafe.Pointer(&values[0])))
	if err := ioctl(c.fd, req, unsafe.Pointer(&arg)); err != nil {
		return nil, fmt.Errorf("drm: fetch props of %d: %w", objID, err)
	}

	props := make(map[string]uint32, arg.countProps)
	for _, propID := range ids[:arg.countProps] {
		var p modeGetProperty
		p.propID = propID
		if err := ioctl(c.fd, iowr(0xaa, unsafe.Sizeof(p)), unsafe.Pointer(&p)); err != nil {
			continue
		}
		name := string(bytes.TrimRight(p.name[:], "\x00"))
		props[name] = propID
	}
	c.props.byObject[objID] = props
	return props, nil
}

func (c *Card) propValue(objID, objType uint32, name string) (uint64, error) {
	var arg modeObjGetProperties
	req := iowr(0xb9, unsafe.Sizeof(arg))
	arg.objID = objID
	arg.objType = objType
	if err := ioctl(c.fd, req, unsafe.Pointer(&arg)); err != nil {
		return 0, err
	}
	if arg.countProps == 0 {
		return 0, fmt.Errorf("drm: object %d has no properties", objID)
	}
	ids := make([]uint32, arg.countProps)
	values := make([]uint64, arg.countProps)
	arg.propsPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	arg.propValuesPtr = uint64(uintptr(unsafe.Pointer(&values[0])))
	if err := ioctl(c.fd, req, unsafe.Pointer(&arg)); err != nil {
		return 0, err
	}
	for i, propID := range ids[:arg.countProps] {
		var p modeGetProperty
		p.propID = propID
		if err := ioctl(c.fd, iowr(0xaa, unsafe.Sizeof(p)), unsafe.Pointer(&p)); err != nil {
			continue
		}
		if string(bytes.TrimRight(p.name[:], "\x00")) == name {
			return values[i], nil
		}
	}
	return 0, fmt.Errorf("drm: object %d lacks property %q", objID, name)
}

// ClaimPlane finds the primary plane able to drive the CRTC. The claim is
// implicit: this process holds the master node, so the plane is exclusively
// ours until the fd closes.
func (c *Card) ClaimPlane(crtc uint32) (uint32, error) {
	crtcIdx := -1
	for i, id := range c.crtcs {
		if id == crtc {
			crtcIdx = i
			break
		}
	}
	if crtcIdx < 0 {
		return 0, fmt.Errorf("drm: unknown crtc %d", crtc)
	}

	var res modeGetPlaneRes
	req := iowr(0xb5, unsafe.Sizeof(res))
	if err := ioctl(c.fd, req, unsafe.Pointer(&res)); err != nil {
		return 0, fmt.Errorf("drm: get plane resources: %w", err)
	}
	if res.countPlanes == 0 {
		return 0, fmt.Errorf("drm: node exposes no planes")
	}
	ids := make([]uint32, res.countPlanes)
	res.planeIDPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	if err := ioctl(c.fd, req, unsafe.Pointer(&res)); err != nil {
		return 0, fmt.Errorf("drm: get plane list: %w", err)
	}

	for _, planeID := range ids[:res.countPlanes] {
		var plane modeGetPlane
		plane.planeID = planeID
		if err := ioctl(c.fd, iowr(0xb6, unsafe.Sizeof(plane)), unsafe.Pointer(&plane)); err != nil {
			continue
		}
		if plane.possibleCrtcs&(1<<uint(crtcIdx)) == 0 {
			continue
		}
		typ, err := c.propValue(planeID, objTypePlane, "type")
		if err != nil || typ != planeTypePrimary {
			continue
		}
		return planeID, nil
	}
	return 0, fmt.Errorf("drm: no primary plane for crtc %d", crtc)
}
