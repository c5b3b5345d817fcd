// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: drm/dumb.go
// Summary: Dumb-buffer allocator: CPU-mappable scanout buffers with dmabuf
//          (PRIME) export for the render engine import path.

package drm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/lumenwm/lumen/output"
)

// fourccXRGB8888 is 'XR24', the one scanout format every KMS driver takes.
const fourccXRGB8888 = 0x34325258

type modeCreateDumb struct {
	height, width, bpp, flags uint32
	handle, pitch             uint32
	size                      uint64
}

type modeMapDumb struct {
	handle uint32
	_      uint32
	offset uint64
}

type modeDestroyDumb struct {
	handle uint32
}

type modeFBCmd2 struct {
	fbID          uint32
	width, height uint32
	pixelFormat   uint32
	flags         uint32
	handles       [4]uint32
	pitches       [4]uint32
	offsets       [4]uint32
	modifier      [4]uint64
}

type primeHandle struct {
	handle uint32
	flags  uint32
	fd     int32
}

type modeFBCmdRm struct {
	fbID uint32
}

type dumbAllocator struct {
	card *Card
}

func (a *dumbAllocator) Allocate(width, height int) (output.Buffer, error) {
	c := a.card

	create := modeCreateDumb{height: uint32(height), width: uint32(width), bpp: 32}
	if err := ioctl(c.fd, iowr(0xb2, unsafe.Sizeof(create)), unsafe.Pointer(&create)); err != nil {
		return nil, fmt.Errorf("drm: create dumb %dx%d: %w", width, height, err)
	}
	buf := &dumbBuffer{card: c, handle: create.handle, pitch: int(create.pitch), size: create.size}

	fb := modeFBCmd2{
		width:       uint32(width),
		height:      uint32(height),
		pixelFormat: fourccXRGB8888,
	}
	fb.handles[0] = create.handle
	fb.pitches[0] = create.pitch
	if err := ioctl(c.fd, iowr(0xb8, unsafe.Sizeof(fb)), unsafe.Pointer(&fb)); err != nil {
		_ = buf.Destroy()
		return nil, fmt.Errorf("drm: addfb2 %dx%d: %w", width, height, err)
	}
	buf.fb = fb.fbID
	return buf, nil
}

// dumbBuffer is one kernel-allocated scanout buffer.
type dumbBuffer struct {
	card   *Card
	handle uint32
	fb     uint32
	pitch  int
	size   uint64
	pixels []byte
	prime  int
}

func (b *dumbBuffer) Framebuffer() uint32 { return b.fb }

func (b *dumbBuffer) Stride() int { return b.pitch }

// Map exposes the buffer through the node's mmap offset space. The mapping
// is cached for the buffer's lifetime.
func (b *dumbBuffer) Map() ([]byte, error) {
	if b.pixels != nil {
		return b.pixels, nil
	}
	arg := modeMapDumb{handle: b.handle}
	if err := ioctl(b.card.fd, iowr(0xb3, unsafe.Sizeof(arg)), unsafe.Pointer(&arg)); err != nil {
		return nil, fmt.Errorf("drm: map dumb: %w", err)
	}
	pixels, err := unix.Mmap(b.card.fd, int64(arg.offset), int(b.size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("drm: mmap dumb: %w", err)
	}
	b.pixels = pixels
	return pixels, nil
}

// Export hands out a dmabuf fd for the buffer. The fd is cached; callers
// share it for the buffer's lifetime.
func (b *dumbBuffer) Export() (int, error) {
	if b.prime > 0 {
		return b.prime, nil
	}
	arg := primeHandle{handle: b.handle, flags: unix.O_CLOEXEC | unix.O_RDWR}
	if err := ioctl(b.card.fd, iowr(0x2d, unsafe.Sizeof(arg)), unsafe.Pointer(&arg)); err != nil {
		return -1, fmt.Errorf("drm: prime export: %w", err)
	}
	b.prime = int(arg.fd)
	return b.prime, nil
}

func (b *dumbBuffer) Destroy() error {
	if b.pixels != nil {
		_ = unix.Munmap(b.pixels)
		b.pixels = nil
	}
	if b.prime > 0 {
		_ = unix.Close(b.prime)
		b.prime = 0
	}
	if b.fb != 0 {
		rm := modeFBCmdRm{fbID: b.fb}
		_ = ioctl(b.card.fd, iowr(0xaf, unsafe.Sizeof(rm)), unsafe.Pointer(&rm))
		b.fb = 0
	}
	destroy := modeDestroyDumb{handle: b.handle}
	if err := ioctl(b.card.fd, iowr(0xb4, unsafe.Sizeof(destroy)), unsafe.Pointer(&destroy)); err != nil {
		return fmt.Errorf("drm: destroy dumb: %w", err)
	}
	return nil
}
