// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: output/swapchain.go
// Summary: Fixed-slot swapchain with single-owner state transitions.
// Notes: The state machine here is the only mutator of slot state; buffers
//        are never handed around as freely aliasable references.

package output

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFreeSlot reports that every slot is outstanding: the consumer
	// is not keeping pace with presentation.
	ErrNoFreeSlot = errors.New("output: no free swapchain slot")

	// ErrBadTransition reports a slot operation outside the state machine.
	ErrBadTransition = errors.New("output: invalid slot transition")
)

// SlotState tracks who owns a swapchain slot right now.
type SlotState int

const (
	// SlotFree — unowned, ready to become writable.
	SlotFree SlotState = iota
	// SlotWritable — owned by the frame bridge for this tick.
	SlotWritable
	// SlotQueued — committed, waiting for the flip to complete.
	SlotQueued
	// SlotPresented — on glass; freed when the next flip lands.
	SlotPresented
)

func (s SlotState) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotWritable:
		return "writable"
	case SlotQueued:
		return "queued"
	case SlotPresented:
		return "presented"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Slot is one buffer in the swapchain pool.
type Slot struct {
	index  int
	state  SlotState
	buf    Buffer
	cookie uint64
}

func (s *Slot) Index() int       { return s.index }
func (s *Slot) State() SlotState { return s.state }
func (s *Slot) Buffer() Buffer   { return s.buf }

// Swapchain owns a small fixed pool of scanout buffers cycling through
// free → writable → queued → presented.
type Swapchain struct {
	slots      []*Slot
	nextCookie uint64
}

// NewSwapchain allocates depth buffers of the given size from the allocator.
func NewSwapchain(alloc Allocator, depth, width, height int) (*Swapchain, error) {
	if depth < 2 {
		return nil, fmt.Errorf("output: swapchain depth %d, need at least 2", depth)
	}
	sc := &Swapchain{}
	for i := 0; i < depth; i++ {
		buf, err := alloc.Allocate(width, height)
		if err != nil {
			sc.Destroy()
			return nil, fmt.Errorf("output: allocate slot %d: %w", i, err)
		}
		sc.slots = append(sc.slots, &Slot{index: i, buf: buf})
	}
	return sc, nil
}

// Acquire returns the next free slot as writable. With every slot
// outstanding it fails with ErrNoFreeSlot and mutates nothing.
func (sc *Swapchain) Acquire() (*Slot, error) {
	for _, slot := range sc.slots {
		if slot.state == SlotWritable {
			return nil, fmt.Errorf("%w: slot %d already writable", ErrBadTransition, slot.index)
		}
	}
	for _, slot := range sc.slots {
		if slot.state == SlotFree {
			slot.state = SlotWritable
			return slot, nil
		}
	}
	return nil, ErrNoFreeSlot
}

// Queue transitions a writable slot to queued and assigns its completion
// cookie.
func (sc *Swapchain) Queue(slot *Slot) (uint64, error) {
	if slot.state != SlotWritable {
		return 0, fmt.Errorf("%w: queue from %s", ErrBadTransition, slot.state)
	}
	sc.nextCookie++
	slot.cookie = sc.nextCookie
	slot.state = SlotQueued
	return slot.cookie, nil
}

// Release returns a writable slot to free without presenting it. Used when
// the tick is skipped (import failure) or the commit was rejected.
func (sc *Swapchain) Release(slot *Slot) error {
	if slot.state != SlotWritable && slot.state != SlotQueued {
		return fmt.Errorf("%w: release from %s", ErrBadTransition, slot.state)
	}
	slot.state = SlotFree
	slot.cookie = 0
	return nil
}

// Complete handles a presentation completion: the queued slot matching the
// cookie becomes presented and the previously presented slot returns to
// free. An unknown cookie is ignored (stale event after device reset).
func (sc *Swapchain) Complete(cookie uint64) *Slot {
	var flipped *Slot
	for _, slot := range sc.slots {
		if slot.state == SlotQueued && slot.cookie == cookie {
			flipped = slot
			break
		}
	}
	if flipped == nil {
		return nil
	}
	for _, slot := range sc.slots {
		if slot.state == SlotPresented {
			slot.state = SlotFree
			slot.cookie = 0
		}
	}
	flipped.state = SlotPresented
	return flipped
}

// Presented returns the slot currently on glass, if any.
func (sc *Swapchain) Presented() *Slot {
	for _, slot := range sc.slots {
		if slot.state == SlotPresented {
			return slot
		}
	}
	return nil
}

// Depth returns the pool size.
func (sc *Swapchain) Depth() int { return len(sc.slots) }

// Destroy releases every buffer in the pool.
func (sc *Swapchain) Destroy() {
	for _, slot := range sc.slots {
		if slot.buf != nil {
			_ = slot.buf.Destroy()
		}
	}
	sc.slots = nil
}
