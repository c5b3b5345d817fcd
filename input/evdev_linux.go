// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: input/evdev_linux.go
// Summary: Evdev keyboard/pointer backend pumping raw events into a reactor
//          queue.

package input

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/reactor"
)

const (
	evKey = 0x01
	evRel = 0x02

	relX = 0x00
	relY = 0x01

	// struct input_event on 64-bit: two 8-byte timestamp words, then
	// type, code (u16 each) and value (s32).
	inputEventSize = 24
)

// EvdevSource reads raw events from every /dev/input/event* node. One reader
// goroutine per device pushes into a single FIFO queue, so arrival order is
// preserved per source as the multiplexer requires.
type EvdevSource struct {
	*reactor.Queue
	files []*os.File
	log   *logrus.Entry
}

// OpenEvdev opens all current input event nodes. Opening zero devices is a
// setup failure: a display server without input cannot be driven.
func OpenEvdev(log *logrus.Entry) (*EvdevSource, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("input: glob event nodes: %w", err)
	}
	src := &EvdevSource{Queue: reactor.NewQueue("evdev", nil), log: log}
	for _, path := range paths {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			log.WithError(err).WithField("device", path).Warn("input device skipped")
			continue
		}
		src.files = append(src.files, f)
	}
	if len(src.files) == 0 {
		return nil, fmt.Errorf("input: no readable input devices")
	}
	for _, f := range src.files {
		go src.pump(f)
	}
	return src, nil
}

func (s *EvdevSource) pump(f *os.File) {
	buf := make([]byte, inputEventSize*64)
	for {
		n, err := f.Read(buf)
		if err != nil {
			// Device gone (unplug or close); hot-plug notification covers
			// the rest.
			return
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			s.decode(buf[off:off+inputEventSize], f.Name())
		}
	}
}

func (s *EvdevSource) decode(raw []byte, device string) {
	sec := int64(binary.LittleEndian.Uint64(raw[0:8]))
	usec := int64(binary.LittleEndian.Uint64(raw[8:16]))
	typ := binary.LittleEndian.Uint16(raw[16:18])
	code := binary.LittleEndian.Uint16(raw[18:20])
	value := int32(binary.LittleEndian.Uint32(raw[20:24]))
	at := time.Unix(sec, usec*int64(time.Microsecond))

	switch typ {
	case evKey:
		if code >= 0x110 && code <= 0x117 { // BTN_MOUSE range
			s.Push(PointerEvent{Button: code, Pressed: value != 0, Time: at})
			return
		}
		s.Push(KeyboardEvent{
			Code:    code,
			Pressed: value != 0,
			Repeat:  value == 2,
			Time:    at,
			Device:  device,
		})
	case evRel:
		switch code {
		case relX:
			s.Push(PointerEvent{DX: float64(value), Time: at})
		case relY:
			s.Push(PointerEvent{DY: float64(value), Time: at})
		}
	}
}

// Close stops the source; reader goroutines exit on their next read error.
func (s *EvdevSource) Close() error {
	for _, f := range s.files {
		_ = f.Close()
	}
	s.files = nil
	return s.Queue.Close()
}
