// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: drm/events.go
// Summary: Display-subsystem notifier: decodes vblank/page-flip completion
//          events from the card fd into the reactor.

package drm

import (
	"encoding/binary"
	"time"

	"github.com/lumenwm/lumen/output"
	"github.com/lumenwm/lumen/reactor"
)

const (
	eventVBlank       = 0x01
	eventFlipComplete = 0x02

	eventHeaderSize = 8
	vblankBodySize  = 24
)

// ErrorEvent reports a device-level error surfaced through the event stream.
type ErrorEvent struct {
	Err error
}

// EventSource reads the card fd and pushes output.CompletionEvent values
// (and ErrorEvent on read failure) into its queue.
type EventSource struct {
	*reactor.Queue
	card *Card
	done chan struct{}
}

// Events opens the card's notifier source. Reading runs on a pump goroutine;
// the reactor drains decoded events in arrival order.
func (c *Card) Events() *EventSource {
	src := &EventSource{
		Queue: reactor.NewQueue("drm", nil),
		card:  c,
		done:  make(chan struct{}),
	}
	go src.pump()
	return src
}

func (s *EventSource) pump() {
	buf := make([]byte, 1024)
	for {
		n, err := s.card.file.Read(buf)
		if err != nil {
			select {
			case <-s.done:
			default:
				s.Push(ErrorEvent{Err: err})
			}
			return
		}
		for _, ev := range decodeEvents(buf[:n]) {
			s.Push(ev)
		}
	}
}

// decodeEvents walks a raw read of drm_event records. Unknown event types
// are skipped by their self-declared length.
func decodeEvents(raw []byte) []reactor.Event {
	var events []reactor.Event
	for len(raw) >= eventHeaderSize {
		typ := binary.LittleEndian.Uint32(raw[0:4])
		length := int(binary.LittleEndian.Uint32(raw[4:8]))
		if length < eventHeaderSize || length > len(raw) {
			break
		}
		if (typ == eventFlipComplete || typ == eventVBlank) && length >= eventHeaderSize+vblankBodySize {
			body := raw[eventHeaderSize:length]
			events = append(events, output.CompletionEvent{
				Cookie:   binary.LittleEndian.Uint64(body[0:8]),
				Sequence: binary.LittleEndian.Uint32(body[16:20]),
				CRTC:     binary.LittleEndian.Uint32(body[20:24]),
			})
		}
		raw = raw[length:]
	}
	return events
}

func (s *EventSource) Close() error {
	close(s.done)
	return s.Queue.Close()
}

// Timestamp converts a drm event's seconds/microseconds pair.
func Timestamp(sec, usec uint32) time.Time {
	return time.Unix(int64(sec), int64(usec)*int64(time.Microsecond))
}
