// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: compositor/dispatch.go
// Summary: Adapts the protocol library's readiness channel into a loop source.

package compositor

import (
	"github.com/lumenwm/lumen/protocol"
	"github.com/lumenwm/lumen/reactor"
)

// dispatchReady marks one readiness signal; the handler calls Dispatch once
// per drained event.
type dispatchReady struct{}

type dispatchSource struct {
	*reactor.Queue
	done chan struct{}
}

func newDispatchSource(display protocol.Display) *dispatchSource {
	src := &dispatchSource{
		Queue: reactor.NewQueue("protocol", nil),
		done:  make(chan struct{}),
	}
	go src.pump(display.Readiness())
	return src
}

func (s *dispatchSource) pump(ready <-chan struct{}) {
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-ready:
			if !ok {
				return
			}
			s.Push(dispatchReady{})
		}
	}
}

func (s *dispatchSource) Close() error {
	close(s.done)
	return s.Queue.Close()
}
