package protocol

import (
	"net"
	"time"
)

// Display is the seam to the delegated display-protocol library. The runtime
// owns none of the wire format; it forwards socket readiness to Dispatch,
// flushes after each frame tick, and hands new connections to InsertClient.
type Display interface {
	// InsertClient wraps an accepted connection in protocol-library client
	// state. The security context may be nil for unsandboxed clients.
	InsertClient(conn net.Conn, security *SecurityContext) (ClientHandle, error)

	// Dispatch processes pending client requests. Called from the reactor
	// goroutine whenever the dispatch socket reports readiness.
	Dispatch() error

	// Flush pushes queued outgoing events to all clients.
	Flush() error

	// Surfaces enumerates the mapped surfaces that expect frame callbacks.
	Surfaces() []Surface

	// Readiness signals that Dispatch has work to do.
	Readiness() <-chan struct{}

	// FilterKey runs the library's focus filtering. A consumed key was a
	// protocol-level shortcut and must not be forwarded.
	FilterKey(ev KeyEvent) FilterResult

	Close() error
}

// ClientHandle is the protocol library's view of one connected client.
type ClientHandle interface {
	// Destroy releases every protocol object owned by the client.
	Destroy()
}

// Surface is a mapped client surface, opaque beyond frame-callback delivery.
type Surface interface {
	SendFrameCallback(at time.Time)
}

// SecurityContext is the capability token attached to a sandboxed client.
// The zero value denotes an ordinary, unrestricted client.
type SecurityContext struct {
	AppID      string
	InstanceID string
	Sandboxed  bool
}

// KeyEvent is the portable key description handed to focus filtering.
type KeyEvent struct {
	Code      uint32
	Sym       string
	Modifiers uint8
	Pressed   bool
	Time      time.Time
}

// FilterResult reports how focus filtering disposed of a key.
type FilterResult int

const (
	// Forward delivers the key to the focused client or application sink.
	Forward FilterResult = iota
	// Consume swallows the key; it was handled as a protocol shortcut.
	Consume
)
