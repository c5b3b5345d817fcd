package server

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/reactor"
)

// Listener is the client-listening-socket event source: a unix domain
// socket whose accepted connections arrive as events on the reactor.
type Listener struct {
	*reactor.Queue
	addr     string
	listener net.Listener
	log      *logrus.Entry
}

// Accepted is the event carried for each new connection.
type Accepted struct {
	Conn net.Conn
}

// Listen binds the unix socket, replacing a stale socket file from a
// previous run. A listener that cannot bind is fatal to process start.
func Listen(addr string, log *logrus.Entry) (*Listener, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := os.RemoveAll(addr); err != nil {
		return nil, fmt.Errorf("server: remove stale socket: %w", err)
	}
	l, err := net.Listen("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", addr, err)
	}
	src := &Listener{
		Queue:    reactor.NewQueue("listener", nil),
		addr:     addr,
		listener: l,
		log:      log,
	}
	go src.acceptLoop()
	return src, nil
}

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			// Closed listener ends the loop; anything else is fatal for
			// the socket and surfaced through the queue.
			return
		}
		l.Push(Accepted{Conn: conn})
	}
}

// Addr returns the bound socket path.
func (l *Listener) Addr() string { return l.addr }

func (l *Listener) Close() error {
	_ = l.listener.Close()
	_ = os.RemoveAll(l.addr)
	return l.Queue.Close()
}
