package server

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/lumenwm/lumen/protocol"
)

type failingDisplay struct {
	*protocol.NopDisplay
	insertErr error
}

func (d *failingDisplay) InsertClient(conn net.Conn, sec *protocol.SecurityContext) (protocol.ClientHandle, error) {
	if d.insertErr != nil {
		return nil, d.insertErr
	}
	return d.NopDisplay.InsertClient(conn, sec)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(protocol.NewNopDisplay(), nil)

	ours, theirs := net.Pipe()
	defer theirs.Close()

	client, err := r.Accept(ours)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if r.ActiveClients() != 1 {
		t.Fatalf("expected 1 active client")
	}

	found, err := r.Lookup(client.ID())
	if err != nil || found != client {
		t.Fatalf("lookup returned %v, %v", found, err)
	}

	sec := client.Security()
	if sec.Sandboxed || sec.AppID != "" {
		t.Fatalf("new client has a non-empty capability token: %+v", sec)
	}

	r.OnDisconnect(client)
	if r.ActiveClients() != 0 {
		t.Fatalf("expected 0 active clients after disconnect")
	}
	if _, err := r.Lookup(client.ID()); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("lookup after disconnect: %v", err)
	}

	// Double disconnect is a no-op, not a panic.
	r.OnDisconnect(client)
}

func TestRegistryInsertFailureClosesConn(t *testing.T) {
	display := &failingDisplay{NopDisplay: protocol.NewNopDisplay(), insertErr: errors.New("refused")}
	r := NewRegistry(display, nil)

	ours, theirs := net.Pipe()
	defer theirs.Close()

	if _, err := r.Accept(ours); err == nil {
		t.Fatalf("accept succeeded despite protocol refusal")
	}
	if r.ActiveClients() != 0 {
		t.Fatalf("failed client left in registry")
	}
	if _, err := ours.Write([]byte("x")); err == nil {
		t.Fatalf("refused connection left open")
	}
}

func TestListenerAcceptsConnections(t *testing.T) {
	sock := t.TempDir() + "/lumen.sock"
	l, err := Listen(sock, nil)
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer l.Close()

	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !l.Pending() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	events := l.Drain()
	if len(events) != 1 {
		t.Fatalf("drained %d events, want 1 accepted connection", len(events))
	}
	accepted, ok := events[0].(Accepted)
	if !ok {
		t.Fatalf("event is %T", events[0])
	}
	_ = accepted.Conn.Close()
}
