package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/lumenwm/lumen/protocol"
)

var (
	ErrClientNotFound = errors.New("server: client not found")
)

// Client is one connected protocol peer. Owned by the Registry; protocol
// object handlers reference it but never outlive it.
type Client struct {
	id       [16]byte
	conn     net.Conn
	handle   protocol.ClientHandle
	security *protocol.SecurityContext
}

func (c *Client) ID() [16]byte { return c.id }

// Security returns the client's capability token; the zero value marks an
// ordinary unsandboxed client.
func (c *Client) Security() protocol.SecurityContext {
	if c.security == nil {
		return protocol.SecurityContext{}
	}
	return *c.security
}

// Registry tracks connected clients and hands their connections to the
// delegated protocol library. All methods run on the reactor goroutine.
type Registry struct {
	display protocol.Display
	clients map[[16]byte]*Client
	log     *logrus.Entry
}

func NewRegistry(display protocol.Display, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{
		display: display,
		clients: make(map[[16]byte]*Client),
		log:     log,
	}
}

// Accept wraps a raw incoming connection in a Client record with an empty
// capability token and inserts it into the protocol display.
func (r *Registry) Accept(conn net.Conn) (*Client, error) {
	var id [16]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, fmt.Errorf("server: client id: %w", err)
	}
	handle, err := r.display.InsertClient(conn, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("server: insert client: %w", err)
	}
	client := &Client{id: id, conn: conn, handle: handle}
	r.clients[id] = client
	r.log.WithField("client", fmt.Sprintf("%x", id[:4])).Info("client connected")
	return client, nil
}

// OnDisconnect removes the client; the protocol library releases every
// object it owned. A client failure never touches the frame loop.
func (r *Registry) OnDisconnect(client *Client) {
	if _, ok := r.clients[client.id]; !ok {
		return
	}
	delete(r.clients, client.id)
	if client.handle != nil {
		client.handle.Destroy()
	}
	_ = client.conn.Close()
	r.log.WithField("client", fmt.Sprintf("%x", client.id[:4])).Info("client disconnected")
}

// Lookup finds a client by id.
func (r *Registry) Lookup(id [16]byte) (*Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// ActiveClients reports how many clients are connected.
func (r *Registry) ActiveClients() int {
	return len(r.clients)
}

// Close disconnects every client.
func (r *Registry) Close() {
	for _, client := range r.clients {
		r.OnDisconnect(client)
	}
}
