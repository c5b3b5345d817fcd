package protocol

import "net"

// NopDisplay discards everything. It stands in for the delegated library in
// tests and in the simulation backend, where no real protocol clients exist.
type NopDisplay struct {
	ready    chan struct{}
	handles  int
	dispatch int
	flushes  int
}

func NewNopDisplay() *NopDisplay {
	return &NopDisplay{ready: make(chan struct{}, 1)}
}

func (d *NopDisplay) InsertClient(net.Conn, *SecurityContext) (ClientHandle, error) {
	d.handles++
	return nopHandle{}, nil
}

func (d *NopDisplay) Dispatch() error {
	d.dispatch++
	return nil
}

func (d *NopDisplay) Flush() error {
	d.flushes++
	return nil
}

func (d *NopDisplay) Surfaces() []Surface { return nil }

func (d *NopDisplay) Readiness() <-chan struct{} { return d.ready }

// Poke marks the dispatch socket ready. Test hook.
func (d *NopDisplay) Poke() {
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func (d *NopDisplay) FilterKey(KeyEvent) FilterResult { return Forward }

func (d *NopDisplay) Close() error { return nil }

// Dispatches reports how many Dispatch calls the display has seen.
func (d *NopDisplay) Dispatches() int { return d.dispatch }

// Flushes reports how many Flush calls the display has seen.
func (d *NopDisplay) Flushes() int { return d.flushes }

type nopHandle struct{}

func (nopHandle) Destroy() {}
