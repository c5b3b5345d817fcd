package input

import (
	"testing"

	"github.com/lumenwm/lumen/protocol"
)

type filterDisplay struct {
	*protocol.NopDisplay
	consume map[string]bool
	seen    []protocol.KeyEvent
}

func newFilterDisplay(consume ...string) *filterDisplay {
	d := &filterDisplay{NopDisplay: protocol.NewNopDisplay(), consume: map[string]bool{}}
	for _, sym := range consume {
		d.consume[sym] = true
	}
	return d
}

func (d *filterDisplay) FilterKey(ev protocol.KeyEvent) protocol.FilterResult {
	d.seen = append(d.seen, ev)
	if d.consume[ev.Sym] {
		return protocol.Consume
	}
	return protocol.Forward
}

func press(code uint16) KeyboardEvent   { return KeyboardEvent{Code: code, Pressed: true} }
func release(code uint16) KeyboardEvent { return KeyboardEvent{Code: code, Pressed: false} }

func TestModifierMaskTracking(t *testing.T) {
	tr := NewTranslator(newFilterDisplay(), Options{}, nil)

	tr.OnRawEvent(press(KeyLeftShift))
	if tr.State().Modifiers&ModShift == 0 {
		t.Fatalf("shift press not tracked")
	}

	var got []protocol.KeyEvent
	tr2 := NewTranslator(newFilterDisplay(), Options{
		Sink: func(ev protocol.KeyEvent) { got = append(got, ev) },
	}, nil)
	tr2.OnRawEvent(press(KeyLeftShift))
	tr2.OnRawEvent(press(30)) // 'a'
	tr2.OnRawEvent(release(KeyLeftShift))
	tr2.OnRawEvent(press(30))

	if len(got) != 2 {
		t.Fatalf("forwarded %d keys, want 2", len(got))
	}
	if got[0].Sym != "A" || got[1].Sym != "a" {
		t.Fatalf("shift filtering wrong: %q then %q", got[0].Sym, got[1].Sym)
	}
}

func TestReservedKeyRequestsShutdown(t *testing.T) {
	shutdowns := 0
	var forwarded []protocol.KeyEvent
	tr := NewTranslator(newFilterDisplay(), Options{
		Shutdown: func() { shutdowns++ },
		Sink:     func(ev protocol.KeyEvent) { forwarded = append(forwarded, ev) },
	}, nil)

	tr.OnRawEvent(press(KeyEsc))
	if shutdowns != 1 {
		t.Fatalf("shutdown requested %d times", shutdowns)
	}
	if len(forwarded) != 0 {
		t.Fatalf("reserved key was forwarded")
	}

	// Release and autorepeat of the reserved key do not re-trigger.
	tr.OnRawEvent(release(KeyEsc))
	tr.OnRawEvent(KeyboardEvent{Code: KeyEsc, Pressed: true, Repeat: true})
	if shutdowns != 1 {
		t.Fatalf("shutdown re-triggered: %d", shutdowns)
	}
}

func TestCustomReservedKey(t *testing.T) {
	shutdowns := 0
	tr := NewTranslator(newFilterDisplay(), Options{
		ReservedKey: 16, // 'q'
		Shutdown:    func() { shutdowns++ },
	}, nil)

	tr.OnRawEvent(press(KeyEsc))
	if shutdowns != 0 {
		t.Fatalf("default key triggered with custom reserved key set")
	}
	tr.OnRawEvent(press(16))
	if shutdowns != 1 {
		t.Fatalf("custom reserved key ignored")
	}
}

func TestProtocolFilterConsumesShortcuts(t *testing.T) {
	display := newFilterDisplay("Return")
	var forwarded []protocol.KeyEvent
	tr := NewTranslator(display, Options{
		Sink: func(ev protocol.KeyEvent) { forwarded = append(forwarded, ev) },
	}, nil)

	tr.OnRawEvent(press(KeyEnter))
	tr.OnRawEvent(press(KeySpace))

	if len(forwarded) != 1 || forwarded[0].Sym != "space" {
		t.Fatalf("filter routing wrong: %+v", forwarded)
	}
	f, c := tr.Stats()
	if f != 1 || c != 1 {
		t.Fatalf("stats = %d forwarded / %d consumed", f, c)
	}
}

func TestUnmappedKeycodeDropped(t *testing.T) {
	var forwarded []protocol.KeyEvent
	tr := NewTranslator(newFilterDisplay(), Options{
		Sink: func(ev protocol.KeyEvent) { forwarded = append(forwarded, ev) },
	}, nil)

	tr.OnRawEvent(press(240)) // KEY_UNKNOWN territory
	if len(forwarded) != 0 {
		t.Fatalf("unmapped keycode forwarded: %+v", forwarded)
	}
}

func TestPointerEventsAcknowledged(t *testing.T) {
	tr := NewTranslator(newFilterDisplay(), Options{}, nil)
	// Must not panic or disturb keyboard state.
	tr.OnRawEvent(PointerEvent{DX: 3, DY: -1})
	if tr.State().Modifiers != 0 {
		t.Fatalf("pointer event mutated modifier state")
	}
}

func TestSessionEventsReachHook(t *testing.T) {
	var seen []SessionEvent
	tr := NewTranslator(newFilterDisplay(), Options{
		OnSession: func(ev SessionEvent) { seen = append(seen, ev) },
	}, nil)

	tr.OnRawEvent(SessionEvent{Active: false})
	tr.OnRawEvent(SessionEvent{Active: true})

	if len(seen) != 2 || seen[0].Active || !seen[1].Active {
		t.Fatalf("session hook saw %+v", seen)
	}
}
