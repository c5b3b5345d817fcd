package reactor

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPacerNotDueBeforeInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newPacer(10*time.Millisecond, clock.now)

	clock.advance(9 * time.Millisecond)
	if p.Due() {
		t.Fatalf("tick granted before interval elapsed")
	}
	clock.advance(1 * time.Millisecond)
	if !p.Due() {
		t.Fatalf("tick not granted at interval")
	}
}

func TestPacerSingleTickAfterLongStall(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newPacer(10*time.Millisecond, clock.now)

	// Five intervals pass while the loop is stalled: exactly one tick,
	// no catch-up batch.
	clock.advance(50 * time.Millisecond)
	if !p.Due() {
		t.Fatalf("tick not granted after stall")
	}
	if p.Due() {
		t.Fatalf("batched catch-up tick granted")
	}

	// The clock reset to the stall's end, so the next tick is a full
	// interval away.
	clock.advance(9 * time.Millisecond)
	if p.Due() {
		t.Fatalf("tick granted before a full interval after reset")
	}
	clock.advance(1 * time.Millisecond)
	if !p.Due() {
		t.Fatalf("steady-state tick not granted")
	}
}
