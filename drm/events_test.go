package drm

import (
	"encoding/binary"
	"testing"

	"github.com/lumenwm/lumen/output"
)

func flipEvent(cookie uint64, sequence, crtc uint32) []byte {
	raw := make([]byte, 32)
	binary.LittleEndian.PutUint32(raw[0:4], eventFlipComplete)
	binary.LittleEndian.PutUint32(raw[4:8], 32)
	binary.LittleEndian.PutUint64(raw[8:16], cookie)
	binary.LittleEndian.PutUint32(raw[16:20], 12345) // tv_sec
	binary.LittleEndian.PutUint32(raw[20:24], 678)   // tv_usec
	binary.LittleEndian.PutUint32(raw[24:28], sequence)
	binary.LittleEndian.PutUint32(raw[28:32], crtc)
	return raw
}

func TestDecodeSingleFlipEvent(t *testing.T) {
	events := decodeEvents(flipEvent(7, 141, 5))
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	ev, ok := events[0].(output.CompletionEvent)
	if !ok {
		t.Fatalf("decoded %T, want CompletionEvent", events[0])
	}
	if ev.Cookie != 7 || ev.Sequence != 141 || ev.CRTC != 5 {
		t.Fatalf("decoded %+v", ev)
	}
}

func TestDecodeBatchedEventsKeepOrder(t *testing.T) {
	raw := append(flipEvent(1, 100, 5), flipEvent(2, 101, 5)...)
	events := decodeEvents(raw)
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	first := events[0].(output.CompletionEvent)
	second := events[1].(output.CompletionEvent)
	if first.Cookie != 1 || second.Cookie != 2 {
		t.Fatalf("arrival order lost: %d then %d", first.Cookie, second.Cookie)
	}
}

func TestDecodeSkipsUnknownEventType(t *testing.T) {
	unknown := make([]byte, 16)
	binary.LittleEndian.PutUint32(unknown[0:4], 0x7f)
	binary.LittleEndian.PutUint32(unknown[4:8], 16)
	raw := append(unknown, flipEvent(9, 1, 5)...)

	events := decodeEvents(raw)
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	if events[0].(output.CompletionEvent).Cookie != 9 {
		t.Fatalf("wrong event survived the skip")
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	raw := flipEvent(3, 1, 5)[:12]
	if events := decodeEvents(raw); len(events) != 0 {
		t.Fatalf("truncated record decoded: %v", events)
	}

	// A length lying past the buffer must not panic.
	lying := make([]byte, 8)
	binary.LittleEndian.PutUint32(lying[0:4], eventVBlank)
	binary.LittleEndian.PutUint32(lying[4:8], 512)
	if events := decodeEvents(lying); len(events) != 0 {
		t.Fatalf("oversized record decoded: %v", events)
	}
}

func TestTimestamp(t *testing.T) {
	at := Timestamp(10, 500)
	if at.Unix() != 10 || at.Nanosecond() != 500*1000 {
		t.Fatalf("timestamp = %v", at)
	}
}
