package registry

import (
	"testing"

	"github.com/lumenwm/lumen/render"
)

type stubEngine struct{ name string }

func (e *stubEngine) Name() string               { return e.name }
func (e *stubEngine) Update(render.Target) error { return nil }

func TestRegisterAndNew(t *testing.T) {
	Register("stub", func() render.Engine { return &stubEngine{name: "stub"} })

	engine, err := New("stub")
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if engine.Name() != "stub" {
		t.Fatalf("engine name = %q", engine.Name())
	}

	if _, err := New("missing"); err == nil {
		t.Fatalf("unknown engine resolved")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	Register("dup", func() render.Engine { return &stubEngine{name: "dup"} })
	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate registration did not panic")
		}
	}()
	Register("dup", func() render.Engine { return &stubEngine{name: "dup"} })
}
