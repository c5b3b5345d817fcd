// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: store/store_test.go
// Summary: Mode preference persistence tests.

package store

import (
	"path/filepath"
	"testing"

	"github.com/lumenwm/lumen/output"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "lumen.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRememberAndPreferred(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.Preferred("DP-1"); ok {
		t.Fatal("expected no preference for fresh store")
	}

	want := output.Mode{Width: 2560, Height: 1440, RefreshHz: 144}
	if err := s.Remember("DP-1", want); err != nil {
		t.Fatalf("remember: %v", err)
	}

	got, ok := s.Preferred("DP-1")
	if !ok {
		t.Fatal("expected a remembered mode")
	}
	if got.Width != want.Width || got.Height != want.Height || got.RefreshHz != want.RefreshHz {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRememberReplacesEarlierMode(t *testing.T) {
	s := openTestStore(t)

	if err := s.Remember("HDMI-A-1", output.Mode{Width: 1920, Height: 1080, RefreshHz: 60}); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if err := s.Remember("HDMI-A-1", output.Mode{Width: 1280, Height: 720, RefreshHz: 50}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	got, ok := s.Preferred("HDMI-A-1")
	if !ok || got.Width != 1280 || got.RefreshHz != 50 {
		t.Fatalf("expected the later mode, got %v ok=%v", got, ok)
	}
}

func TestPreferencesAreIndependentPerConnector(t *testing.T) {
	s := openTestStore(t)

	s.Remember("DP-1", output.Mode{Width: 3840, Height: 2160, RefreshHz: 60})
	s.Remember("DP-2", output.Mode{Width: 1920, Height: 1080, RefreshHz: 144})

	a, _ := s.Preferred("DP-1")
	b, _ := s.Preferred("DP-2")
	if a.Width == b.Width {
		t.Fatalf("connectors share a row: %v vs %v", a, b)
	}
}

func TestForget(t *testing.T) {
	s := openTestStore(t)

	s.Remember("DP-1", output.Mode{Width: 1920, Height: 1080, RefreshHz: 60})
	if err := s.Forget("DP-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, ok := s.Preferred("DP-1"); ok {
		t.Fatal("expected preference gone after forget")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Remember("eDP-1", output.Mode{Width: 2880, Height: 1800, RefreshHz: 90})
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok := s2.Preferred("eDP-1")
	if !ok || got.RefreshHz != 90 {
		t.Fatalf("preference lost across reopen: %v ok=%v", got, ok)
	}
}
