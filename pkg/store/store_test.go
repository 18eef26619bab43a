package store

import (
	"path/filepath"
	"testing"
)

func TestReplaceAndGet(t *testing.T) {
	s := New()
	if err := s.MutateState("user", map[string]interface{}{"id": 1}, false); err != nil {
		t.Fatalf("MutateState: %v", err)
	}

	got, ok := s.Get("user").(map[string]interface{})
	if !ok || got["id"] != 1 {
		t.Fatalf("got %v", s.Get("user"))
	}
}

func TestShallowMerge(t *testing.T) {
	s := New()
	if err := s.MutateState("settings", map[string]interface{}{"theme": "dark", "lang": "en"}, false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.MutateState("settings", map[string]interface{}{"lang": "fr"}, true); err != nil {
		t.Fatalf("merge: %v", err)
	}

	got := s.Get("settings").(map[string]interface{})
	if got["theme"] != "dark" || got["lang"] != "fr" {
		t.Fatalf("bad merge result: %v", got)
	}
}

func TestNilDataClears(t *testing.T) {
	s := New()
	if err := s.MutateState("user", map[string]interface{}{"id": 1}, false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// merge flag must not matter for a clear
	if err := s.MutateState("user", nil, true); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Get("user") != nil {
		t.Fatalf("expected cleared slot, got %v", s.Get("user"))
	}
}

func TestMergeOverNonObjectReplaces(t *testing.T) {
	s := New()
	if err := s.MutateState("cache", "plain-string", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.MutateState("cache", map[string]interface{}{"k": "v"}, true); err != nil {
		t.Fatalf("merge: %v", err)
	}
	got, ok := s.Get("cache").(map[string]interface{})
	if !ok || got["k"] != "v" {
		t.Fatalf("merge over scalar should replace, got %v", s.Get("cache"))
	}
}

func TestUnknownKindIsNoOp(t *testing.T) {
	var warned string
	s := New(WithUnknownKindFunc(func(dt string) { warned = dt }))

	if err := s.MutateState("hologram", map[string]interface{}{"x": 1}, false); err != nil {
		t.Fatalf("unknown kind must not error: %v", err)
	}
	if warned != "hologram" {
		t.Fatalf("hook not invoked, warned=%q", warned)
	}
	if s.Get("hologram") != nil {
		t.Fatal("unknown kind must not be stored")
	}
}

func TestRegisterKind(t *testing.T) {
	s := New()
	s.RegisterKind("inbox")
	if err := s.MutateState("inbox", map[string]interface{}{"unread": 2}, false); err != nil {
		t.Fatalf("MutateState: %v", err)
	}
	if s.Get("inbox") == nil {
		t.Fatal("registered kind should be stored")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "store.json")

	s := New(WithSnapshot(path))
	if err := s.MutateState("user", map[string]interface{}{"name": "alice"}, false); err != nil {
		t.Fatalf("MutateState: %v", err)
	}

	reloaded := New(WithSnapshot(path))
	got, ok := reloaded.Get("user").(map[string]interface{})
	if !ok || got["name"] != "alice" {
		t.Fatalf("snapshot not reloaded: %v", reloaded.Get("user"))
	}
}
