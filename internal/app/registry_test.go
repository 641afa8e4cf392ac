package app

import (
	"errors"
	"testing"

	"github.com/dmaslov/pairdesk/internal/core"
	"github.com/dmaslov/pairdesk/internal/domain"
)

func TestRegistry_BindOverwrites(t *testing.T) {
	reg := NewRegistry()
	s1 := &fakeSink{}
	s2 := &fakeSink{}
	if err := reg.Register("c1", s1); err != nil {
		t.Fatalf("Register(c1) error = %v", err)
	}
	if err := reg.Register("c2", s2); err != nil {
		t.Fatalf("Register(c2) error = %v", err)
	}

	uid := domain.UserID("u1")
	if prev, had := reg.Bind(uid, "c1"); had {
		t.Errorf("first Bind reported previous binding %q", prev)
	}
	prev, had := reg.Bind(uid, "c2")
	if !had || prev != "c1" {
		t.Errorf("Bind returned (%q, %v), want (c1, true)", prev, had)
	}

	got, ok := reg.Lookup(uid)
	if !ok || got != "c2" {
		t.Errorf("Lookup(%q) = (%q, %v), want (c2, true)", uid, got, ok)
	}
	// The displaced connection hears nothing about it.
	if s1.count() != 0 {
		t.Errorf("displaced connection received %d frames, want 0", s1.count())
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("c1", &fakeSink{}); err != nil {
		t.Fatalf("Register error = %v", err)
	}
	if err := reg.Register("c1", &fakeSink{}); !errors.Is(err, ErrConnExists) {
		t.Errorf("second Register error = %v, want ErrConnExists", err)
	}
}

func TestRegistry_UnregisterClearsPresence(t *testing.T) {
	reg := NewRegistry()
	sink := &fakeSink{}
	if err := reg.Register("c1", sink); err != nil {
		t.Fatalf("Register error = %v", err)
	}
	reg.Bind("u1", "c1")
	reg.Bind("u2", "c1")

	reg.Unregister("c1")

	for _, uid := range []domain.UserID{"u1", "u2"} {
		if _, ok := reg.Lookup(uid); ok {
			t.Errorf("Lookup(%q) still resolves after Unregister", uid)
		}
	}
	// Sends against the dead id are swallowed.
	reg.Send("c1", core.Frame(`{}`))
	if sink.count() != 0 {
		t.Errorf("unregistered sink received %d frames, want 0", sink.count())
	}
}

func TestRegistry_SendFailureSwallowed(t *testing.T) {
	reg := NewRegistry()
	sink := &fakeSink{fail: true}
	if err := reg.Register("c1", sink); err != nil {
		t.Fatalf("Register error = %v", err)
	}
	reg.Bind("u1", "c1")

	// Neither a failing sink nor a missing one may panic or surface.
	reg.SendToUser("u1", core.Frame(`{}`))
	reg.SendToUser("nobody", core.Frame(`{}`))
	reg.Send("missing", core.Frame(`{}`))
}
