package players

import (
	"errors"
	"testing"

	"tournament-core/internal/ids"
	"tournament-core/internal/player"
)

func TestRegisterNewPlayer(t *testing.T) {
	r := NewRegistry()
	id := ids.NewPlayerID()

	got, err := r.Register(id, "Alex")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got != id {
		t.Fatalf("expected Register to return the id it was given")
	}
	if r.Len() != 1 {
		t.Fatalf("expected one registered player, got %d", r.Len())
	}
}

func TestRegisterNameCollisionWithDifferentID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(ids.NewPlayerID(), "Alex"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := r.Register(ids.NewPlayerID(), "Alex")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered for a colliding name, got %v", err)
	}
}

// TestReRegisterResetsDroppedStatus exercises the supplemented re-registration
// behavior: registering an already-known id/name pair again resets a dropped
// player back to Registered rather than erroring.
func TestReRegisterResetsDroppedStatus(t *testing.T) {
	r := NewRegistry()
	id := ids.NewPlayerID()
	if _, err := r.Register(id, "Alex"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Drop(id); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != player.StatusDropped {
		t.Fatalf("expected player to be dropped before re-registration")
	}

	if _, err := r.Register(id, "Alex"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if got.Status != player.StatusRegistered {
		t.Fatalf("expected re-registration to reset status to Registered, got %s", got.Status)
	}
}

func TestAddGuestIsDeterministicPerSalt(t *testing.T) {
	r := NewRegistry()
	salt := ids.Salt(42)

	first, err := r.AddGuest(salt, "Guest One")
	if err != nil {
		t.Fatalf("AddGuest: %v", err)
	}
	second, err := r.AddGuest(salt, "Guest One")
	if err != nil {
		t.Fatalf("AddGuest (re-add, same name resets status): %v", err)
	}
	if first != second {
		t.Fatalf("expected the same salt+name to derive the same guest id")
	}
}

func TestGetByNameAndNotFound(t *testing.T) {
	r := NewRegistry()
	id := ids.NewPlayerID()
	if _, err := r.Register(id, "Alex"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := r.GetByName("Alex")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if p.ID != id {
		t.Fatalf("GetByName returned the wrong player")
	}

	if _, err := r.GetByName("Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown name, got %v", err)
	}
}

func TestActiveCount(t *testing.T) {
	r := NewRegistry()
	a := ids.NewPlayerID()
	b := ids.NewPlayerID()
	if _, err := r.Register(a, "Alex"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Register(b, "Sam"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Drop(b); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if got := r.ActiveCount(); got != 1 {
		t.Fatalf("expected one active player after dropping one of two, got %d", got)
	}
	if r.Len() != 2 {
		t.Fatalf("dropping a player should not remove it from the registry, got len %d", r.Len())
	}
}
