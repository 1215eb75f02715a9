package player

import (
	"testing"

	"tournament-core/internal/ids"
)

func TestNewPlayerIsRegisteredAndCanPlay(t *testing.T) {
	p := New(ids.NewPlayerID(), "Alex")
	if p.Status != StatusRegistered {
		t.Fatalf("expected a new player to be Registered, got %s", p.Status)
	}
	if !p.CanPlay() {
		t.Fatalf("a freshly registered player should be able to play")
	}
}

func TestDroppedPlayerCannotPlay(t *testing.T) {
	p := New(ids.NewPlayerID(), "Alex")
	p.Status = StatusDropped
	if p.CanPlay() {
		t.Fatalf("a dropped player should not be able to play")
	}
}

func TestAddDeckReplacesSameName(t *testing.T) {
	p := New(ids.NewPlayerID(), "Alex")
	p.AddDeck(Deck{Name: "Main", Cards: []string{"a", "b"}})
	p.AddDeck(Deck{Name: "Main", Cards: []string{"c"}})

	if len(p.Decks) != 1 {
		t.Fatalf("expected one deck after replacing by name, got %d", len(p.Decks))
	}
	if len(p.Decks[0].Cards) != 1 || p.Decks[0].Cards[0] != "c" {
		t.Fatalf("expected the replacement deck's cards, got %v", p.Decks[0].Cards)
	}
}

func TestAddDeckAppendsDifferentName(t *testing.T) {
	p := New(ids.NewPlayerID(), "Alex")
	p.AddDeck(Deck{Name: "Main"})
	p.AddDeck(Deck{Name: "Sideboard"})

	if len(p.Decks) != 2 {
		t.Fatalf("expected two distinct decks, got %d", len(p.Decks))
	}
}

func TestRemoveDeck(t *testing.T) {
	p := New(ids.NewPlayerID(), "Alex")
	p.AddDeck(Deck{Name: "Main"})

	if !p.RemoveDeck("Main") {
		t.Fatalf("expected RemoveDeck to report success for an existing deck")
	}
	if len(p.Decks) != 0 {
		t.Fatalf("expected no decks remaining after removal")
	}
	if p.RemoveDeck("Main") {
		t.Fatalf("removing an already-removed deck should report failure")
	}
}
