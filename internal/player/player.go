// Package player holds the player entity: identity, status, and decks.
package player

import "tournament-core/internal/ids"

// Status is a player's lifecycle state within one tournament.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusDropped    Status = "dropped"
)

// Deck is a single named, ordered deck submitted by a player.
type Deck struct {
	Name string
	Cards []string
}

// Player is one participant in a tournament.
type Player struct {
	ID       ids.PlayerID
	Name     string
	GamerTag string
	Status   Status
	Decks    []Deck
}

// New creates a freshly-registered player.
func New(id ids.PlayerID, name string) *Player {
	return &Player{ID: id, Name: name, Status: StatusRegistered}
}

// CanPlay reports whether the player may appear in newly created rounds.
func (p *Player) CanPlay() bool { return p.Status == StatusRegistered }

// AddDeck appends a named deck, or replaces one with the same name.
func (p *Player) AddDeck(d Deck) {
	for i := range p.Decks {
		if p.Decks[i].Name == d.Name {
			p.Decks[i] = d
			return
		}
	}
	p.Decks = append(p.Decks, d)
}

// RemoveDeck removes the named deck, reporting whether it was present.
func (p *Player) RemoveDeck(name string) bool {
	for i := range p.Decks {
		if p.Decks[i].Name == name {
			p.Decks = append(p.Decks[:i], p.Decks[i+1:]...)
			return true
		}
	}
	return false
}
