// Package players implements the tournament's player registry: a
// bidirectional name<->id map plus lifecycle operations.
package players

import (
	"fmt"

	"tournament-core/internal/ids"
	"tournament-core/internal/player"
)

var (
	// ErrAlreadyRegistered is returned when a name collides with an
	// existing registration.
	ErrAlreadyRegistered = fmt.Errorf("player already registered")
	// ErrNotFound is returned when an id or name has no matching player.
	ErrNotFound = fmt.Errorf("player not found")
)

// Registry is the set of players in one tournament, keyed both by id and by
// name.
type Registry struct {
	byID   map[ids.PlayerID]*player.Player
	byName map[string]ids.PlayerID
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[ids.PlayerID]*player.Player),
		byName: make(map[string]ids.PlayerID),
	}
}

// Register adds a player under the given id and name. If the name is
// already registered to a *different* id, ErrAlreadyRegistered is returned.
// Re-registering the same id/name pair resets a Dropped player back to
// Registered rather than failing.
func (r *Registry) Register(id ids.PlayerID, name string) (ids.PlayerID, error) {
	if existing, ok := r.byName[name]; ok {
		if existing != id {
			return ids.PlayerID{}, ErrAlreadyRegistered
		}
		r.byID[existing].Status = player.StatusRegistered
		return existing, nil
	}
	p := player.New(id, name)
	r.byID[id] = p
	r.byName[name] = id
	return id, nil
}

// AddGuest registers a guest player whose id is derived from salt and name.
func (r *Registry) AddGuest(salt ids.Salt, name string) (ids.PlayerID, error) {
	return r.Register(ids.GuestPlayerID(salt, name), name)
}

// Drop marks a player Dropped. It is a logical removal: the player remains
// in the registry forever.
func (r *Registry) Drop(id ids.PlayerID) error {
	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = player.StatusDropped
	return nil
}

// Get returns the player with the given id.
func (r *Registry) Get(id ids.PlayerID) (*player.Player, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// GetByName looks a player up by their registered name.
func (r *Registry) GetByName(name string) (*player.Player, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byID[id], nil
}

// ActiveCount returns the number of players who can still play.
func (r *Registry) ActiveCount() int {
	n := 0
	for _, p := range r.byID {
		if p.CanPlay() {
			n++
		}
	}
	return n
}

// All returns every player, in no particular order.
func (r *Registry) All() []*player.Player {
	out := make([]*player.Player, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out
}

// Len reports the total number of players ever registered, dropped or not.
func (r *Registry) Len() int { return len(r.byID) }
