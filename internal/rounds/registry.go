// Package rounds implements the round registry: match/table numbering, the
// derived opponent graph, and active-round retrieval.
package rounds

import (
	"fmt"
	"sort"
	"time"

	"tournament-core/internal/ids"
	"tournament-core/internal/round"
)

// ErrNotFound is returned when a round id or number has no match.
var ErrNotFound = fmt.Errorf("round not found")

// Registry owns every round ever created in a tournament, table numbering,
// and the derived player-to-opponents graph.
type Registry struct {
	rounds        map[ids.RoundID]*round.Round
	byNumber      map[int]ids.RoundID
	opponents     map[ids.PlayerID]map[ids.PlayerID]bool
	startingTable int
	nextMatch     int
}

// NewRegistry builds an empty round registry. startingTable is the lowest
// table number ever handed out.
func NewRegistry(startingTable int) *Registry {
	return &Registry{
		rounds:        make(map[ids.RoundID]*round.Round),
		byNumber:      make(map[int]ids.RoundID),
		opponents:     make(map[ids.PlayerID]map[ids.PlayerID]bool),
		startingTable: startingTable,
	}
}

// nextTableNumber returns the lowest table number not held by any currently
// active round.
func (r *Registry) nextTableNumber() int {
	used := make(map[int]bool)
	for _, rnd := range r.rounds {
		if rnd.IsActive() {
			used[rnd.TableNumber] = true
		}
	}
	for n := r.startingTable; ; n++ {
		if !used[n] {
			return n
		}
	}
}

func (r *Registry) addOpponentEdges(players []ids.PlayerID) {
	for _, a := range players {
		for _, b := range players {
			if a == b {
				continue
			}
			if r.opponents[a] == nil {
				r.opponents[a] = make(map[ids.PlayerID]bool)
			}
			r.opponents[a][b] = true
		}
	}
}

func (r *Registry) removeOpponentEdges(players []ids.PlayerID) {
	for _, a := range players {
		for _, b := range players {
			if a == b {
				continue
			}
			delete(r.opponents[a], b)
		}
	}
}

// CreateRound seats players into a new Open round.
func (r *Registry) CreateRound(id ids.RoundID, players []ids.PlayerID, length time.Duration, ctx round.Context, now time.Time) *round.Round {
	matchNum := r.nextMatch
	r.nextMatch++
	table := r.nextTableNumber()
	rnd := round.New(id, matchNum, table, players, length, ctx, now)
	r.rounds[id] = rnd
	r.byNumber[matchNum] = id
	r.addOpponentEdges(players)
	return rnd
}

// CreateBye seats a single player into an immediately-Certified bye round.
func (r *Registry) CreateBye(id ids.RoundID, p ids.PlayerID, now time.Time) *round.Round {
	matchNum := r.nextMatch
	r.nextMatch++
	table := r.nextTableNumber()
	rnd := round.NewBye(id, matchNum, table, p, now)
	r.rounds[id] = rnd
	r.byNumber[matchNum] = id
	return rnd
}

// Kill marks a round Dead and removes its opponent edges.
func (r *Registry) Kill(id ids.RoundID) error {
	rnd, ok := r.rounds[id]
	if !ok {
		return ErrNotFound
	}
	rnd.Kill()
	r.removeOpponentEdges(rnd.Players)
	return nil
}

// Get returns a round by id.
func (r *Registry) Get(id ids.RoundID) (*round.Round, error) {
	rnd, ok := r.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rnd, nil
}

// GetByNumber returns a round by its monotone match number.
func (r *Registry) GetByNumber(n int) (*round.Round, error) {
	id, ok := r.byNumber[n]
	if !ok {
		return nil, ErrNotFound
	}
	return r.rounds[id], nil
}

// PlayerActiveRounds returns every still-active round containing player,
// sorted by match number.
func (r *Registry) PlayerActiveRounds(p ids.PlayerID) []*round.Round {
	var out []*round.Round
	for _, rnd := range r.rounds {
		if rnd.IsActive() && rnd.ContainsPlayer(p) {
			out = append(out, rnd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out
}

// OpponentsOf returns the set of players p has already faced, derived from
// all non-Dead rounds.
func (r *Registry) OpponentsOf(p ids.PlayerID) map[ids.PlayerID]bool {
	out := make(map[ids.PlayerID]bool, len(r.opponents[p]))
	for k := range r.opponents[p] {
		out[k] = true
	}
	return out
}

// ActiveCount returns the number of non-Dead rounds.
func (r *Registry) ActiveCount() int {
	n := 0
	for _, rnd := range r.rounds {
		if rnd.IsActive() {
			n++
		}
	}
	return n
}

// All returns every round, in no particular order.
func (r *Registry) All() []*round.Round {
	out := make([]*round.Round, 0, len(r.rounds))
	for _, rnd := range r.rounds {
		out = append(out, rnd)
	}
	return out
}
