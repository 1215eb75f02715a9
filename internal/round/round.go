// Package round defines a single round/match: its players, result, and
// confirmation lifecycle.
package round

import (
	"time"

	"tournament-core/internal/ids"
)

// Status is a round's lifecycle state.
type Status int

const (
	StatusOpen Status = iota
	StatusCertified
	StatusDead
)

// Context records why a round was created; Swiss rounds optionally carry
// extra pairing metadata. Contextless covers manually created rounds and
// fluid pairings.
type Context struct {
	Swiss bool
	Round int
}

// Round is one match among a fixed set of players.
type Round struct {
	ID            ids.RoundID
	MatchNumber   int
	TableNumber   int
	Players       []ids.PlayerID
	Results       map[ids.PlayerID]int // game-win counts, keyed by player
	Winner        *ids.PlayerID
	Draws         int
	Confirmations map[ids.PlayerID]bool
	Drops         map[ids.PlayerID]bool
	Status        Status
	CreatedAt     time.Time
	Length        time.Duration
	Extension     time.Duration
	IsBye         bool
	Context       Context
}

// New creates an open round seated with the given players.
func New(id ids.RoundID, matchNumber, tableNumber int, players []ids.PlayerID, length time.Duration, ctx Context, now time.Time) *Round {
	return &Round{
		ID:            id,
		MatchNumber:   matchNumber,
		TableNumber:   tableNumber,
		Players:       append([]ids.PlayerID(nil), players...),
		Results:       make(map[ids.PlayerID]int),
		Confirmations: make(map[ids.PlayerID]bool),
		Drops:         make(map[ids.PlayerID]bool),
		Status:        StatusOpen,
		CreatedAt:     now,
		Length:        length,
		Context:       ctx,
	}
}

// NewBye creates a round for exactly one player, Certified immediately with
// that player declared the winner.
func NewBye(id ids.RoundID, matchNumber, tableNumber int, p ids.PlayerID, now time.Time) *Round {
	r := New(id, matchNumber, tableNumber, []ids.PlayerID{p}, 0, Context{}, now)
	r.IsBye = true
	r.Status = StatusCertified
	winner := p
	r.Winner = &winner
	return r
}

// ContainsPlayer reports whether id is seated in this round, whether or not
// they have since dropped from it.
func (r *Round) ContainsPlayer(id ids.PlayerID) bool {
	for _, p := range r.Players {
		if p == id {
			return true
		}
		if r.Drops[p] && p == id {
			return true
		}
	}
	return false
}

// IsActive reports whether the round still participates in pairing and
// scoring decisions.
func (r *Round) IsActive() bool { return r.Status != StatusDead }

// IsCertified reports whether the round has a finalized result.
func (r *Round) IsCertified() bool { return r.Status == StatusCertified }

// DropPlayer removes a player's need to confirm the round's result without
// removing them from the round's player list.
func (r *Round) DropPlayer(id ids.PlayerID) {
	r.Drops[id] = true
}

// RecordResult sets the per-player game-win tally and recomputes the
// declared winner (or draw). Recording a new result while the round is
// still open clears any previously gathered confirmations, since they
// confirmed a now-superseded result.
func (r *Round) RecordResult(id ids.PlayerID, wins int) {
	r.Results[id] = wins
	if r.Status == StatusOpen {
		r.Confirmations = make(map[ids.PlayerID]bool)
	}
	best := -1
	var winner ids.PlayerID
	tie := false
	for p, w := range r.Results {
		switch {
		case w > best:
			best = w
			winner = p
			tie = false
		case w == best:
			tie = true
		}
	}
	if tie || best <= 0 {
		r.Winner = nil
	} else {
		w := winner
		r.Winner = &w
	}
}

// RecordDraw marks the round a draw with no declared winner. Like
// RecordResult, recording while still open clears any previously gathered
// confirmations, since they confirmed a now-superseded result.
func (r *Round) RecordDraw() {
	r.Draws++
	r.Winner = nil
	if r.Status == StatusOpen {
		r.Confirmations = make(map[ids.PlayerID]bool)
	}
}

// HasResult reports whether any result has been recorded yet.
func (r *Round) HasResult() bool {
	return len(r.Results) > 0 || r.Draws > 0
}

// ConfirmResult registers one player's confirmation of the current result.
// The round becomes Certified once every seated player has either confirmed
// or dropped. Confirming on behalf of a dropped player is a no-op that
// returns the round's current status.
func (r *Round) ConfirmResult(id ids.PlayerID) Status {
	if r.Drops[id] {
		return r.Status
	}
	r.Confirmations[id] = true
	allAccountedFor := true
	for _, p := range r.Players {
		if !r.Confirmations[p] && !r.Drops[p] {
			allAccountedFor = false
			break
		}
	}
	if allAccountedFor {
		r.Status = StatusCertified
	}
	return r.Status
}

// Kill marks the round Dead. Dead rounds contribute nothing to scoring or
// the opponent graph.
func (r *Round) Kill() { r.Status = StatusDead }
