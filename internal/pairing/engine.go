package pairing

import (
	"tournament-core/internal/ids"
	"tournament-core/internal/settings"
)

// Engine is the pairing engine owned by a tournament: the configured
// algorithm plus the Swiss/Fluid ready queue that decides when to run it.
type Engine struct {
	Settings settings.PairingSettings
	Style    settings.PairingStyle

	queue    []ids.PlayerID
	queued   map[ids.PlayerID]bool
	checkins map[ids.PlayerID]bool
}

// NewEngine builds an engine for the given style and settings.
func NewEngine(style settings.PairingStyle, s settings.PairingSettings) *Engine {
	return &Engine{
		Settings: s,
		Style:    style,
		queued:   make(map[ids.PlayerID]bool),
		checkins: make(map[ids.PlayerID]bool),
	}
}

// UpdateSettings replaces the engine's pairing settings.
func (e *Engine) UpdateSettings(s settings.PairingSettings) { e.Settings = s }

// CheckIn marks a player checked in for a Swiss round that requires it.
func (e *Engine) CheckIn(p ids.PlayerID) { e.checkins[p] = true }

// IsCheckedIn reports whether a player has checked in.
func (e *Engine) IsCheckedIn(p ids.PlayerID) bool { return e.checkins[p] }

// ReadyPlayer marks a player ready to be paired. It is idempotent: readying
// an already-ready player has no effect and is not an error. The returned
// bool reports whether, under the Fluid style, this ready call brought the
// queue to an exact multiple of the match size and should therefore
// trigger an immediate pairing attempt.
func (e *Engine) ReadyPlayer(p ids.PlayerID) bool {
	if e.queued[p] {
		return false
	}
	e.queued[p] = true
	e.queue = append(e.queue, p)
	return e.Style == settings.StyleFluid && len(e.queue)%e.Settings.MatchSize == 0
}

// UnreadyPlayer removes a player from the ready queue. It has no side
// effect on any already-created round.
func (e *Engine) UnreadyPlayer(p ids.PlayerID) {
	if !e.queued[p] {
		return
	}
	delete(e.queued, p)
	for i, q := range e.queue {
		if q == p {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			break
		}
	}
}

// ReadyToPairSwiss reports whether a Swiss pairing may run: no round may be
// currently active, and if check-ins are required, every supplied active
// player must have checked in.
func (e *Engine) ReadyToPairSwiss(activeRoundCount int, activePlayers []ids.PlayerID) bool {
	if activeRoundCount > 0 {
		return false
	}
	if e.Settings.SwissDoCheckIns {
		for _, p := range activePlayers {
			if !e.checkins[p] {
				return false
			}
		}
	}
	return true
}

// DequeueReady pops players FIFO from the front of the ready queue, up to
// n. The queue's front-of-line ordering guarantees that a player left
// unpaired by one pairing attempt is considered first on the next.
func (e *Engine) DequeueReady(n int) []ids.PlayerID {
	if n > len(e.queue) {
		n = len(e.queue)
	}
	out := e.queue[:n]
	e.queue = e.queue[n:]
	for _, p := range out {
		delete(e.queued, p)
	}
	return append([]ids.PlayerID(nil), out...)
}

// Requeue puts rejected players back at the front of the ready queue so
// they are tried first next time.
func (e *Engine) Requeue(plyrs []ids.PlayerID) {
	for _, p := range plyrs {
		e.queued[p] = true
	}
	e.queue = append(append([]ids.PlayerID(nil), plyrs...), e.queue...)
}

// QueueLen reports how many players are currently readied.
func (e *Engine) QueueLen() int { return len(e.queue) }

// DequeueSpecific removes exactly the given players from the ready queue,
// wherever they sit in it. Unlike DequeueReady, which always pops from the
// front, this is for committing a pairing decision that was computed
// earlier (and so may no longer be at the front of the queue).
func (e *Engine) DequeueSpecific(plyrs []ids.PlayerID) {
	for _, p := range plyrs {
		e.UnreadyPlayer(p)
	}
}

// Pair runs the configured algorithm against the given players and
// opponent graph.
func (e *Engine) Pair(plyrs []ids.PlayerID, opps OpponentGraph) Pairings {
	alg := ForAlgorithm(e.Settings.Algorithm)
	return alg(plyrs, opps, e.Settings.MatchSize, e.Settings.RepairTolerance)
}
