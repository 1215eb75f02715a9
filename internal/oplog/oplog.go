// Package oplog implements the append-only operation log: the durable
// record of every operation applied to a tournament, plus the slice,
// rollback, and overwrite primitives the sync protocol builds on.
package oplog

import (
	"fmt"

	"tournament-core/internal/ids"
	"tournament-core/internal/tournament"
)

// ErrNotFound is returned when an id has no matching entry.
var ErrNotFound = fmt.Errorf("oplog: entry not found")

// ErrOutOfSync is returned by ApplyRollback when the local tail contains
// entries the rollback doesn't account for.
var ErrOutOfSync = fmt.Errorf("oplog: local tail diverges from rollback")

// FullOp is one log entry: an operation plus its identity and activity.
// Rollback clears Active rather than removing the entry, so the entry
// stays in place for merge alignment but no longer contributes to state.
type FullOp struct {
	ID     ids.OpID
	Salt   ids.Salt
	Active bool
	Op     tournament.Op
}

// OpSlice is a contiguous run of log entries, oldest first.
type OpSlice []FullOp

// Rollback is the slice returned by OpLog.Rollback: the named entry
// (still active) followed by every later entry, all inactive.
type Rollback OpSlice

// OpLog is the append-only log owned by one tournament manager.
type OpLog struct {
	entries []FullOp
	index   map[ids.OpID]int
}

// New builds an empty log.
func New() *OpLog {
	return &OpLog{index: make(map[ids.OpID]int)}
}

// Add appends a new entry.
func (l *OpLog) Add(entry FullOp) {
	l.index[entry.ID] = len(l.entries)
	l.entries = append(l.entries, entry)
}

// Len reports the number of entries, active or not.
func (l *OpLog) Len() int { return len(l.entries) }

// All returns every entry, oldest first.
func (l *OpLog) All() OpSlice { return append(OpSlice(nil), l.entries...) }

// Get returns a single entry by id.
func (l *OpLog) Get(id ids.OpID) (FullOp, error) {
	i, ok := l.index[id]
	if !ok {
		return FullOp{}, ErrNotFound
	}
	return l.entries[i], nil
}

// SliceAfter returns the contiguous tail starting at (and including) the
// entry with the given id.
func (l *OpLog) SliceAfter(id ids.OpID) (OpSlice, error) {
	i, ok := l.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(OpSlice(nil), l.entries[i:]...), nil
}

// SliceBefore returns every entry strictly before the one with the given
// id: the complement of SliceAfter.
func (l *OpLog) SliceBefore(id ids.OpID) (OpSlice, error) {
	i, ok := l.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(OpSlice(nil), l.entries[:i]...), nil
}

// Rollback builds the Rollback slice for proposing that the entry with id
// (and everything after it) be undone: id's entry stays active, everything
// following is marked inactive in the returned copy (the log itself is
// untouched until ApplyRollback commits it).
func (l *OpLog) Rollback(id ids.OpID) (Rollback, error) {
	tail, err := l.SliceAfter(id)
	if err != nil {
		return nil, err
	}
	out := make(Rollback, len(tail))
	for i, e := range tail {
		out[i] = e
		if i > 0 {
			out[i].Active = false
		}
	}
	return out, nil
}

// ApplyRollback commits a previously proposed Rollback: it validates that
// the local tail starting at the rollback's first entry matches exactly
// (same ids, same order) before replacing that tail in place. A local tail
// containing entries absent from the rollback is a sign the two logs have
// diverged further since the rollback was proposed, and is rejected with
// ErrOutOfSync rather than silently discarded.
func (l *OpLog) ApplyRollback(rb Rollback) error {
	if len(rb) == 0 {
		return nil
	}
	i, ok := l.index[rb[0].ID]
	if !ok {
		return ErrNotFound
	}
	localTail := l.entries[i:]
	if len(localTail) != len(rb) {
		return ErrOutOfSync
	}
	for j := range rb {
		if localTail[j].ID != rb[j].ID {
			return ErrOutOfSync
		}
	}
	for j := range rb {
		l.entries[i+j] = rb[j]
	}
	return nil
}

// Overwrite finds the slice's first entry in the log, truncates the log
// there, and appends the slice in its place. It is the merge protocol's
// mechanism for installing an agreed-on tail once a sync round completes.
func (l *OpLog) Overwrite(slice OpSlice) error {
	if len(slice) == 0 {
		return nil
	}
	i, ok := l.index[slice[0].ID]
	if !ok {
		// The slice starts somewhere not yet known locally: treat the
		// whole log as the prefix and append after it.
		i = len(l.entries)
	}
	for _, e := range l.entries[i:] {
		delete(l.index, e.ID)
	}
	l.entries = append(l.entries[:i:i], slice...)
	for j, e := range l.entries[i:] {
		l.index[e.ID] = i + j
	}
	return nil
}

// entityGroup classifies an operation by the single specific entity (if
// any) it names, for the "same entity" blocking rule.
type entityGroup struct {
	hasPlayer bool
	player    ids.PlayerID
	hasRound  bool
	round     ids.RoundID
}

func classify(op tournament.Op) entityGroup {
	var g entityGroup
	switch op.Kind {
	case tournament.KindPlayerCheckIn, tournament.KindPlayerReady, tournament.KindPlayerUnready,
		tournament.KindPlayerRecordResult, tournament.KindPlayerConfirmRound, tournament.KindPlayerDrop,
		tournament.KindPlayerAddDeck, tournament.KindPlayerRemoveDeck, tournament.KindPlayerSetGamerTag:
		g.hasPlayer, g.player = true, op.Actor
	case tournament.KindJudgeDropPlayer:
		g.hasPlayer, g.player = true, op.TargetPlayer
	case tournament.KindAdminDrop, tournament.KindAdminGiveBye:
		g.hasPlayer, g.player = true, op.TargetPlayer
	}
	switch op.Kind {
	case tournament.KindJudgeRecordResult, tournament.KindJudgeConfirmRound, tournament.KindJudgeGiveTimeExtension:
		g.hasRound, g.round = true, op.RoundID
	case tournament.KindAdminKillRound:
		g.hasRound, g.round = true, op.RoundID
	}
	if op.Kind == tournament.KindPlayerRecordResult || op.Kind == tournament.KindPlayerConfirmRound {
		g.hasRound, g.round = true, op.RoundID
	}
	return g
}

func isLifecycle(k tournament.OpKind) bool {
	switch k {
	case tournament.KindAdminStart, tournament.KindAdminFreeze, tournament.KindAdminThaw,
		tournament.KindAdminEnd, tournament.KindAdminCancel:
		return true
	}
	return false
}

func isPairingRelated(k tournament.OpKind) bool {
	switch k {
	case tournament.KindPlayerReady, tournament.KindPlayerUnready, tournament.KindAdminPairRound:
		return true
	}
	return false
}

// Blocks reports whether a, already present in the log, blocks e from
// being reordered past it — the predicate the sync merge algorithm
// consults when deciding whether to emit a Blockage. The canonical rules:
// lifecycle transitions block everything; an operation naming a specific
// player or round blocks only operations referencing the same entity;
// pairing blocks readying/unreadying and vice versa until committed;
// registration blocks cut (a variant of prune-players, since a cut that
// ran before a concurrent registration landed would rank the wrong set
// of players).
func Blocks(a, e tournament.Op) bool {
	if isLifecycle(a.Kind) {
		return true
	}
	if isPairingRelated(a.Kind) && isPairingRelated(e.Kind) {
		return true
	}
	if a.Kind == tournament.KindRegisterPlayer && e.Kind == tournament.KindAdminCut {
		return true
	}
	ga, ge := classify(a), classify(e)
	if ga.hasPlayer && ge.hasPlayer && ga.player == ge.player {
		return true
	}
	if ga.hasRound && ge.hasRound && ga.round == ge.round {
		return true
	}
	return false
}
