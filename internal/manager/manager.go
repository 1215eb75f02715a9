// Package manager implements the tournament manager: the component that
// owns exactly one tournament plus its operation log, and exposes apply,
// sync, and rollback as a single coherent surface.
package manager

import (
	"fmt"

	"tournament-core/internal/ids"
	"tournament-core/internal/oplog"
	"tournament-core/internal/tournament"
)

// Role is a user's relationship to a tournament, used to scope what the
// gathering lets them do.
type Role int

const (
	RoleSpectator Role = iota
	RolePlayer
	RoleJudge
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "Player"
	case RoleJudge:
		return "Judge"
	case RoleAdmin:
		return "Admin"
	default:
		return "Spectator"
	}
}

// Manager owns one tournament and the log of every operation ever applied
// to it. Its log is never shared outward; callers receive copies of its
// slices.
type Manager struct {
	Tournament *tournament.Tournament
	Log        *oplog.OpLog

	lastSyncPoint ids.OpID
	hasSyncPoint  bool
}

// New builds a manager over a freshly-seeded tournament with an empty log.
func New(t *tournament.Tournament) *Manager {
	return &Manager{Tournament: t, Log: oplog.New()}
}

// Apply runs one operation through the state machine and appends it to the
// log only once the state machine accepts it, so a rejected operation never
// lands in the log.
func (m *Manager) Apply(salt ids.Salt, op tournament.Op) (tournament.Payload, error) {
	payload, err := m.Tournament.Apply(salt, op)
	if err != nil {
		return tournament.Payload{}, err
	}
	id := ids.OperationID(salt, encodeOp(op))
	m.Log.Add(oplog.FullOp{ID: id, Salt: salt, Active: true, Op: op})
	return payload, nil
}

// SyncRequest returns the tail of the log starting at (and including) the
// last sync point's entry, for sending to a peer that wants to catch up.
// With no sync point, or one no longer in the log, it returns the whole log.
func (m *Manager) SyncRequest() oplog.OpSlice {
	if !m.hasSyncPoint {
		return m.Log.All()
	}
	tail, err := m.Log.SliceAfter(m.lastSyncPoint)
	if err != nil {
		return m.Log.All()
	}
	return tail
}

// MarkSynced records the newest entry id as the sync point for future
// SyncRequest calls, once a dialogue completes.
func (m *Manager) MarkSynced(id ids.OpID) {
	m.lastSyncPoint = id
	m.hasSyncPoint = true
}

// ProposeRollback builds the Rollback slice for undoing everything from id
// onward.
func (m *Manager) ProposeRollback(id ids.OpID) (oplog.Rollback, error) {
	return m.Log.Rollback(id)
}

// HandleCompletion commits an agreed merged slice: it overwrites the log's
// tail with the merged slice and replays the tournament from the seed so
// state reflects the new linearization exactly.
func (m *Manager) HandleCompletion(seed tournament.Seed, merged oplog.OpSlice) error {
	if err := m.Log.Overwrite(merged); err != nil {
		return err
	}
	return m.replay(seed)
}

// replay rebuilds the tournament from a fresh seed by reapplying every
// active entry in the log, in order. It is what powers both post-merge
// validation and States().
func (m *Manager) replay(seed tournament.Seed) error {
	fresh := tournament.New(m.Tournament.ID, seed)
	fresh.Admins = m.Tournament.Admins
	fresh.Judges = m.Tournament.Judges
	for _, e := range m.Log.All() {
		if !e.Active {
			continue
		}
		if _, err := fresh.Apply(e.Salt, e.Op); err != nil {
			return fmt.Errorf("manager: replay failed at entry %s: %w", e.ID, err)
		}
	}
	m.Tournament = fresh
	return nil
}

// States replays the log from the seed, yielding one tournament snapshot
// after each active entry is applied. It's used for auditing and undo
// review, never for normal operation — normal state lives on Tournament.
func (m *Manager) States(seed tournament.Seed) []*tournament.Tournament {
	var out []*tournament.Tournament
	var applied oplog.OpSlice
	for _, e := range m.Log.All() {
		if !e.Active {
			continue
		}
		applied = append(applied, e)
		cur := tournament.New(m.Tournament.ID, seed)
		cur.Admins = m.Tournament.Admins
		cur.Judges = m.Tournament.Judges
		for _, a := range applied {
			if _, err := cur.Apply(a.Salt, a.Op); err != nil {
				return out
			}
		}
		out = append(out, cur)
	}
	return out
}

// UserRole derives a user's role from the tournament's officials maps and
// player registry. Judge and Admin take priority over Player, which takes
// priority over Spectator.
func (m *Manager) UserRole(accountID ids.AccountID) Role {
	if m.Tournament.Admins[accountID] {
		return RoleAdmin
	}
	if m.Tournament.Judges[accountID] {
		return RoleJudge
	}
	if _, err := m.Tournament.Players.Get(ids.PlayerID(accountID)); err == nil {
		return RolePlayer
	}
	return RoleSpectator
}

// encodeOp produces a deterministic byte encoding of an operation for id
// derivation. It only needs to distinguish operations well enough that
// two independently-created identical operations hash the same; it is
// not a wire format.
func encodeOp(op tournament.Op) []byte {
	return fmt.Appendf(nil, "%#v", op)
}
