// Package syncproto implements the multi-round operation-log merge
// protocol: given a local log tail and an incoming slice declared to
// branch from some known entry, it produces a merged linearization, a
// blockage needing resolution, or a typed sync error.
package syncproto

import (
	"tournament-core/internal/ids"
	"tournament-core/internal/oplog"
	"tournament-core/internal/tournament"
)

// ErrorKind enumerates the typed sync failures.
type ErrorKind int

const (
	ErrEmpty ErrorKind = iota
	ErrUnknownStart
	ErrRollbackOnOtherSide
	ErrFailedReplay
	ErrStaleSequence
)

func (k ErrorKind) String() string {
	switch k {
	case ErrEmpty:
		return "Empty"
	case ErrUnknownStart:
		return "UnknownStart"
	case ErrRollbackOnOtherSide:
		return "RollbackOnOtherSide"
	case ErrFailedReplay:
		return "FailedReplay"
	case ErrStaleSequence:
		return "StaleSequence"
	default:
		return "Unknown"
	}
}

// SyncError is the typed failure a merge round can end in.
type SyncError struct {
	Kind  ErrorKind
	Entry *oplog.FullOp // set for ErrFailedReplay: the entry that failed to replay
}

func (e *SyncError) Error() string { return "syncproto: " + e.Kind.String() }

// Blockage carries exactly one pair of mutually-blocking operations, plus
// the prefix both sides already agree on and the two remaining tails, so
// a caller can present the conflict and apply a resolution move.
type Blockage struct {
	Local      oplog.FullOp
	Remote     oplog.FullOp
	Agreed     oplog.OpSlice
	LocalTail  oplog.OpSlice
	RemoteTail oplog.OpSlice
}

// MergeStatus is the outcome of one merge round: exactly one of Merged,
// Blockage, or Err is meaningful.
type MergeStatus struct {
	Merged   oplog.OpSlice
	Blockage *Blockage
	Err      *SyncError
}

// Merge runs one round of the merge algorithm: local is the log's tail
// starting from the branch point, remote is the incoming slice claimed to
// branch from the same point. An empty remote slice at the very start of
// a dialogue is rejected with ErrEmpty; resolution moves that resume a
// round with whatever remote tail remains after consuming an entry use
// mergeRest, which allows a naturally-exhausted remote tail.
func Merge(local, remote oplog.OpSlice) MergeStatus {
	if len(remote) == 0 {
		return MergeStatus{Err: &SyncError{Kind: ErrEmpty}}
	}
	return mergeRest(local, remote)
}

func mergeRest(local, remote oplog.OpSlice) MergeStatus {
	remote = append(oplog.OpSlice(nil), remote...)
	var agreed oplog.OpSlice
	li, ri := 0, 0

	for ri < len(remote) {
		e := remote[ri]

		if !e.Active {
			return MergeStatus{Err: &SyncError{Kind: ErrRollbackOnOtherSide}}
		}

		if li < len(local) && local[li].ID == e.ID {
			agreed = append(agreed, local[li])
			li++
			ri++
			continue
		}

		if li < len(local) && opEqual(local[li].Op, e.Op) {
			if rw, ok := guestRewrite(local[li], e); ok {
				rewriteRemotePlayerID(remote[ri+1:], rw)
			}
			agreed = append(agreed, local[li])
			li++
			ri++
			continue
		}

		if li < len(local) && oplog.Blocks(local[li].Op, e.Op) {
			return MergeStatus{Blockage: &Blockage{
				Local:      local[li],
				Remote:     e,
				Agreed:     agreed,
				LocalTail:  append(oplog.OpSlice(nil), local[li:]...),
				RemoteTail: append(oplog.OpSlice(nil), remote[ri:]...),
			}}
		}

		agreed = append(agreed, e)
		ri++
	}

	if li < len(local) {
		agreed = append(agreed, local[li:]...)
	}

	return MergeStatus{Merged: agreed}
}

// guestPlayerRewrite is an IDRewrite scoped to PlayerID, the entity kind
// a guest registration collision actually substitutes.
type guestPlayerRewrite struct {
	From ids.PlayerID
	To   ids.PlayerID
}

// guestRewrite detects the one case where two independently-created
// entries can have equal content but diverging identity: a guest
// registration, whose id is derived from (salt, name), minted under two
// different salts by two peers who don't yet know about each other. It
// returns the substitution of the remote's guest id for the local one.
func guestRewrite(local, remote oplog.FullOp) (guestPlayerRewrite, bool) {
	if local.Op.Kind != tournament.KindRegisterPlayer || !local.Op.IsGuest {
		return guestPlayerRewrite{}, false
	}
	localID := ids.GuestPlayerID(local.Salt, local.Op.PlayerName)
	remoteID := ids.GuestPlayerID(remote.Salt, remote.Op.PlayerName)
	if localID == remoteID {
		return guestPlayerRewrite{}, false
	}
	return guestPlayerRewrite{From: remoteID, To: localID}, true
}

// rewriteRemotePlayerID substitutes a superseded guest player id for its
// surviving counterpart across every later remote entry's player-valued
// fields, so subsequent operations that reference the guest line up with
// the local copy's id for the same player.
func rewriteRemotePlayerID(tail oplog.OpSlice, rw guestPlayerRewrite) {
	for i := range tail {
		if tail[i].Op.Actor == rw.From {
			tail[i].Op.Actor = rw.To
		}
		if tail[i].Op.TargetPlayer == rw.From {
			tail[i].Op.TargetPlayer = rw.To
		}
		for j, p := range tail[i].Op.CreateRoundPlayers {
			if p == rw.From {
				tail[i].Op.CreateRoundPlayers[j] = rw.To
			}
		}
	}
}

// opEqual compares two operations field-by-field. Op has no time-of-apply
// field, so direct comparison is enough for the content-equality check
// the merge algorithm needs. Slice-valued fields are compared
// element-wise since structs containing them aren't comparable with ==.
func opEqual(a, b tournament.Op) bool {
	if a.Kind != b.Kind || a.Name != b.Name || a.Preset != b.Preset || a.Format != b.Format {
		return false
	}
	if a.AccountID != b.AccountID || a.PlayerName != b.PlayerName || a.IsGuest != b.IsGuest {
		return false
	}
	if a.Actor != b.Actor || a.OfficialID != b.OfficialID {
		return false
	}
	if a.TargetPlayer != b.TargetPlayer || a.RoundID != b.RoundID || a.Wins != b.Wins || a.IsDraw != b.IsDraw {
		return false
	}
	if a.DeckName != b.DeckName || a.GamerTag != b.GamerTag || a.Extension != b.Extension {
		return false
	}
	if a.RegOpen != b.RegOpen || a.SettingUpdate != b.SettingUpdate {
		return false
	}
	if a.CreateRoundLength != b.CreateRoundLength || a.CreateRoundContext != b.CreateRoundContext {
		return false
	}
	if a.CutN != b.CutN {
		return false
	}
	if len(a.DeckCards) != len(b.DeckCards) {
		return false
	}
	for i := range a.DeckCards {
		if a.DeckCards[i] != b.DeckCards[i] {
			return false
		}
	}
	if len(a.CreateRoundPlayers) != len(b.CreateRoundPlayers) {
		return false
	}
	for i := range a.CreateRoundPlayers {
		if a.CreateRoundPlayers[i] != b.CreateRoundPlayers[i] {
			return false
		}
	}
	return true
}
