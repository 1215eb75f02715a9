package syncproto

import "tournament-core/internal/oplog"

// Ignore, Push and PickOne are the three blockage-resolution moves; each
// resumes the merge from where the blockage stopped, keeping the prefix
// both sides already agreed on.
//
//   - Ignore drops the incoming (remote) entry and continues with the
//     rest of the remote tail.
//   - Push applies the incoming entry after the local blocker, then
//     continues from the next local entry.
//   - PickOne keeps exactly one of the two conflicting entries (caller's
//     choice) and drops the other, then continues merging both tails.
func (b *Blockage) Ignore() MergeStatus {
	return mergeWithPrefix(b.Agreed, b.LocalTail, b.RemoteTail[1:])
}

func (b *Blockage) Push() MergeStatus {
	agreed := append(append(oplog.OpSlice(nil), b.Agreed...), b.LocalTail[0], b.Remote)
	return mergeWithPrefix(agreed, b.LocalTail[1:], b.RemoteTail[1:])
}

func (b *Blockage) PickOne(keepLocal bool) MergeStatus {
	if keepLocal {
		agreed := append(append(oplog.OpSlice(nil), b.Agreed...), b.LocalTail[0])
		return mergeWithPrefix(agreed, b.LocalTail[1:], b.RemoteTail[1:])
	}
	agreed := append(append(oplog.OpSlice(nil), b.Agreed...), b.Remote)
	return mergeWithPrefix(agreed, b.LocalTail[1:], b.RemoteTail[1:])
}

// mergeWithPrefix resumes Merge with an already-agreed prefix prepended
// to whatever the rest of the round decides.
func mergeWithPrefix(prefix, local, remote oplog.OpSlice) MergeStatus {
	rest := mergeRest(local, remote)
	switch {
	case rest.Err != nil:
		return rest
	case rest.Blockage != nil:
		rest.Blockage.Agreed = append(append(oplog.OpSlice(nil), prefix...), rest.Blockage.Agreed...)
		return rest
	default:
		rest.Merged = append(append(oplog.OpSlice(nil), prefix...), rest.Merged...)
		return rest
	}
}

// ClientLink is one round of the client side of a sync dialogue.
type ClientLinkKind int

const (
	ClientInit ClientLinkKind = iota
	ClientDecisionPlucked
	ClientDecisionPurged
	ClientTerminated
)

// ClientLink carries the client's move for one round of a dialogue:
// Init starts it with a slice, Decision resolves a Blockage (Plucked
// keeps processing, Purged finalizes a completion), Terminated ends it.
//
// Sequence numbers one round within Kind's dialogue, starting at 1 and
// increasing by one per round the client sends for that dialogue id. It
// lets the receiving side tell a retried link from the dialogue's actual
// next round and discard the former.
type ClientLink struct {
	Kind       ClientLinkKind
	Sequence   uint64
	Slice      oplog.OpSlice // Init
	Resolution *Blockage     // Decision(Plucked)
	Completion oplog.OpSlice // Decision(Purged)
}

// ServerLinkKind tags a server reply in a sync dialogue.
type ServerLinkKind int

const (
	ServerConflict ServerLinkKind = iota
	ServerCompleted
	ServerErrorLink
	ServerTerminatedSeen
)

// ServerLink carries the server's reply for one round.
type ServerLink struct {
	Kind        ServerLinkKind
	Blockage    *Blockage // Conflict
	Completion  oplog.OpSlice
	Err         *SyncError
	AlreadyDone bool // TerminatedSeen
}
