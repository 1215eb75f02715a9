// Package gathering implements the per-tournament live session actor: a
// single goroutine that owns one tournament manager, accepts subscriber
// connections, feeds their messages through the sync protocol, and
// broadcasts accepted changes to every other subscriber.
//
// It mirrors the teacher's websocket hub (a single-goroutine channel
// select loop owning all subscriber state) but trades hub-wide broadcast
// fan-out for a merge-and-forward model driven by the sync protocol.
package gathering

import (
	"encoding/json"
	"log"
	"time"

	"tournament-core/internal/ids"
	"tournament-core/internal/manager"
	"tournament-core/internal/oplog"
	"tournament-core/internal/syncproto"
	"tournament-core/internal/tournament"
	"tournament-core/internal/wire"
)

// forwardRetryInterval is how often an unacknowledged forward is resent.
const forwardRetryInterval = 3 * time.Second

// forwardRetryLimit is how many times a forward is retried before the
// dialogue is abandoned.
const forwardRetryLimit = 3

// Subscriber is one live connection into a gathering: a user identity plus
// the sink its messages are written to.
type Subscriber struct {
	AccountID   ids.AccountID
	DisplayName string
	Role        manager.Role
	Sink        chan<- wire.ClientBound
}

// Inbound is one websocket frame arriving from a subscriber, tagged with
// which subscriber sent it so the gathering can reply on the right sink.
type Inbound struct {
	AccountID ids.AccountID
	Message   wire.ServerBound
}

type pendingSync struct {
	blockage *syncproto.Blockage
}

type pendingForward struct {
	accountID ids.AccountID
	subLog    oplog.OpSlice
	attempts  int
}

// Gathering is the per-tournament actor. It must only be driven through
// its channels; its internal state is otherwise unsynchronized, matching
// the single-task-per-actor scheduling model of the whole system.
type Gathering struct {
	TournamentID ids.TournamentID

	manager *manager.Manager
	seed    tournament.Seed

	subscribers map[ids.AccountID]*Subscriber

	syncDialogues    map[ids.DialogueID]*pendingSync
	forwardDialogues map[ids.DialogueID]*pendingForward

	// dialogueSeq tracks the latest (dialogue id, sequence) link accepted
	// for every dialogue this gathering has ever seen. Unlike
	// syncDialogues, an entry here is never removed when a dialogue
	// completes or errors: that's exactly what lets a late retry of an
	// already-finished dialogue be recognized as stale instead of being
	// replayed as a second, independent completion.
	dialogueSeq map[ids.DialogueID]uint64

	register        chan *Subscriber
	unregister      chan ids.AccountID
	inbound         chan Inbound
	fetchSnapshot   chan chan *manager.Manager
	persistenceHint chan<- ids.TournamentID

	logger *log.Logger
	done   chan struct{}
}

// New builds a gathering seeded with an existing manager. persistenceHint
// is the hall's coalescing channel: the gathering never writes to storage
// itself.
func New(tournamentID ids.TournamentID, seed tournament.Seed, m *manager.Manager, persistenceHint chan<- ids.TournamentID, logger *log.Logger) *Gathering {
	return &Gathering{
		TournamentID:     tournamentID,
		manager:          m,
		seed:             seed,
		subscribers:      make(map[ids.AccountID]*Subscriber),
		syncDialogues:    make(map[ids.DialogueID]*pendingSync),
		forwardDialogues: make(map[ids.DialogueID]*pendingForward),
		dialogueSeq:      make(map[ids.DialogueID]uint64),
		register:         make(chan *Subscriber),
		unregister:       make(chan ids.AccountID),
		inbound:          make(chan Inbound, 64),
		fetchSnapshot:    make(chan chan *manager.Manager),
		persistenceHint:  persistenceHint,
		logger:           logger,
		done:             make(chan struct{}),
	}
}

// Register adds a new subscriber, blocking until the actor's loop has
// accepted it and assigned its Role.
func (g *Gathering) Register(sub *Subscriber) {
	g.register <- sub
	// The loop handles one message at a time, so this round trip returns
	// only after the register case has finished with sub.
	g.Snapshot()
}

// Unregister removes a subscriber, typically called when its websocket
// closes.
func (g *Gathering) Unregister(accountID ids.AccountID) { g.unregister <- accountID }

// Send delivers one inbound frame from a subscriber into the actor.
func (g *Gathering) Send(msg Inbound) { g.inbound <- msg }

// Stop signals the actor to flush and exit.
func (g *Gathering) Stop() { close(g.done) }

// Run is the actor's main loop. It must be started in its own goroutine;
// exactly one Gathering owns it for the gathering's lifetime.
func (g *Gathering) Run() {
	retry := time.NewTicker(forwardRetryInterval)
	defer retry.Stop()

	for {
		select {
		case <-g.done:
			g.flushPersistenceHint()
			g.closeAllSinks()
			return

		case sub := <-g.register:
			sub.Role = g.manager.UserRole(sub.AccountID)
			g.subscribers[sub.AccountID] = sub
			g.logger.Printf("gathering %s: subscriber %s joined as %s", g.TournamentID, sub.AccountID, sub.Role)

		case accountID := <-g.unregister:
			if sub, ok := g.subscribers[accountID]; ok {
				close(sub.Sink)
				delete(g.subscribers, accountID)
			}
			g.discardForwardsTo(accountID)

		case reply := <-g.fetchSnapshot:
			reply <- g.manager

		case in := <-g.inbound:
			g.handleInbound(in)

		case <-retry.C:
			g.retryForwards()
		}
	}
}

// Snapshot requests the current manager, blocking until the actor's loop
// replies. Used by Register and by the hall's persistence sweep.
func (g *Gathering) Snapshot() *manager.Manager {
	reply := make(chan *manager.Manager, 1)
	g.fetchSnapshot <- reply
	return <-reply
}

func (g *Gathering) handleInbound(in Inbound) {
	sub, ok := g.subscribers[in.AccountID]
	if !ok {
		return
	}
	switch in.Message.Kind {
	case wire.ServerBoundFetch:
		g.replyFetch(sub, in.Message.Dialogue)
	case wire.ServerBoundSyncChain:
		if in.Message.ClientLink == nil {
			return
		}
		if g.isStaleLink(in.Message.Dialogue, in.Message.ClientLink.Sequence) {
			g.replySyncError(sub, in.Message.Dialogue, syncproto.ErrStaleSequence)
			return
		}
		g.handleSyncChain(sub, in.Message.Dialogue, *in.Message.ClientLink)
	case wire.ServerBoundForwardAck:
		g.handleForwardAck(in.Message.Dialogue)
	}
}

// isStaleLink reports whether seq fails to advance past the latest sequence
// already recorded for dialogue, per spec.md §4.I's "is this still the latest link
// for the dialogue" predicate. A link that advances the dialogue's
// sequence is recorded as a side effect and accepted; a retried or
// duplicated link carrying a sequence at or below what's already recorded
// is stale and must be discarded without mutating anything.
func (g *Gathering) isStaleLink(dialogue ids.DialogueID, seq uint64) bool {
	if seq <= g.dialogueSeq[dialogue] {
		return true
	}
	g.dialogueSeq[dialogue] = seq
	return false
}

// replyFetch answers a Fetch with the manager's seed and full operation
// log, JSON-encoded in the same shape the hall persists.
func (g *Gathering) replyFetch(sub *Subscriber, dialogue ids.DialogueID) {
	snapshot, err := json.Marshal(struct {
		Seed tournament.Seed `json:"seed"`
		Log  oplog.OpSlice   `json:"log"`
	}{Seed: g.seed, Log: g.manager.Log.All()})
	if err != nil {
		g.logger.Printf("gathering %s: encode fetch snapshot: %v", g.TournamentID, err)
	}
	sub.Sink <- wire.ClientBound{
		Dialogue: dialogue,
		Kind:     wire.ClientBoundFetchResp,
		Snapshot: snapshot,
	}
}

// handleSyncChain advances one dialogue round per spec: feed the incoming
// link into the sync manager; on completion, commit, emit a persistence
// hint, and forward the accepted sub-log to every other subscriber.
func (g *Gathering) handleSyncChain(sub *Subscriber, dialogue ids.DialogueID, link syncproto.ClientLink) {
	var status syncproto.MergeStatus

	switch link.Kind {
	case syncproto.ClientInit:
		local := g.manager.SyncRequest()
		status = syncproto.Merge(local, link.Slice)

	case syncproto.ClientDecisionPlucked:
		pending, ok := g.syncDialogues[dialogue]
		if !ok || pending.blockage == nil {
			g.replySyncError(sub, dialogue, syncproto.ErrUnknownStart)
			return
		}
		status = pending.blockage.Ignore()

	case syncproto.ClientDecisionPurged:
		status = syncproto.MergeStatus{Merged: link.Completion}

	case syncproto.ClientTerminated:
		delete(g.syncDialogues, dialogue)
		sub.Sink <- wire.ClientBound{
			Dialogue:   dialogue,
			Kind:       wire.ClientBoundSyncChain,
			ServerLink: &syncproto.ServerLink{Kind: syncproto.ServerTerminatedSeen},
		}
		return
	}

	g.resolveRound(sub, dialogue, status)
}

func (g *Gathering) resolveRound(sub *Subscriber, dialogue ids.DialogueID, status syncproto.MergeStatus) {
	switch {
	case status.Err != nil:
		delete(g.syncDialogues, dialogue)
		g.replySyncError(sub, dialogue, status.Err.Kind)

	case status.Blockage != nil:
		g.syncDialogues[dialogue] = &pendingSync{blockage: status.Blockage}
		sub.Sink <- wire.ClientBound{
			Dialogue:   dialogue,
			Kind:       wire.ClientBoundSyncChain,
			ServerLink: &syncproto.ServerLink{Kind: syncproto.ServerConflict, Blockage: status.Blockage},
		}

	default:
		delete(g.syncDialogues, dialogue)
		if err := g.manager.HandleCompletion(g.seed, status.Merged); err != nil {
			g.logger.Printf("gathering %s: replay after merge failed: %v", g.TournamentID, err)
			g.replySyncError(sub, dialogue, syncproto.ErrFailedReplay)
			return
		}
		if len(status.Merged) > 0 {
			g.manager.MarkSynced(status.Merged[len(status.Merged)-1].ID)
		}
		sub.Sink <- wire.ClientBound{
			Dialogue:   dialogue,
			Kind:       wire.ClientBoundSyncChain,
			ServerLink: &syncproto.ServerLink{Kind: syncproto.ServerCompleted, Completion: status.Merged},
		}
		g.emitPersistenceHint()
		g.forwardToOthers(sub.AccountID, status.Merged)
	}
}

func (g *Gathering) replySyncError(sub *Subscriber, dialogue ids.DialogueID, kind syncproto.ErrorKind) {
	sub.Sink <- wire.ClientBound{
		Dialogue:   dialogue,
		Kind:       wire.ClientBoundSyncChain,
		ServerLink: &syncproto.ServerLink{Kind: syncproto.ServerErrorLink, Err: &syncproto.SyncError{Kind: kind}},
	}
}

// forwardToOthers broadcasts the accepted sub-log to every subscriber
// except the one that originated it, tracking each as an outstanding
// forward dialogue awaiting acknowledgement.
func (g *Gathering) forwardToOthers(originator ids.AccountID, subLog oplog.OpSlice) {
	for accountID, sub := range g.subscribers {
		if accountID == originator {
			continue
		}
		dialogue := ids.NewDialogueID()
		g.forwardDialogues[dialogue] = &pendingForward{accountID: accountID, subLog: subLog}
		sub.Sink <- wire.ClientBound{
			Dialogue:          dialogue,
			Kind:              wire.ClientBoundSyncForward,
			ForwardTournament: g.TournamentID,
			ForwardSubLog:     subLog,
		}
	}
}

func (g *Gathering) handleForwardAck(dialogue ids.DialogueID) {
	delete(g.forwardDialogues, dialogue)
}

func (g *Gathering) discardForwardsTo(accountID ids.AccountID) {
	for dialogue, pf := range g.forwardDialogues {
		if pf.accountID == accountID {
			delete(g.forwardDialogues, dialogue)
		}
	}
}

func (g *Gathering) retryForwards() {
	for dialogue, pf := range g.forwardDialogues {
		sub, ok := g.subscribers[pf.accountID]
		if !ok {
			delete(g.forwardDialogues, dialogue)
			continue
		}
		pf.attempts++
		if pf.attempts > forwardRetryLimit {
			g.logger.Printf("gathering %s: forward %s to %s exhausted retries", g.TournamentID, dialogue, pf.accountID)
			delete(g.forwardDialogues, dialogue)
			continue
		}
		sub.Sink <- wire.ClientBound{
			Dialogue:          dialogue,
			Kind:              wire.ClientBoundSyncForward,
			ForwardTournament: g.TournamentID,
			ForwardSubLog:     pf.subLog,
		}
	}
}

func (g *Gathering) emitPersistenceHint() {
	select {
	case g.persistenceHint <- g.TournamentID:
	default:
		// hall coalesces hints; a full channel means one is already
		// pending for this tournament, which covers this write too.
	}
}

func (g *Gathering) flushPersistenceHint() {
	select {
	case g.persistenceHint <- g.TournamentID:
	default:
	}
}

func (g *Gathering) closeAllSinks() {
	for accountID, sub := range g.subscribers {
		close(sub.Sink)
		delete(g.subscribers, accountID)
	}
}
