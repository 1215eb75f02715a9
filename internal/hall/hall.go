// Package hall implements the gathering hall: the registry that routes
// subscriber requests to the right gathering, spawning one on demand from
// persisted state, and coalesces persistence writes on a fixed interval.
//
// It mirrors the teacher's websocket Hub in shape (one long-lived actor
// guarding a map of per-tournament state behind a mutex) but owns
// gathering actors rather than raw client connections.
package hall

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"tournament-core/internal/gathering"
	"tournament-core/internal/ids"
	"tournament-core/internal/lease"
	"tournament-core/internal/manager"
	"tournament-core/internal/oplog"
	"tournament-core/internal/persistence"
	"tournament-core/internal/tournament"

	"github.com/google/uuid"
)

// coalesceInterval is how often pending persistence hints are flushed in
// a single bulk write.
const coalesceInterval = 10 * time.Second

// encodedManager is the JSON-serializable form of a manager's state: a
// seed plus its full operation log, enough to rebuild the tournament via
// replay.
type encodedManager struct {
	Seed tournament.Seed `json:"seed"`
	Log  oplog.OpSlice   `json:"log"`
}

// Hall owns every live gathering and routes new subscribers to them,
// spawning from persisted state when a tournament has no live gathering
// yet.
type Hall struct {
	store      *persistence.Store
	leaseMgr   *lease.Lease
	ownerToken string
	logger     *log.Logger

	mu         sync.Mutex
	gatherings map[ids.TournamentID]*gathering.Gathering
	seeds      map[ids.TournamentID]tournament.Seed
	pending    map[ids.TournamentID]bool

	hints chan ids.TournamentID
}

// New builds a hall backed by a persistence store. leaseMgr guards against
// two processes running the same tournament's gathering at once; ownerToken
// identifies this process's hall instance to the lease collaborator.
func New(store *persistence.Store, leaseMgr *lease.Lease, logger *log.Logger) *Hall {
	return &Hall{
		store:      store,
		leaseMgr:   leaseMgr,
		ownerToken: uuid.NewString(),
		logger:     logger,
		gatherings: make(map[ids.TournamentID]*gathering.Gathering),
		seeds:      make(map[ids.TournamentID]tournament.Seed),
		pending:    make(map[ids.TournamentID]bool),
		hints:      make(chan ids.TournamentID, 256),
	}
}

// Run starts the hall's coalescing loop. It must run in its own goroutine
// for the hall's lifetime.
func (h *Hall) Run(ctx context.Context) {
	ticker := time.NewTicker(coalesceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.flush(ctx)
			return
		case id := <-h.hints:
			h.mu.Lock()
			h.pending[id] = true
			h.mu.Unlock()
		case <-ticker.C:
			h.flush(ctx)
		}
	}
}

// Join routes a new subscriber to the gathering for tournamentID,
// spawning one from persisted state (or a fresh seed, if none exists yet)
// when it isn't already live.
func (h *Hall) Join(ctx context.Context, tournamentID ids.TournamentID, seed tournament.Seed, sub *gathering.Subscriber) (*gathering.Gathering, error) {
	h.mu.Lock()
	g, ok := h.gatherings[tournamentID]
	h.mu.Unlock()
	if ok {
		g.Register(sub)
		return g, nil
	}

	g, err := h.spawn(ctx, tournamentID, seed)
	if err != nil {
		return nil, err
	}
	g.Register(sub)
	return g, nil
}

// Create starts a brand-new tournament owned by creatorID and launches its
// gathering. Unlike Join, it never consults the persistence collaborator:
// a tournament id is only ever created once.
func (h *Hall) Create(tournamentID ids.TournamentID, seed tournament.Seed, creatorID ids.AccountID) (*gathering.Gathering, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.gatherings[tournamentID]; ok {
		return nil, fmt.Errorf("hall: tournament %s already exists", tournamentID)
	}

	acquired, err := h.leaseMgr.Acquire(context.Background(), tournamentID, h.ownerToken)
	if err != nil {
		return nil, fmt.Errorf("hall: acquire lease for %s: %w", tournamentID, err)
	}
	if !acquired {
		return nil, fmt.Errorf("hall: tournament %s is owned by another process", tournamentID)
	}

	t := tournament.New(tournamentID, seed)
	t.Admins[creatorID] = true
	m := manager.New(t)

	g := gathering.New(tournamentID, seed, m, h.hints, h.logger)
	h.gatherings[tournamentID] = g
	h.seeds[tournamentID] = seed
	go g.Run()
	go h.watchLease(tournamentID, g)
	return g, nil
}

// spawn loads a tournament from the persistence collaborator if present,
// otherwise starts from seed, and launches its gathering actor. It only
// proceeds once it has acquired this tournament's ownership lease, so at
// most one process runs a given tournament's gathering at a time.
func (h *Hall) spawn(ctx context.Context, tournamentID ids.TournamentID, seed tournament.Seed) (*gathering.Gathering, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if g, ok := h.gatherings[tournamentID]; ok {
		return g, nil
	}

	acquired, err := h.leaseMgr.Acquire(ctx, tournamentID, h.ownerToken)
	if err != nil {
		return nil, fmt.Errorf("hall: acquire lease for %s: %w", tournamentID, err)
	}
	if !acquired {
		return nil, fmt.Errorf("hall: tournament %s is owned by another process", tournamentID)
	}

	m, err := h.load(ctx, tournamentID, seed)
	if err != nil {
		return nil, err
	}

	g := gathering.New(tournamentID, seed, m, h.hints, h.logger)
	h.gatherings[tournamentID] = g
	h.seeds[tournamentID] = seed
	go g.Run()
	go h.watchLease(tournamentID, g)
	return g, nil
}

// watchLease renews this process's ownership lease for tournamentID until
// RenewLoop returns because the lease was lost (another process preempted
// a dead holder), then removes the gathering from the hall and stops it so
// a fresh spawn elsewhere sees consistent persisted state. A gathering
// stopped by other means is not observed here; renewal continues for it.
func (h *Hall) watchLease(tournamentID ids.TournamentID, g *gathering.Gathering) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.leaseMgr.RenewLoop(ctx, tournamentID, h.ownerToken)
		close(done)
	}()

	<-done
	cancel()

	h.mu.Lock()
	if current, ok := h.gatherings[tournamentID]; ok && current == g {
		delete(h.gatherings, tournamentID)
		delete(h.seeds, tournamentID)
	}
	h.mu.Unlock()
	g.Stop()
}

func (h *Hall) load(ctx context.Context, tournamentID ids.TournamentID, seed tournament.Seed) (*manager.Manager, error) {
	snap, err := h.store.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return manager.New(tournament.New(tournamentID, seed)), nil
	}

	var enc encodedManager
	if err := json.Unmarshal(snap.Encoded, &enc); err != nil {
		return nil, fmt.Errorf("hall: decode snapshot for %s: %w", tournamentID, err)
	}
	t := tournament.New(tournamentID, enc.Seed)
	m := manager.New(t)
	for _, e := range enc.Log {
		m.Log.Add(e)
		if !e.Active {
			continue
		}
		if _, err := t.Apply(e.Salt, e.Op); err != nil {
			return nil, fmt.Errorf("hall: replay snapshot for %s: %w", tournamentID, err)
		}
	}
	return m, nil
}

// flush writes every gathering with a pending hint through the
// persistence collaborator in a single bulk call.
func (h *Hall) flush(ctx context.Context) {
	h.mu.Lock()
	var targets []ids.TournamentID
	for id := range h.pending {
		targets = append(targets, id)
		delete(h.pending, id)
	}
	gs := make(map[ids.TournamentID]*gathering.Gathering, len(targets))
	seeds := make(map[ids.TournamentID]tournament.Seed, len(targets))
	for _, id := range targets {
		gs[id] = h.gatherings[id]
		seeds[id] = h.seeds[id]
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	snapshots := make([]persistence.Snapshot, 0, len(targets))
	for _, id := range targets {
		g, ok := gs[id]
		if !ok {
			continue
		}
		m := g.Snapshot()
		encoded, err := encodeManager(m, seeds[id])
		if err != nil {
			h.logger.Printf("hall: encode snapshot for %s: %v", id, err)
			continue
		}
		snapshots = append(snapshots, persistence.Snapshot{
			TournamentID: id,
			Encoded:      encoded,
			UpdatedAt:    time.Now(),
		})
	}

	if err := h.store.BulkPut(ctx, snapshots); err != nil {
		h.logger.Printf("hall: bulk persist failed: %v", err)
	}
}

func encodeManager(m *manager.Manager, seed tournament.Seed) ([]byte, error) {
	enc := encodedManager{Seed: seed, Log: m.Log.All()}
	return json.Marshal(enc)
}
