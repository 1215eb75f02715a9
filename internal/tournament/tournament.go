// Package tournament implements the deterministic tournament state machine:
// the single Apply entry point that validates and applies every operation
// against a tournament's players, rounds, pairing engine, and settings.
package tournament

import (
	"time"

	"tournament-core/internal/ids"
	"tournament-core/internal/pairing"
	"tournament-core/internal/player"
	"tournament-core/internal/players"
	"tournament-core/internal/round"
	"tournament-core/internal/rounds"
	"tournament-core/internal/scoring"
	"tournament-core/internal/settings"
)

// Status is the tournament's lifecycle stage.
type Status int

const (
	StatusPlanned Status = iota
	StatusStarted
	StatusFrozen
	StatusEnded
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusStarted:
		return "Started"
	case StatusFrozen:
		return "Frozen"
	case StatusEnded:
		return "Ended"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Seed is the minimal data needed to reconstruct a tournament's initial
// state: its name, pairing style preset, and format.
type Seed struct {
	Name   string
	Preset settings.PairingStyle
	Format settings.Format
}

// Tournament is the aggregate root: it owns the player registry, round
// registry, pairing engine, settings tree (whose scoring leaves configure
// the standings computed on demand), and the officials maps, and is the
// sole thing Apply mutates.
type Tournament struct {
	ID      ids.TournamentID
	Name    string
	Format  settings.Format
	Status  Status
	RegOpen bool

	Settings settings.Tree
	Players  *players.Registry
	Rounds   *rounds.Registry
	Pairing  *pairing.Engine

	Admins map[ids.AccountID]bool
	Judges map[ids.AccountID]bool
}

// New builds a freshly Planned tournament from a seed. This mirrors what
// replaying a log's implicit Create entry against an empty state produces,
// and is used both by the tournament manager at creation time and by the
// replay/audit path that rebuilds state from a seed plus an op log.
func New(id ids.TournamentID, seed Seed) *Tournament {
	return &Tournament{
		ID:      id,
		Name:    seed.Name,
		Format:  seed.Format,
		Status:  StatusPlanned,
		RegOpen: true,

		Settings: settings.NewTree(seed.Preset),
		Players:  players.NewRegistry(),
		Rounds:   rounds.NewRegistry(1),
		Pairing:  pairing.NewEngine(seed.Preset, settings.DefaultPairingSettings()),

		Admins: make(map[ids.AccountID]bool),
		Judges: make(map[ids.AccountID]bool),
	}
}

// IsPlanned, IsFrozen, IsActive, IsDead mirror the tournament's coarse
// lifecycle groupings used throughout status gating.
func (t *Tournament) IsPlanned() bool { return t.Status == StatusPlanned }
func (t *Tournament) IsFrozen() bool  { return t.Status == StatusFrozen }
func (t *Tournament) IsActive() bool  { return t.Status == StatusStarted || t.Status == StatusFrozen }
func (t *Tournament) IsDead() bool {
	return t.Status == StatusEnded || t.Status == StatusCancelled
}

func (t *Tournament) requireStatus(allowed ...Status) *Error {
	for _, s := range allowed {
		if t.Status == s {
			return nil
		}
	}
	return newError(ErrIncorrectStatus, "operation not allowed in status "+t.Status.String())
}

func (t *Tournament) requirePlayer(id ids.PlayerID) (*player.Player, *Error) {
	p, err := t.Players.Get(id)
	if err != nil {
		return nil, newError(ErrPlayerLookup, "no such player")
	}
	return p, nil
}

func (t *Tournament) requireActivePlayer(id ids.PlayerID) *Error {
	p, err := t.requirePlayer(id)
	if err != nil {
		return err
	}
	if !p.CanPlay() {
		return newError(ErrPlayerLookup, "player has been dropped")
	}
	return nil
}

func (t *Tournament) requireRound(id ids.RoundID) (*round.Round, *Error) {
	r, err := t.Rounds.Get(id)
	if err != nil {
		return nil, newError(ErrRoundLookup, "no such round")
	}
	return r, nil
}

func (t *Tournament) requireAdmin(id ids.AccountID) *Error {
	if !t.Admins[id] {
		return newError(ErrNotAuthorized, "caller is not an admin")
	}
	return nil
}

func (t *Tournament) requireOfficial(id ids.AccountID) *Error {
	if !t.Admins[id] && !t.Judges[id] {
		return newError(ErrNotAuthorized, "caller is not an admin or judge")
	}
	return nil
}

// Apply validates and applies one operation, deriving the operation's
// identity from salt for anything that needs a freshly-minted id. It is
// the single entry point the tournament state machine exposes.
func (t *Tournament) Apply(salt ids.Salt, op Op) (Payload, error) {
	switch op.Kind {
	case KindCreate:
		return Payload{Kind: PayloadTournamentID, TournamentID: t.ID}, nil

	case KindRegisterPlayer:
		return t.applyRegisterPlayer(salt, op)

	case KindPlayerCheckIn:
		return t.applyPlayerCheckIn(op)
	case KindPlayerReady:
		return t.applyPlayerReady(salt, op)
	case KindPlayerUnready:
		return t.applyPlayerUnready(op)
	case KindPlayerRecordResult:
		return t.applyRecordResult(op.Actor, op)
	case KindPlayerConfirmRound:
		return t.applyConfirmRound(op.Actor, op)
	case KindPlayerDrop:
		return t.applyPlayerDrop(op)
	case KindPlayerAddDeck:
		return t.applyAddDeck(op)
	case KindPlayerRemoveDeck:
		return t.applyRemoveDeck(op)
	case KindPlayerSetGamerTag:
		return t.applySetGamerTag(op)

	case KindJudgeRecordResult:
		if err := t.requireOfficial(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyRecordResult(op.TargetPlayer, op)
	case KindJudgeConfirmRound:
		if err := t.requireOfficial(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyConfirmRound(op.TargetPlayer, op)
	case KindJudgeGiveTimeExtension:
		if err := t.requireOfficial(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyGiveTimeExtension(op)
	case KindJudgeDropPlayer:
		if err := t.requireOfficial(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyDropTarget(op, false)

	case KindAdminStart:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyStart()
	case KindAdminFreeze:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyFreeze()
	case KindAdminThaw:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyThaw()
	case KindAdminEnd:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyEnd()
	case KindAdminCancel:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyCancel()
	case KindAdminUpdateReg:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		t.RegOpen = op.RegOpen
		return Payload{}, nil
	case KindAdminUpdateSetting:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyUpdateSetting(op)
	case KindAdminCreateRound:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyCreateRound(salt, op)
	case KindAdminPairRound:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyPairRound(salt, op)
	case KindAdminGiveBye:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyGiveBye(salt, op)
	case KindAdminCut:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyCut(op)
	case KindAdminDrop:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyDropTarget(op, true)
	case KindAdminKillRound:
		if err := t.requireAdmin(op.OfficialID); err != nil {
			return Payload{}, err
		}
		return t.applyKillRound(op)
	}
	return Payload{}, newError(ErrIncorrectStatus, "unknown operation kind")
}

func (t *Tournament) applyStart() (Payload, error) {
	if err := t.requireStatus(StatusPlanned); err != nil {
		return Payload{}, err
	}
	t.Status = StatusStarted
	t.RegOpen = false
	return Payload{}, nil
}

func (t *Tournament) applyFreeze() (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	t.Status = StatusFrozen
	t.RegOpen = false
	return Payload{}, nil
}

func (t *Tournament) applyThaw() (Payload, error) {
	if err := t.requireStatus(StatusFrozen); err != nil {
		return Payload{}, err
	}
	t.Status = StatusStarted
	return Payload{}, nil
}

func (t *Tournament) applyEnd() (Payload, error) {
	if err := t.requireStatus(StatusStarted, StatusFrozen); err != nil {
		return Payload{}, err
	}
	t.Status = StatusEnded
	t.RegOpen = false
	return Payload{}, nil
}

func (t *Tournament) applyCancel() (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted, StatusFrozen); err != nil {
		return Payload{}, err
	}
	t.Status = StatusCancelled
	t.RegOpen = false
	return Payload{}, nil
}

func (t *Tournament) applyRegisterPlayer(salt ids.Salt, op Op) (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted); err != nil {
		return Payload{}, err
	}
	if !t.RegOpen {
		return Payload{}, newError(ErrRegClosed, "registration is closed")
	}
	var id ids.PlayerID
	var err error
	if op.IsGuest {
		id, err = t.Players.AddGuest(salt, op.PlayerName)
	} else {
		id, err = t.Players.Register(ids.PlayerID(op.AccountID), op.PlayerName)
	}
	if err != nil {
		return Payload{}, newError(ErrPlayerAlreadyRegistered, err.Error())
	}
	return Payload{Kind: PayloadPlayerID, PlayerID: id}, nil
}

func (t *Tournament) applyPlayerCheckIn(op Op) (Payload, error) {
	if err := t.requireStatus(StatusPlanned); err != nil {
		return Payload{}, err
	}
	if err := t.requireActivePlayer(op.Actor); err != nil {
		return Payload{}, err
	}
	t.Pairing.CheckIn(op.Actor)
	return Payload{}, nil
}

func (t *Tournament) activePlayerIDs() []ids.PlayerID {
	var out []ids.PlayerID
	for _, p := range t.Players.All() {
		if p.CanPlay() {
			out = append(out, p.ID)
		}
	}
	return out
}

func (t *Tournament) opponentGraph() pairing.OpponentGraph {
	g := make(pairing.OpponentGraph)
	for _, p := range t.Players.All() {
		g[p.ID] = t.Rounds.OpponentsOf(p.ID)
	}
	return g
}

func (t *Tournament) applyPlayerReady(salt ids.Salt, op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	if err := t.requireActivePlayer(op.Actor); err != nil {
		return Payload{}, err
	}
	shouldPair := t.Pairing.ReadyPlayer(op.Actor)
	if !shouldPair || t.Settings.Style != settings.StyleFluid {
		return Payload{Kind: PayloadPlayerID, PlayerID: op.Actor}, nil
	}
	plyrs := t.Pairing.DequeueReady(t.Pairing.Settings.MatchSize)
	result := t.Pairing.Pair(plyrs, t.opponentGraph())
	t.Pairing.Requeue(result.Rejected)
	roundIDs := t.materializePairing(salt, result, false)
	return Payload{Kind: PayloadRoundIDs, RoundIDs: roundIDs}, nil
}

func (t *Tournament) applyPlayerUnready(op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	t.Pairing.UnreadyPlayer(op.Actor)
	return Payload{}, nil
}

func (t *Tournament) applyRecordResult(target ids.PlayerID, op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	r, err := t.requireRound(op.RoundID)
	if err != nil {
		return Payload{}, err
	}
	if r.Status != round.StatusOpen {
		return Payload{}, newError(ErrIncorrectRoundStatus, "round is not open")
	}
	if !r.ContainsPlayer(target) {
		return Payload{}, newError(ErrPlayerNotInRound, "player is not seated in this round")
	}
	if op.IsDraw {
		r.RecordDraw()
	} else {
		r.RecordResult(target, op.Wins)
	}
	return Payload{Kind: PayloadRoundID, RoundID: r.ID}, nil
}

func (t *Tournament) applyConfirmRound(target ids.PlayerID, op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	r, err := t.requireRound(op.RoundID)
	if err != nil {
		return Payload{}, err
	}
	if r.Status != round.StatusOpen {
		return Payload{}, newError(ErrIncorrectRoundStatus, "round is not open")
	}
	if !r.ContainsPlayer(target) {
		return Payload{}, newError(ErrPlayerNotInRound, "player is not seated in this round")
	}
	if !r.HasResult() {
		return Payload{}, newError(ErrNoMatchResult, "no result has been recorded yet")
	}
	status := r.ConfirmResult(target)
	return Payload{Kind: PayloadRoundStatus, RoundStatus: status, RoundID: r.ID}, nil
}

func (t *Tournament) applyPlayerDrop(op Op) (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted); err != nil {
		return Payload{}, err
	}
	if err := t.Players.Drop(op.Actor); err != nil {
		return Payload{}, newError(ErrPlayerLookup, "no such player")
	}
	for _, r := range t.Rounds.PlayerActiveRounds(op.Actor) {
		r.DropPlayer(op.Actor)
	}
	return Payload{}, nil
}

func (t *Tournament) applyDropTarget(op Op, admin bool) (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted); err != nil {
		return Payload{}, err
	}
	if !admin {
		if err := t.requireActivePlayer(op.TargetPlayer); err != nil {
			return Payload{}, err
		}
	}
	if err := t.Players.Drop(op.TargetPlayer); err != nil {
		return Payload{}, newError(ErrPlayerLookup, "no such player")
	}
	for _, r := range t.Rounds.PlayerActiveRounds(op.TargetPlayer) {
		r.DropPlayer(op.TargetPlayer)
	}
	return Payload{}, nil
}

func (t *Tournament) applyAddDeck(op Op) (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted); err != nil {
		return Payload{}, err
	}
	p, perr := t.Players.Get(op.Actor)
	if perr != nil {
		return Payload{}, newError(ErrPlayerLookup, "no such player")
	}
	if t.Settings.MaxDeckCount > 0 && len(p.Decks) >= t.Settings.MaxDeckCount {
		return Payload{}, newError(ErrInvalidDeckCount, "maximum deck count reached")
	}
	p.AddDeck(player.Deck{Name: op.DeckName, Cards: op.DeckCards})
	return Payload{}, nil
}

func (t *Tournament) applyRemoveDeck(op Op) (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted); err != nil {
		return Payload{}, err
	}
	p, perr := t.Players.Get(op.Actor)
	if perr != nil {
		return Payload{}, newError(ErrPlayerLookup, "no such player")
	}
	if !p.RemoveDeck(op.DeckName) {
		return Payload{}, newError(ErrDeckLookup, "no such deck")
	}
	return Payload{}, nil
}

func (t *Tournament) applySetGamerTag(op Op) (Payload, error) {
	if err := t.requireStatus(StatusPlanned, StatusStarted); err != nil {
		return Payload{}, err
	}
	p, perr := t.Players.Get(op.Actor)
	if perr != nil {
		return Payload{}, newError(ErrPlayerLookup, "no such player")
	}
	p.GamerTag = op.GamerTag
	return Payload{}, nil
}

func (t *Tournament) applyGiveTimeExtension(op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	r, err := t.requireRound(op.RoundID)
	if err != nil {
		return Payload{}, err
	}
	r.Extension += op.Extension
	return Payload{Kind: PayloadRoundID, RoundID: r.ID}, nil
}

func (t *Tournament) applyUpdateSetting(op Op) (Payload, error) {
	if err := t.Settings.Apply(op.SettingUpdate); err != nil {
		switch err {
		case settings.ErrInvalidMatchSize:
			return Payload{}, newError(ErrInvalidMatchSize, err.Error())
		case settings.ErrInvalidDeckCount:
			return Payload{}, newError(ErrInvalidDeckCount, err.Error())
		case settings.ErrIncompatiblePairingSystem:
			return Payload{}, newError(ErrIncompatiblePairingSystem, err.Error())
		default:
			return Payload{}, newError(ErrIncompatibleScoringSystem, err.Error())
		}
	}
	t.Pairing.UpdateSettings(t.Settings.Pairing)
	return Payload{}, nil
}

// CreatePairings is a pure query against the pairing engine: it neither
// mutates the tournament nor is logged as an operation. PairRound is the
// corresponding mutation that persists whatever pairings value the caller
// supplies (typically the one this returned).
func (t *Tournament) CreatePairings() pairing.Pairings {
	plyrs := t.Pairing.DequeueReady(t.Pairing.QueueLen())
	result := t.Pairing.Pair(plyrs, t.opponentGraph())
	t.Pairing.Requeue(plyrs)
	return result
}

func (t *Tournament) applyCreateRound(salt ids.Salt, op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	if len(op.CreateRoundPlayers) != t.Pairing.Settings.MatchSize {
		return Payload{}, newError(ErrInvalidMatchSize, "player count does not match configured match size")
	}
	id := ids.NewRoundID()
	ctx := round.Context{Swiss: op.CreateRoundContext}
	r := t.Rounds.CreateRound(id, op.CreateRoundPlayers, op.CreateRoundLength, ctx, time.Now())
	return Payload{Kind: PayloadRoundID, RoundID: r.ID}, nil
}

func (t *Tournament) applyPairRound(salt ids.Salt, op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	if t.Settings.Style == settings.StyleSwiss {
		if !t.Pairing.ReadyToPairSwiss(t.Rounds.ActiveCount(), t.activePlayerIDs()) {
			return Payload{}, newError(ErrIncorrectRoundStatus, "a swiss round is already active or not every player has checked in")
		}
	}
	committed := make([]ids.PlayerID, 0, len(op.Pairings.Rejected))
	for _, group := range op.Pairings.Paired {
		committed = append(committed, group...)
	}
	committed = append(committed, op.Pairings.Rejected...)
	t.Pairing.DequeueSpecific(committed)
	roundIDs := t.materializePairing(salt, op.Pairings, t.Settings.Style == settings.StyleSwiss)
	return Payload{Kind: PayloadRoundIDs, RoundIDs: roundIDs}, nil
}

// materializePairing turns a Pairings value into rounds: one per paired
// group, plus (under Swiss style, when requested) a bye round for every
// rejected player.
func (t *Tournament) materializePairing(salt ids.Salt, p pairing.Pairings, giveByes bool) []ids.RoundID {
	var out []ids.RoundID
	length := 50 * time.Minute
	for _, group := range p.Paired {
		r := t.Rounds.CreateRound(ids.NewRoundID(), group, length, round.Context{Swiss: t.Settings.Style == settings.StyleSwiss}, time.Now())
		out = append(out, r.ID)
	}
	if giveByes {
		for _, rejected := range p.Rejected {
			r := t.Rounds.CreateBye(ids.NewRoundID(), rejected, time.Now())
			out = append(out, r.ID)
		}
	}
	return out
}

func (t *Tournament) applyGiveBye(salt ids.Salt, op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	if err := t.requireActivePlayer(op.TargetPlayer); err != nil {
		return Payload{}, err
	}
	r := t.Rounds.CreateBye(ids.NewRoundID(), op.TargetPlayer, time.Now())
	return Payload{Kind: PayloadRoundID, RoundID: r.ID}, nil
}

func (t *Tournament) applyCut(op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	standings := scoring.NewStandard(t.Settings.Scoring).GetStandings(t.Players, t.Rounds)
	if op.CutN >= len(standings) {
		return Payload{}, nil
	}
	for _, s := range standings[op.CutN:] {
		_ = t.Players.Drop(s.Player)
	}
	return Payload{}, nil
}

func (t *Tournament) applyKillRound(op Op) (Payload, error) {
	if err := t.requireStatus(StatusStarted); err != nil {
		return Payload{}, err
	}
	if err := t.Rounds.Kill(op.RoundID); err != nil {
		return Payload{}, newError(ErrRoundLookup, "no such round")
	}
	return Payload{}, nil
}
