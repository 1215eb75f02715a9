package tournament

import (
	"time"

	"tournament-core/internal/ids"
	"tournament-core/internal/pairing"
	"tournament-core/internal/round"
	"tournament-core/internal/settings"
)

// OpKind tags which of the five outer Operation cases (and, for PlayerOp /
// JudgeOp / AdminOp, which inner mutation) a given Op carries.
type OpKind int

const (
	KindCreate OpKind = iota
	KindRegisterPlayer

	// PlayerOp inner kinds: self-service mutations invoked by Op.Actor.
	// Check-in and ready reject an unregistered or Dropped actor; drop and
	// the deck and gamer-tag kinds reject only an unregistered actor;
	// record-result and confirm-round check only that the actor is seated
	// in the round; unready does not check the actor.
	KindPlayerCheckIn
	KindPlayerReady
	KindPlayerUnready
	KindPlayerRecordResult
	KindPlayerConfirmRound
	KindPlayerDrop
	KindPlayerAddDeck
	KindPlayerRemoveDeck
	KindPlayerSetGamerTag

	// JudgeOp inner kinds: gated by Op.OfficialID being an admin or judge.
	KindJudgeRecordResult
	KindJudgeConfirmRound
	KindJudgeGiveTimeExtension
	KindJudgeDropPlayer

	// AdminOp inner kinds: gated by Op.OfficialID being an admin.
	KindAdminStart
	KindAdminFreeze
	KindAdminThaw
	KindAdminEnd
	KindAdminCancel
	KindAdminUpdateReg
	KindAdminUpdateSetting
	KindAdminCreateRound
	KindAdminPairRound
	KindAdminGiveBye
	KindAdminCut
	KindAdminDrop
	KindAdminKillRound
)

// Op is a tagged-variant representation of the spec's Operation: one
// outer case (Create / RegisterPlayer / PlayerOp / JudgeOp / AdminOp), each
// inner case a further mutation. Exactly the fields relevant to Kind are
// meaningful on any given value.
type Op struct {
	Kind OpKind

	// Create
	Name   string
	Preset settings.PairingStyle
	Format settings.Format

	// RegisterPlayer
	AccountID  ids.AccountID
	PlayerName string
	IsGuest    bool

	// Principal: the player (PlayerOp) or official account (JudgeOp /
	// AdminOp) invoking this operation.
	Actor      ids.PlayerID
	OfficialID ids.AccountID

	// Player/round targeting, shared across many inner kinds.
	TargetPlayer ids.PlayerID
	RoundID      ids.RoundID
	Wins         int
	IsDraw       bool

	DeckName  string
	DeckCards []string
	GamerTag  string

	Extension time.Duration

	RegOpen       bool
	SettingUpdate settings.Update

	CreateRoundPlayers []ids.PlayerID
	CreateRoundLength  time.Duration
	CreateRoundContext bool // true marks the round as Swiss-contextual

	Pairings pairing.Pairings

	CutN int
}

// PayloadKind tags which field of Payload is meaningful.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadTournamentID
	PayloadPlayerID
	PayloadRoundStatus
	PayloadRoundID
	PayloadRoundIDs
	PayloadPairings
)

// Payload is the discriminated success value returned from Apply.
type Payload struct {
	Kind PayloadKind

	TournamentID ids.TournamentID
	PlayerID     ids.PlayerID
	RoundStatus  round.Status
	RoundID      ids.RoundID
	RoundIDs     []ids.RoundID
	Pairings     pairing.Pairings
}
