package tournament

import (
	"errors"
	"testing"

	"tournament-core/internal/ids"
	"tournament-core/internal/round"
	"tournament-core/internal/settings"
)

func newTestTournament() *Tournament {
	return New(ids.NewTournamentID(), Seed{Name: "Test Cup", Preset: settings.StyleSwiss, Format: "standard"})
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected a *tournament.Error, got %T (%v)", err, err)
	}
	return terr.Kind
}

func TestNewTournamentIsPlanned(t *testing.T) {
	tn := newTestTournament()
	if !tn.IsPlanned() {
		t.Fatalf("expected a freshly created tournament to be Planned")
	}
	if !tn.RegOpen {
		t.Fatalf("expected registration to start open")
	}
}

func TestRegisterPlayerWhileOpen(t *testing.T) {
	tn := newTestTournament()
	payload, err := tn.Apply(1, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "Alex"})
	if err != nil {
		t.Fatalf("Apply(RegisterPlayer): %v", err)
	}
	if payload.Kind != PayloadPlayerID {
		t.Fatalf("expected a PlayerID payload, got kind %d", payload.Kind)
	}
}

func TestRegisterPlayerRejectedWhenClosed(t *testing.T) {
	tn := newTestTournament()
	tn.RegOpen = false
	_, err := tn.Apply(1, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "Alex"})
	if kindOf(t, err) != ErrRegClosed {
		t.Fatalf("expected ErrRegClosed, got %v", err)
	}
}

func TestAdminOpRequiresAuthorization(t *testing.T) {
	tn := newTestTournament()
	_, err := tn.Apply(1, Op{Kind: KindAdminStart, OfficialID: ids.NewAccountID()})
	if kindOf(t, err) != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized for a non-admin caller, got %v", err)
	}
}

func TestAdminStartTransitionsStatus(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true

	if _, err := tn.Apply(1, Op{Kind: KindAdminStart, OfficialID: admin}); err != nil {
		t.Fatalf("Apply(AdminStart): %v", err)
	}
	if !tn.IsActive() {
		t.Fatalf("expected the tournament to be active after starting")
	}
	if tn.RegOpen {
		t.Fatalf("expected registration to close on start")
	}
}

func TestAdminStartTwiceFails(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	if _, err := tn.Apply(1, Op{Kind: KindAdminStart, OfficialID: admin}); err != nil {
		t.Fatalf("Apply(AdminStart): %v", err)
	}
	_, err := tn.Apply(1, Op{Kind: KindAdminStart, OfficialID: admin})
	if kindOf(t, err) != ErrIncorrectStatus {
		t.Fatalf("expected ErrIncorrectStatus starting an already-started tournament, got %v", err)
	}
}

func TestFreezeThawRoundTrip(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})

	mustApply(t, tn, Op{Kind: KindAdminFreeze, OfficialID: admin})
	if !tn.IsFrozen() {
		t.Fatalf("expected tournament to be frozen")
	}

	mustApply(t, tn, Op{Kind: KindAdminThaw, OfficialID: admin})
	if tn.Status != StatusStarted {
		t.Fatalf("expected tournament to return to Started after thaw, got %v", tn.Status)
	}
}

func mustApply(t *testing.T, tn *Tournament, op Op) Payload {
	t.Helper()
	payload, err := tn.Apply(1, op)
	if err != nil {
		t.Fatalf("Apply(%d): %v", op.Kind, err)
	}
	return payload
}

func TestJudgeOpAuthorizedForJudge(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	judge := ids.NewAccountID()
	tn.Admins[admin] = true
	tn.Judges[judge] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})
	// Starting closes registration; reopen it for the players below.
	mustApply(t, tn, Op{Kind: KindAdminUpdateReg, OfficialID: admin, RegOpen: true})

	regPayload := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "Alex"})
	target := regPayload.PlayerID

	roundPayload := mustApply(t, tn, Op{
		Kind:               KindAdminCreateRound,
		OfficialID:         admin,
		CreateRoundPlayers: []ids.PlayerID{target, ids.NewPlayerID()},
	})
	_ = roundPayload

	// A judge (not an admin) recording a result should be authorized.
	payload, err := tn.Apply(1, Op{
		Kind:         KindJudgeRecordResult,
		OfficialID:   judge,
		TargetPlayer: target,
		RoundID:      roundPayload.RoundID,
		Wins:         2,
	})
	if err != nil {
		t.Fatalf("Apply(JudgeRecordResult) as judge: %v", err)
	}
	if payload.RoundID != roundPayload.RoundID {
		t.Fatalf("expected the result applied to the round created above")
	}
}

func TestPlayerRecordResultAndConfirmCertifiesRound(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})
	// Starting closes registration; reopen it for the players below.
	mustApply(t, tn, Op{Kind: KindAdminUpdateReg, OfficialID: admin, RegOpen: true})

	aReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "A"})
	bReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "B"})
	a, b := aReg.PlayerID, bReg.PlayerID

	roundPayload := mustApply(t, tn, Op{
		Kind:               KindAdminCreateRound,
		OfficialID:         admin,
		CreateRoundPlayers: []ids.PlayerID{a, b},
	})
	roundID := roundPayload.RoundID

	mustApply(t, tn, Op{Kind: KindPlayerRecordResult, Actor: a, RoundID: roundID, Wins: 2})
	mustApply(t, tn, Op{Kind: KindPlayerConfirmRound, Actor: a, RoundID: roundID})
	confirmB := mustApply(t, tn, Op{Kind: KindPlayerConfirmRound, Actor: b, RoundID: roundID})

	if confirmB.RoundStatus != round.StatusCertified {
		t.Fatalf("expected the round to certify once both players confirm, got status %v", confirmB.RoundStatus)
	}
}

func TestPlayerRecordResultDrawSetsNoWinner(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})
	// Starting closes registration; reopen it for the players below.
	mustApply(t, tn, Op{Kind: KindAdminUpdateReg, OfficialID: admin, RegOpen: true})

	aReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "A"})
	bReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "B"})
	a, b := aReg.PlayerID, bReg.PlayerID

	roundPayload := mustApply(t, tn, Op{
		Kind:               KindAdminCreateRound,
		OfficialID:         admin,
		CreateRoundPlayers: []ids.PlayerID{a, b},
	})
	roundID := roundPayload.RoundID

	mustApply(t, tn, Op{Kind: KindPlayerRecordResult, Actor: a, RoundID: roundID, IsDraw: true})

	r, err := tn.Rounds.Get(roundID)
	if err != nil {
		t.Fatalf("Rounds.Get: %v", err)
	}
	if r.Draws != 1 {
		t.Fatalf("expected a recorded draw operation to reach Round.Draws, got %d", r.Draws)
	}
	if r.Winner != nil {
		t.Fatalf("a draw result should leave the round with no declared winner")
	}
}

func TestConfirmRoundWithoutResultFails(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})
	// Starting closes registration; reopen it for the players below.
	mustApply(t, tn, Op{Kind: KindAdminUpdateReg, OfficialID: admin, RegOpen: true})

	aReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "A"})
	bReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "B"})
	roundPayload := mustApply(t, tn, Op{
		Kind:               KindAdminCreateRound,
		OfficialID:         admin,
		CreateRoundPlayers: []ids.PlayerID{aReg.PlayerID, bReg.PlayerID},
	})

	_, err := tn.Apply(1, Op{Kind: KindPlayerConfirmRound, Actor: aReg.PlayerID, RoundID: roundPayload.RoundID})
	if kindOf(t, err) != ErrNoMatchResult {
		t.Fatalf("expected ErrNoMatchResult confirming before any result is recorded, got %v", err)
	}
}

func TestAdminPairRoundDequeuesCommittedSwissPlayers(t *testing.T) {
	tn := newTestTournament() // Swiss style
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})
	// Starting closes registration; reopen it for the players below.
	mustApply(t, tn, Op{Kind: KindAdminUpdateReg, OfficialID: admin, RegOpen: true})

	aReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "A"})
	bReg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "B"})
	a, b := aReg.PlayerID, bReg.PlayerID

	mustApply(t, tn, Op{Kind: KindPlayerReady, Actor: a})
	mustApply(t, tn, Op{Kind: KindPlayerReady, Actor: b})

	if tn.Pairing.QueueLen() != 2 {
		t.Fatalf("expected both readied players in the queue, got %d", tn.Pairing.QueueLen())
	}

	pairings := tn.CreatePairings()
	mustApply(t, tn, Op{Kind: KindAdminPairRound, OfficialID: admin, Pairings: pairings})

	if tn.Pairing.QueueLen() != 0 {
		t.Fatalf("expected committing a swiss pairing to dequeue every paired player, got %d still queued", tn.Pairing.QueueLen())
	}

	// A second pairing attempt with nobody newly readied should find an
	// empty queue, not the same two players still sitting there from
	// round one.
	second := tn.CreatePairings()
	if len(second.Paired) != 0 || len(second.Rejected) != 0 {
		t.Fatalf("expected an empty pairing result with the queue drained, got %+v", second)
	}
}

func TestUpdateSettingPropagatesIntoPairingEngine(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true

	mustApply(t, tn, Op{
		Kind:       KindAdminUpdateSetting,
		OfficialID: admin,
		SettingUpdate: settings.Update{
			Kind:      settings.KindMatchSize,
			MatchSize: 4,
		},
	})
	if tn.Pairing.Settings.MatchSize != 4 {
		t.Fatalf("expected the pairing engine's settings to pick up the update, got %d", tn.Pairing.Settings.MatchSize)
	}
}

func TestDropRemovesPlayerFromActivePlay(t *testing.T) {
	tn := newTestTournament()
	admin := ids.NewAccountID()
	tn.Admins[admin] = true
	mustApply(t, tn, Op{Kind: KindAdminStart, OfficialID: admin})
	// Starting closes registration; reopen it for the player below.
	mustApply(t, tn, Op{Kind: KindAdminUpdateReg, OfficialID: admin, RegOpen: true})

	reg := mustApply(t, tn, Op{Kind: KindRegisterPlayer, AccountID: ids.NewAccountID(), PlayerName: "A"})
	mustApply(t, tn, Op{Kind: KindPlayerDrop, Actor: reg.PlayerID})

	p, err := tn.Players.Get(reg.PlayerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.CanPlay() {
		t.Fatalf("expected the dropped player to no longer be able to play")
	}
}
