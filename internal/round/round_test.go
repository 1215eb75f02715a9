package round

import (
	"testing"
	"time"

	"tournament-core/internal/ids"
)

func TestNewRoundIsOpen(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())

	if r.Status != StatusOpen {
		t.Fatalf("expected a new round to be open, got %v", r.Status)
	}
	if !r.IsActive() {
		t.Fatalf("an open round should be active")
	}
	if r.HasResult() {
		t.Fatalf("a new round should have no result yet")
	}
}

func TestNewByeIsImmediatelyCertified(t *testing.T) {
	p := ids.NewPlayerID()
	r := NewBye(ids.NewRoundID(), 1, 1, p, time.Now())

	if !r.IsCertified() {
		t.Fatalf("a bye should be certified on creation")
	}
	if r.Winner == nil || *r.Winner != p {
		t.Fatalf("a bye should declare its sole player the winner")
	}
}

func TestRecordResultDeclaresWinner(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())

	r.RecordResult(a, 2)
	r.RecordResult(b, 1)

	if r.Winner == nil || *r.Winner != a {
		t.Fatalf("expected player a (2 wins) to be declared the winner")
	}
}

func TestRecordResultTieHasNoWinner(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())

	r.RecordResult(a, 1)
	r.RecordResult(b, 1)

	if r.Winner != nil {
		t.Fatalf("a tied result should have no declared winner")
	}
}

func TestRecordResultClearsConfirmationsWhileOpen(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())
	r.RecordResult(a, 2)
	r.ConfirmResult(a)

	r.RecordResult(a, 3) // a new result supersedes the prior confirmation
	if r.Confirmations[a] {
		t.Fatalf("recording a new result should clear prior confirmations")
	}
}

func TestRecordDrawClearsWinnerAndIncrementsCount(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())
	r.RecordResult(a, 2)

	r.RecordDraw()

	if r.Winner != nil {
		t.Fatalf("a recorded draw should clear any previously declared winner")
	}
	if r.Draws != 1 {
		t.Fatalf("expected Draws to be 1, got %d", r.Draws)
	}
	if !r.HasResult() {
		t.Fatalf("a round with a recorded draw should report HasResult")
	}
}

func TestRecordDrawClearsConfirmationsWhileOpen(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())
	r.RecordResult(a, 2)
	r.ConfirmResult(a)

	r.RecordDraw()

	if r.Confirmations[a] {
		t.Fatalf("recording a draw should clear prior confirmations like RecordResult does")
	}
}

func TestConfirmResultCertifiesOnceAllAccountedFor(t *testing.T) {
	a, b, c := ids.NewPlayerID(), ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b, c}, time.Minute, Context{}, time.Now())
	r.RecordResult(a, 2)
	r.DropPlayer(c)

	if status := r.ConfirmResult(a); status != StatusOpen {
		t.Fatalf("round should remain open with one of two non-dropped players still unconfirmed")
	}
	if status := r.ConfirmResult(b); status != StatusCertified {
		t.Fatalf("round should certify once every non-dropped player has confirmed, got %v", status)
	}
}

func TestConfirmResultIsNoOpForDroppedPlayer(t *testing.T) {
	a, b := ids.NewPlayerID(), ids.NewPlayerID()
	r := New(ids.NewRoundID(), 1, 1, []ids.PlayerID{a, b}, time.Minute, Context{}, time.Now())
	r.DropPlayer(a)

	status := r.ConfirmResult(a)
	if status != StatusOpen {
		t.Fatalf("confirming on behalf of a dropped player should not change round status")
	}
	if r.Confirmations[a] {
		t.Fatalf("confirming on behalf of a dropped player should not record a confirmation")
	}
}

func TestKillMarksRoundInactive(t *testing.T) {
	a := ids.NewPlayerID()
	r := NewBye(ids.NewRoundID(), 1, 1, a, time.Now())
	r.Kill()
	if r.IsActive() {
		t.Fatalf("a killed round should no longer be active")
	}
}
