package ids

import "testing"

func TestNewIDsAreUnique(t *testing.T) {
	a := NewTournamentID()
	b := NewTournamentID()
	if a == b {
		t.Fatalf("expected distinct tournament ids, got the same value twice")
	}
}

func TestZeroValueIsZero(t *testing.T) {
	var t1 TournamentID
	if !t1.IsZero() {
		t.Fatalf("zero-value TournamentID should report IsZero")
	}
	if NewTournamentID().IsZero() {
		t.Fatalf("freshly generated TournamentID should not report IsZero")
	}
}

func TestParseTournamentIDRoundTrip(t *testing.T) {
	original := NewTournamentID()
	parsed, err := ParseTournamentID(original.String())
	if err != nil {
		t.Fatalf("ParseTournamentID: %v", err)
	}
	if parsed != original {
		t.Fatalf("round-tripped id %s does not match original %s", parsed, original)
	}
}

func TestParseTournamentIDRejectsGarbage(t *testing.T) {
	if _, err := ParseTournamentID("not-a-uuid"); err == nil {
		t.Fatalf("expected an error parsing a malformed tournament id")
	}
}

func TestGuestPlayerIDIsDeterministic(t *testing.T) {
	a := GuestPlayerID(Salt(1), "Alex")
	b := GuestPlayerID(Salt(1), "Alex")
	if a != b {
		t.Fatalf("same salt and name should derive the same guest id")
	}
}

func TestGuestPlayerIDDiffersBySalt(t *testing.T) {
	a := GuestPlayerID(Salt(1), "Alex")
	b := GuestPlayerID(Salt(2), "Alex")
	if a == b {
		t.Fatalf("different salts should derive different guest ids for the same name")
	}
}

func TestGuestPlayerIDDiffersByName(t *testing.T) {
	a := GuestPlayerID(Salt(1), "Alex")
	b := GuestPlayerID(Salt(1), "Sam")
	if a == b {
		t.Fatalf("different names should derive different guest ids under the same salt")
	}
}

func TestOperationIDIsDeterministic(t *testing.T) {
	payload := []byte("some-op-payload")
	a := OperationID(Salt(7), payload)
	b := OperationID(Salt(7), payload)
	if a != b {
		t.Fatalf("same salt and payload should derive the same operation id")
	}
}
