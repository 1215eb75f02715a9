// Package ids defines the opaque 128-bit identifier types used across the
// tournament core. Every entity kind gets its own named type so a round id
// can never be passed where a player id is expected.
package ids

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/google/uuid"
)

// TournamentID identifies a single tournament.
type TournamentID uuid.UUID

// PlayerID identifies a single player (registered account or guest).
type PlayerID uuid.UUID

// RoundID identifies a single round.
type RoundID uuid.UUID

// OpID identifies a single log entry. Unlike the others it is never random:
// it is derived from a wall-clock salt plus the operation's content so that
// two operations with identical payloads created independently still get
// distinct ids.
type OpID uuid.UUID

// AccountID identifies a SquireAccount (a durable identity behind one or
// more player ids across tournaments).
type AccountID uuid.UUID

// DialogueID identifies one multi-round sync or forward conversation.
type DialogueID uuid.UUID

func (t TournamentID) String() string { return uuid.UUID(t).String() }
func (p PlayerID) String() string     { return uuid.UUID(p).String() }
func (r RoundID) String() string      { return uuid.UUID(r).String() }
func (o OpID) String() string         { return uuid.UUID(o).String() }
func (a AccountID) String() string    { return uuid.UUID(a).String() }
func (d DialogueID) String() string   { return uuid.UUID(d).String() }

func (t TournamentID) IsZero() bool { return t == TournamentID{} }
func (p PlayerID) IsZero() bool     { return p == PlayerID{} }
func (r RoundID) IsZero() bool      { return r == RoundID{} }
func (o OpID) IsZero() bool         { return o == OpID{} }

// NewTournamentID mints a fresh random tournament id.
func NewTournamentID() TournamentID { return TournamentID(uuid.New()) }

// NewPlayerID mints a fresh random player id, used when registering a known
// account.
func NewPlayerID() PlayerID { return PlayerID(uuid.New()) }

// NewRoundID mints a fresh random round id.
func NewRoundID() RoundID { return RoundID(uuid.New()) }

// NewAccountID mints a fresh random account id.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewDialogueID mints a fresh random dialogue id.
func NewDialogueID() DialogueID { return DialogueID(uuid.New()) }

// ParseAccountID parses a canonical UUID string into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParsePlayerID parses a canonical UUID string into a PlayerID.
func ParsePlayerID(s string) (PlayerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PlayerID{}, err
	}
	return PlayerID(u), nil
}

// ParseTournamentID parses a canonical UUID string into a TournamentID.
func ParseTournamentID(s string) (TournamentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TournamentID{}, err
	}
	return TournamentID(u), nil
}

// Salt is the wall-clock value recorded alongside an operation. It is never
// compared for physical time ordering, only hashed for id derivation and
// used as a last-resort tie-break.
type Salt int64

// GuestPlayerID derives a player id for a guest registration from the salt
// and the chosen name. Two peers registering a guest with the same name
// under different salts get different ids; the sync protocol's id-rewrite
// path is what reconciles the duplication later.
func GuestPlayerID(salt Salt, name string) PlayerID {
	return PlayerID(hashToUUID(salt, []byte("guest"), []byte(name)))
}

// OperationID derives the id of one log entry from its salt and an
// encoding of its payload. Payload is any byte representation the caller
// considers canonical for that operation (e.g. a deterministic encoding of
// the TournOp).
func OperationID(salt Salt, payload []byte) OpID {
	return OpID(hashToUUID(salt, []byte("op"), payload))
}

func hashToUUID(salt Salt, parts ...[]byte) uuid.UUID {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(salt))
	h.Write(buf[:])
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	var u uuid.UUID
	copy(u[:], sum[:16])
	// Stamp as a version-4-shaped, variant-RFC4122 value so it still reads
	// as a well-formed UUID even though it is fully deterministic.
	u[6] = (u[6] & 0x0f) | 0x40
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}
