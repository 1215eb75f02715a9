// Package settings implements the tournament's typed, hierarchical
// configuration tree and its per-leaf validated updates.
package settings

import "fmt"

// Format is the tournament's game format label (e.g. "standard", "draft").
// It is a free-form string; the core does not interpret it beyond storage.
type Format string

// PairingAlgorithm selects which pairing algorithm the pairing engine runs.
type PairingAlgorithm int

const (
	AlgorithmGreedy PairingAlgorithm = iota
	AlgorithmBranching
	AlgorithmRotary
)

// PairingStyle selects when pairings are produced.
type PairingStyle int

const (
	StyleSwiss PairingStyle = iota
	StyleFluid
)

// Update is a tagged variant describing exactly one leaf mutation. Exactly
// one of the Set* fields is meaningful, selected by Kind.
type Update struct {
	Kind Kind

	Format              Format
	StartingTableNumber int
	UseTableNumbers     bool
	MinDeckCount        int
	MaxDeckCount        int
	RequireCheckIn      bool
	RequireDeckReg      bool

	MatchSize       int
	RepairTolerance int
	Algorithm       PairingAlgorithm
	SwissDoCheckIns bool

	MatchWinPoints   int
	MatchDrawPoints  int
	MatchLossPoints  int
	GameWinPoints    int
	GameDrawPoints   int
	GameLossPoints   int
	ByePoints        int
	IncludeByes      bool
	IncludeMatchPts  bool
	IncludeGamePts   bool
	IncludeMWP       bool
	IncludeGWP       bool
	IncludeOppMWP    bool
	IncludeOppGWP    bool
}

// Kind enumerates every updatable leaf across the tree.
type Kind int

const (
	KindFormat Kind = iota
	KindStartingTableNumber
	KindUseTableNumbers
	KindMinDeckCount
	KindMaxDeckCount
	KindRequireCheckIn
	KindRequireDeckReg

	KindMatchSize
	KindRepairTolerance
	KindAlgorithm
	KindSwissDoCheckIns
	// KindFluid* is reserved: the fluid pairing settings sub-tree has no
	// leaves of its own today, matching the upstream design where
	// FluidPairingsSetting carries no variants.

	KindScoringStandard
)

// ScoringSettings is the standard-scoring leaf group: six point constants
// and six inclusion flags.
type ScoringSettings struct {
	MatchWinPoints  int
	MatchDrawPoints int
	MatchLossPoints int
	GameWinPoints   int
	GameDrawPoints  int
	GameLossPoints  int
	ByePoints       int

	IncludeByes     bool
	IncludeMatchPts bool
	IncludeGamePts  bool
	IncludeMWP      bool
	IncludeGWP      bool
	IncludeOppMWP   bool
	IncludeOppGWP   bool
}

// DefaultScoringSettings matches the conventional Swiss point schedule.
func DefaultScoringSettings() ScoringSettings {
	return ScoringSettings{
		MatchWinPoints:  3,
		MatchDrawPoints: 1,
		MatchLossPoints: 0,
		GameWinPoints:   3,
		GameDrawPoints:  1,
		GameLossPoints:  0,
		ByePoints:       3,
		IncludeMatchPts: true,
		IncludeGamePts:  true,
		IncludeMWP:      true,
		IncludeGWP:      true,
		IncludeOppMWP:   true,
		IncludeOppGWP:   true,
	}
}

// PairingSettings is the pairing-common plus pairing-style leaf group.
type PairingSettings struct {
	MatchSize       int
	RepairTolerance int
	Algorithm       PairingAlgorithm
	SwissDoCheckIns bool
}

// DefaultPairingSettings is a two-player, zero-tolerance, branching Swiss
// default.
func DefaultPairingSettings() PairingSettings {
	return PairingSettings{
		MatchSize:       2,
		RepairTolerance: 0,
		Algorithm:       AlgorithmBranching,
	}
}

// Tree is the full settings tree owned by a tournament.
type Tree struct {
	Format              Format
	StartingTableNumber int
	UseTableNumbers     bool
	MinDeckCount        int
	MaxDeckCount        int
	RequireCheckIn      bool
	RequireDeckReg      bool
	Style               PairingStyle

	Pairing PairingSettings
	Scoring ScoringSettings
}

// NewTree builds a tree with sane defaults for the given pairing style.
func NewTree(style PairingStyle) Tree {
	return Tree{
		UseTableNumbers: true,
		MinDeckCount:    1,
		MaxDeckCount:    1,
		Style:           style,
		Pairing:         DefaultPairingSettings(),
		Scoring:         DefaultScoringSettings(),
	}
}

// ErrInvalidMatchSize is returned when an update would set a non-positive
// match size.
var ErrInvalidMatchSize = fmt.Errorf("match size must be positive")

// ErrInvalidDeckCount is returned when min-deck-count would exceed
// max-deck-count.
var ErrInvalidDeckCount = fmt.Errorf("min deck count must not exceed max deck count")

// ErrIncompatiblePairingSystem is returned when a Swiss-only or Fluid-only
// setting is applied under the other style.
var ErrIncompatiblePairingSystem = fmt.Errorf("setting is incompatible with the current pairing style")

// Apply validates and applies one leaf update.
func (t *Tree) Apply(u Update) error {
	switch u.Kind {
	case KindFormat:
		t.Format = u.Format
	case KindStartingTableNumber:
		t.StartingTableNumber = u.StartingTableNumber
	case KindUseTableNumbers:
		t.UseTableNumbers = u.UseTableNumbers
	case KindMinDeckCount:
		if u.MinDeckCount > t.MaxDeckCount {
			return ErrInvalidDeckCount
		}
		t.MinDeckCount = u.MinDeckCount
	case KindMaxDeckCount:
		if t.MinDeckCount > u.MaxDeckCount {
			return ErrInvalidDeckCount
		}
		t.MaxDeckCount = u.MaxDeckCount
	case KindRequireCheckIn:
		t.RequireCheckIn = u.RequireCheckIn
	case KindRequireDeckReg:
		t.RequireDeckReg = u.RequireDeckReg
	case KindMatchSize:
		if u.MatchSize <= 0 {
			return ErrInvalidMatchSize
		}
		t.Pairing.MatchSize = u.MatchSize
	case KindRepairTolerance:
		t.Pairing.RepairTolerance = u.RepairTolerance
	case KindAlgorithm:
		t.Pairing.Algorithm = u.Algorithm
	case KindSwissDoCheckIns:
		if t.Style != StyleSwiss {
			return ErrIncompatiblePairingSystem
		}
		t.Pairing.SwissDoCheckIns = u.SwissDoCheckIns
	case KindScoringStandard:
		t.Scoring = ScoringSettings{
			MatchWinPoints:  u.MatchWinPoints,
			MatchDrawPoints: u.MatchDrawPoints,
			MatchLossPoints: u.MatchLossPoints,
			GameWinPoints:   u.GameWinPoints,
			GameDrawPoints:  u.GameDrawPoints,
			GameLossPoints:  u.GameLossPoints,
			ByePoints:       u.ByePoints,
			IncludeByes:     u.IncludeByes,
			IncludeMatchPts: u.IncludeMatchPts,
			IncludeGamePts:  u.IncludeGamePts,
			IncludeMWP:      u.IncludeMWP,
			IncludeGWP:      u.IncludeGWP,
			IncludeOppMWP:   u.IncludeOppMWP,
			IncludeOppGWP:   u.IncludeOppGWP,
		}
	default:
		return fmt.Errorf("settings: unknown update kind %d", u.Kind)
	}
	return nil
}

// Each yields every current leaf of the tree as the same Update variant it
// would take to set that leaf, letting a caller re-apply "the current
// defaults" as one traversal (e.g. when seeding a fresh tournament from a
// template).
func (t *Tree) Each(fn func(Update)) {
	fn(Update{Kind: KindFormat, Format: t.Format})
	fn(Update{Kind: KindStartingTableNumber, StartingTableNumber: t.StartingTableNumber})
	fn(Update{Kind: KindUseTableNumbers, UseTableNumbers: t.UseTableNumbers})
	fn(Update{Kind: KindMinDeckCount, MinDeckCount: t.MinDeckCount, MaxDeckCount: t.MaxDeckCount})
	fn(Update{Kind: KindMaxDeckCount, MinDeckCount: t.MinDeckCount, MaxDeckCount: t.MaxDeckCount})
	fn(Update{Kind: KindRequireCheckIn, RequireCheckIn: t.RequireCheckIn})
	fn(Update{Kind: KindRequireDeckReg, RequireDeckReg: t.RequireDeckReg})
	fn(Update{Kind: KindMatchSize, MatchSize: t.Pairing.MatchSize})
	fn(Update{Kind: KindRepairTolerance, RepairTolerance: t.Pairing.RepairTolerance})
	fn(Update{Kind: KindAlgorithm, Algorithm: t.Pairing.Algorithm})
	if t.Style == StyleSwiss {
		fn(Update{Kind: KindSwissDoCheckIns, SwissDoCheckIns: t.Pairing.SwissDoCheckIns})
	}
	s := t.Scoring
	fn(Update{
		Kind: KindScoringStandard,
		MatchWinPoints: s.MatchWinPoints, MatchDrawPoints: s.MatchDrawPoints, MatchLossPoints: s.MatchLossPoints,
		GameWinPoints: s.GameWinPoints, GameDrawPoints: s.GameDrawPoints, GameLossPoints: s.GameLossPoints,
		ByePoints: s.ByePoints, IncludeByes: s.IncludeByes, IncludeMatchPts: s.IncludeMatchPts,
		IncludeGamePts: s.IncludeGamePts, IncludeMWP: s.IncludeMWP, IncludeGWP: s.IncludeGWP,
		IncludeOppMWP: s.IncludeOppMWP, IncludeOppGWP: s.IncludeOppGWP,
	})
}
