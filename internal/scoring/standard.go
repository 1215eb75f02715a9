// Package scoring computes ranked standings from a tournament's round
// history under the standard match-point model.
package scoring

import (
	"sort"

	"tournament-core/internal/ids"
	"tournament-core/internal/player"
	"tournament-core/internal/players"
	"tournament-core/internal/round"
	"tournament-core/internal/rounds"
	"tournament-core/internal/settings"
)

// Score is one player's computed standing.
type Score struct {
	MatchPoints float64
	GamePoints  float64
	MWP         float64
	GWP         float64
	OppMWP      float64
	OppGWP      float64

	IncludeMatchPts bool
	IncludeGamePts  bool
	IncludeMWP      bool
	IncludeGWP      bool
	IncludeOppMWP   bool
	IncludeOppGWP   bool
}

// Less implements the structural ranking order: match-points first, then
// game-points, then the percentages in declared order, each descending.
func Less(a, b Score) bool {
	if a.MatchPoints != b.MatchPoints {
		return a.MatchPoints < b.MatchPoints
	}
	if a.GamePoints != b.GamePoints {
		return a.GamePoints < b.GamePoints
	}
	if a.MWP != b.MWP {
		return a.MWP < b.MWP
	}
	if a.GWP != b.GWP {
		return a.GWP < b.GWP
	}
	if a.OppMWP != b.OppMWP {
		return a.OppMWP < b.OppMWP
	}
	return a.OppGWP < b.OppGWP
}

// Standing pairs a player id with its computed score.
type Standing struct {
	Player ids.PlayerID
	Score  Score
}

// counter accumulates the raw per-player round tallies used to derive a
// Score.
type counter struct {
	player     ids.PlayerID
	games      int
	gameWins   int
	gameLosses int
	gameDraws  int
	roundsN    int
	wins       int
	losses     int
	draws      int
	byes       int
	opponents  map[ids.PlayerID]bool
}

func newCounter(p ids.PlayerID) *counter {
	return &counter{player: p, opponents: make(map[ids.PlayerID]bool)}
}

func (c *counter) addRound(r *round.Round) {
	c.roundsN++
	switch {
	case r.Winner != nil:
		if *r.Winner == c.player {
			c.wins++
		} else {
			c.losses++
		}
		c.games++
		for _, p := range r.Players {
			if p != c.player {
				c.opponents[p] = true
			}
		}
	case r.IsBye:
		c.byes++
	default:
		c.draws++
		c.games++
		for _, p := range r.Players {
			if p != c.player {
				c.opponents[p] = true
			}
		}
	}
	for p, wins := range r.Results {
		if p == c.player {
			c.gameWins += wins
		} else {
			c.gameLosses += wins
		}
	}
}

// Standard computes standings using the configurable standard scoring
// model.
type Standard struct {
	Settings settings.ScoringSettings
}

func NewStandard(s settings.ScoringSettings) Standard { return Standard{Settings: s} }

func (s Standard) newScore() Score {
	return Score{
		IncludeMatchPts: s.Settings.IncludeMatchPts,
		IncludeGamePts:  s.Settings.IncludeGamePts,
		IncludeMWP:      s.Settings.IncludeMWP,
		IncludeGWP:      s.Settings.IncludeGWP,
		IncludeOppMWP:   s.Settings.IncludeOppMWP,
		IncludeOppGWP:   s.Settings.IncludeOppGWP,
	}
}

func (s Standard) matchPointsWithByes(c *counter) float64 {
	st := s.Settings
	return float64(st.MatchWinPoints*c.wins + st.MatchDrawPoints*c.draws + st.MatchLossPoints*c.losses + st.ByePoints*c.byes)
}

func (s Standard) matchPointsWithoutByes(c *counter) float64 {
	st := s.Settings
	return float64(st.MatchWinPoints*c.wins + st.MatchDrawPoints*c.draws + st.MatchLossPoints*c.losses)
}

func (s Standard) gamePoints(c *counter) float64 {
	st := s.Settings
	return float64(st.GameWinPoints*c.gameWins + st.GameDrawPoints*c.gameDraws + st.GameLossPoints*c.gameLosses)
}

// GetStandings computes the ranked list of standings for every player who
// can still play, descending by the structural score order.
func (s Standard) GetStandings(reg *players.Registry, rReg *rounds.Registry) []Standing {
	counters := make(map[ids.PlayerID]*counter)
	for _, p := range reg.All() {
		counters[p.ID] = newCounter(p.ID)
	}
	for _, r := range rReg.All() {
		if !r.IsCertified() {
			continue
		}
		if r.IsBye && !s.Settings.IncludeByes {
			continue
		}
		for _, p := range r.Players {
			if c, ok := counters[p]; ok {
				c.addRound(r)
			}
		}
	}

	scores := make(map[ids.PlayerID]Score, len(counters))
	for id, c := range counters {
		sc := s.newScore()
		sc.MatchPoints = s.matchPointsWithByes(c)
		sc.GamePoints = s.gamePoints(c)
		if c.roundsN != c.byes {
			winPts := float64(s.Settings.MatchWinPoints)
			gameWinPts := float64(s.Settings.GameWinPoints)
			if winPts > 0 {
				sc.MWP = sc.MatchPoints / (winPts * float64(c.roundsN))
			}
			if gameWinPts > 0 && c.games > 0 {
				sc.GWP = sc.GamePoints / (gameWinPts * float64(c.games))
			}
		}
		scores[id] = sc
	}

	for id, c := range counters {
		if c.roundsN == c.byes {
			continue
		}
		sc := scores[id]
		var oppMP, oppGP float64
		var oppMatches, oppGames int
		for opp := range c.opponents {
			if opp == id {
				continue
			}
			oc, ok := counters[opp]
			if !ok {
				continue
			}
			oppMP += s.matchPointsWithoutByes(oc)
			oppMatches += oc.roundsN - oc.byes
			oppGP += s.gamePoints(oc)
			oppGames += oc.games
		}
		if oppMatches > 0 && s.Settings.MatchWinPoints > 0 {
			sc.OppMWP = oppMP / (float64(s.Settings.MatchWinPoints) * float64(oppMatches))
		}
		if oppGames > 0 && s.Settings.GameWinPoints > 0 {
			sc.OppGWP = oppGP / (float64(s.Settings.GameWinPoints) * float64(oppGames))
		}
		scores[id] = sc
	}

	out := make([]Standing, 0, len(scores))
	for id, sc := range scores {
		p, err := reg.Get(id)
		if err != nil || !canPlay(p) {
			continue
		}
		out = append(out, Standing{Player: id, Score: sc})
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[j].Score, out[i].Score) })
	return out
}

func canPlay(p *player.Player) bool { return p.CanPlay() }
