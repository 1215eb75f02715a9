// Package pairing produces player groupings for a round of play: the
// pairing algorithms (greedy, branching, rotary), the Swiss/Fluid ready
// queue, and the Engine that ties them together.
package pairing

import (
	"tournament-core/internal/ids"
	"tournament-core/internal/settings"
)

// Pairings is the output of one pairing attempt: groups of seated players
// plus anyone who could not be seated.
type Pairings struct {
	Paired   [][]ids.PlayerID
	Rejected []ids.PlayerID
}

// OpponentGraph maps a player to the set of players they have already
// faced, used to avoid repeat pairings.
type OpponentGraph map[ids.PlayerID]map[ids.PlayerID]bool

func countOpps(group []ids.PlayerID, candidate ids.PlayerID, opps OpponentGraph) int {
	n := 0
	faced := opps[candidate]
	for _, g := range group {
		if faced[g] {
			n++
		}
	}
	return n
}

// Algorithm runs one of the three interchangeable pairing algorithms.
// Every implementation shares this exact signature so the Engine can
// select between them by settings.PairingAlgorithm alone.
type Algorithm func(plyrs []ids.PlayerID, opps OpponentGraph, matchSize, tolerance int) Pairings

// ForAlgorithm resolves a settings.PairingAlgorithm to its implementation.
func ForAlgorithm(alg settings.PairingAlgorithm) Algorithm {
	switch alg {
	case settings.AlgorithmGreedy:
		return Greedy
	case settings.AlgorithmRotary:
		return Rotary
	default:
		return Branching
	}
}

// Valid audits a Pairings value: every returned group must contain at most
// tolerance pairs already present in the opponent graph.
func Valid(p Pairings, opps OpponentGraph, tolerance int) bool {
	for _, group := range p.Paired {
		count := 0
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				if opps[group[i]][group[j]] {
					count++
				}
			}
		}
		if count > tolerance {
			return false
		}
	}
	return true
}
