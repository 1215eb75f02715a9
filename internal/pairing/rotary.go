package pairing

import (
	"sort"

	"tournament-core/internal/ids"
)

// Rotary shares Greedy's seat-filling contract (same inputs, same output
// shape) but resolves the spec's open question on traversal order by
// seating the players with the most prior opponents first: a player who
// has already faced many others is the hardest to place, so placing them
// earliest in the scan minimizes later backtracking. Ties keep the
// caller's original relative order, so the result is fully deterministic
// for a given input and opponent graph.
func Rotary(plyrs []ids.PlayerID, opps OpponentGraph, matchSize, tolerance int) Pairings {
	ordered := make([]ids.PlayerID, len(plyrs))
	copy(ordered, plyrs)
	position := make(map[ids.PlayerID]int, len(plyrs))
	for i, p := range plyrs {
		position[p] = i
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		na, nb := len(opps[a]), len(opps[b])
		if na != nb {
			return na > nb
		}
		return position[a] < position[b]
	})
	return Greedy(ordered, opps, matchSize, tolerance)
}
