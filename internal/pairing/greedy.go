package pairing

import "tournament-core/internal/ids"

// Greedy is order-deterministic for a given input order: it opens a group
// at the first unconsumed player and scans forward for the first candidate
// whose opponent overlap with the group built so far is at most tolerance.
// When a seat cannot be filled, the most recently accepted member of the
// group is popped back out to rejected and the scan resumes immediately
// after that player's original position, retrying the seat; if even the
// seed can't find a single partner, the seed itself is rejected and
// scanning resumes at the next position.
func Greedy(plyrs []ids.PlayerID, opps OpponentGraph, matchSize, tolerance int) Pairings {
	var digest Pairings
	used := make(map[ids.PlayerID]bool, len(plyrs))
	indexOf := make(map[ids.PlayerID]int, len(plyrs))
	for idx, p := range plyrs {
		indexOf[p] = idx
	}

	i := 0
	for i < len(plyrs) {
		if used[plyrs[i]] {
			i++
			continue
		}
		seed := plyrs[i]
		group := []ids.PlayerID{seed}
		groupSet := map[ids.PlayerID]bool{seed: true}
		scan := i + 1
		rejectedSeed := false

		for len(group) < matchSize {
			found := -1
			for j := scan; j < len(plyrs); j++ {
				cand := plyrs[j]
				if used[cand] || groupSet[cand] {
					continue
				}
				if countOpps(group, cand, opps) <= tolerance {
					found = j
					break
				}
			}
			if found != -1 {
				cand := plyrs[found]
				group = append(group, cand)
				groupSet[cand] = true
				scan = found + 1
				continue
			}
			if len(group) == 1 {
				digest.Rejected = append(digest.Rejected, seed)
				used[seed] = true
				rejectedSeed = true
				break
			}
			trailing := group[len(group)-1]
			group = group[:len(group)-1]
			delete(groupSet, trailing)
			digest.Rejected = append(digest.Rejected, trailing)
			used[trailing] = true
			scan = indexOf[trailing] + 1
		}

		if !rejectedSeed {
			for _, p := range group {
				used[p] = true
			}
			digest.Paired = append(digest.Paired, group)
		}
		i++
	}
	return digest
}
