package pairing

import "tournament-core/internal/ids"

// pairingTree is a search tree of candidate pairing groups, rooted at one
// unpaired player. Every root-to-leaf path of length matchSize is a valid
// pairing of non-repeat opponents.
type pairingTree struct {
	id       ids.PlayerID
	branches []*pairingTree
}

func newPairingTree(id ids.PlayerID) *pairingTree {
	return &pairingTree{id: id}
}

// insert tries to extend every existing branch with id; any branch whose
// root is a past opponent of id cannot be extended, so id also starts a new
// sibling branch at this level. opps is the set of id's past opponents.
func (t *pairingTree) insert(id ids.PlayerID, opps map[ids.PlayerID]bool) {
	insertHere := len(t.branches) == 0
	for _, branch := range t.branches {
		if !opps[branch.id] {
			branch.insert(id, opps)
		} else {
			insertHere = true
		}
	}
	if insertHere {
		t.branches = append(t.branches, newPairingTree(id))
	}
}

// cut finds the first complete root-to-leaf path of the given length,
// traversing branches in insertion order. The returned path runs
// leaf-to-root.
func (t *pairingTree) cut(size int) []ids.PlayerID {
	if size == 1 {
		return []ids.PlayerID{t.id}
	}
	for _, branch := range t.branches {
		if pairing := branch.cut(size - 1); pairing != nil {
			return append(pairing, t.id)
		}
	}
	return nil
}

// Branching builds a tree rooted at the first unpaired player; each
// insertion either extends an existing branch or opens a sibling one. A
// valid pairing is any root-to-leaf path of length matchSize, and the first
// one found (earliest insertions first) is taken.
func Branching(plyrs []ids.PlayerID, opps OpponentGraph, matchSize, _ int) Pairings {
	var digest Pairings
	isPaired := make(map[ids.PlayerID]bool, len(plyrs))
	empty := map[ids.PlayerID]bool{}

	for len(isPaired) != len(plyrs) {
		var unpaired []ids.PlayerID
		for _, p := range plyrs {
			if !isPaired[p] {
				unpaired = append(unpaired, p)
			}
		}
		tree := newPairingTree(unpaired[0])
		var pairing []ids.PlayerID
		for _, plyr := range unpaired[1:] {
			opp := opps[plyr]
			if opp == nil {
				opp = empty
			}
			if opp[tree.id] {
				continue
			}
			tree.insert(plyr, opp)
			pairing = tree.cut(matchSize)
			if pairing != nil {
				break
			}
		}
		isPaired[tree.id] = true
		if pairing == nil {
			digest.Rejected = append(digest.Rejected, tree.id)
			continue
		}
		for _, p := range pairing {
			isPaired[p] = true
		}
		reversed := make([]ids.PlayerID, len(pairing))
		for i, p := range pairing {
			reversed[len(pairing)-1-i] = p
		}
		digest.Paired = append(digest.Paired, reversed)
	}
	return digest
}
