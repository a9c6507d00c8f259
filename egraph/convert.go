package egraph

import (
	"github.com/orneryd/slotted-egraph/group"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

// convertEclass republishes everything that depended on from after it
// changed (merged away, shrank, or gained a symmetry), per spec §4.7:
// drain its nodes and its usages' nodes and re-semantic_add them against
// its current representative, then retranslate its group into the
// target class's group.
func (g *EGraph) convertEclass(from lang.ClassID) {
	fromClass := g.classes[from]
	currentFrom, edgeChainProof := g.findWithProof(lang.Identity(from, fromClass.Slots))
	renameToOwner, ok := currentFrom.M.Inverse()
	if !ok {
		panic(slot.InvariantError{Op: "egraph.convertEclass", Msg: "current representative's renaming is not invertible"})
	}

	nodes := fromClass.Nodes
	fromClass.Nodes = map[string]lang.ENode{}
	for _, n := range nodes {
		renamed := n.ApplySlotmapOnFree(renameToOwner)
		g.semanticAdd(renamed, currentFrom.ID)
	}

	usages := fromClass.Usages
	fromClass.Usages = map[lang.ClassID]struct{}{}
	for ownerID := range usages {
		ownerClass := g.classes[ownerID]
		ownerRoot := g.Find(lang.Identity(ownerID, ownerClass.Slots))
		ownerInv, ok := ownerRoot.M.Inverse()
		if !ok {
			panic(slot.InvariantError{Op: "egraph.convertEclass", Msg: "owner's current renaming is not invertible"})
		}
		ownerNodes := ownerClass.Nodes
		ownerClass.Nodes = map[string]lang.ENode{}
		for _, n := range ownerNodes {
			renamed := n.ApplySlotmapOnFree(ownerInv)
			g.semanticAdd(renamed, ownerRoot.ID)
		}
	}

	toID := currentFrom.ID
	toClass := g.classes[toID]
	reprove := func(orig group.Elem, m slot.Map) proof.ProvenEq {
		if orig.Proof == nil {
			return nil
		}
		renamedOrig := proof.Rename(orig.Proof, m)
		renamedEdge1 := proof.Rename(edgeChainProof, m)
		step1 := proof.MustProve(
			proof.Equation{L: lang.Identity(toID, toClass.Slots), R: lang.AppliedId{ID: from, M: m}},
			proof.Symmetry(renamedEdge1),
		)
		origPermM := orig.Perm.Map.Compose(m)
		step2 := proof.MustProve(
			proof.Equation{L: lang.Identity(toID, toClass.Slots), R: lang.AppliedId{ID: from, M: origPermM}},
			proof.Transitivity(step1, renamedOrig),
		)
		renamedEdge2 := proof.Rename(edgeChainProof, origPermM)
		return proof.MustProve(
			proof.Equation{L: lang.Identity(toID, toClass.Slots), R: lang.AppliedId{ID: toID, M: renameToOwner2(renameToOwner, origPermM)}},
			proof.Transitivity(step2, renamedEdge2),
		)
	}
	translated := fromClass.Group.Translate(renameToOwner, reprove)
	for _, e := range translated.Generators() {
		toClass.Group.Add(e)
	}
}

// renameToOwner2 computes N ∘ origPermM where N is renameToOwner's
// inverse, matching the permutation group.Translate itself derives
// internally — used here only to shape the equation passed to
// MustProve; the actual group element stored is the one group.Translate
// computes, so this must stay in lockstep with Translate's formula.
func renameToOwner2(renameToOwner slot.Map, origPermM slot.Map) slot.Map {
	n, ok := renameToOwner.Inverse()
	if !ok {
		panic(slot.InvariantError{Op: "egraph.renameToOwner2", Msg: "renameToOwner is not invertible"})
	}
	return n.Compose(origPermM)
}
