package egraph

import (
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
)

// rootEdge resolves id to its current root, returning the AppliedId over
// the root class that id's own identity (Identity(id, classes[id].Slots))
// is equal to, plus the proof of that equation. Path compression updates
// unionfind[id] (and its proof) in place whenever the walk passes
// through more than one hop, per spec §4.1: the stored proof must always
// witness exactly the edge it is attached to.
func (g *EGraph) rootEdge(id lang.ClassID) (lang.AppliedId, proof.ProvenEq) {
	idSlots := g.classes[id].Slots
	edge, ok := g.unionfind[id]
	if !ok {
		ident := lang.Identity(id, idSlots)
		return ident, proof.MustProve(proof.Equation{L: ident, R: ident}, proof.Reflexivity())
	}

	edgeProof := g.unionProofs[id]
	parentRoot, parentProof := g.rootEdge(edge.ID)
	compressed := parentRoot.ApplySlotmap(edge.M)

	renamedParent := proof.Rename(parentProof, edge.M)
	combined := proof.MustProve(
		proof.Equation{L: lang.Identity(id, idSlots), R: compressed},
		proof.Transitivity(edgeProof, renamedParent),
	)

	if compressed.ID != edge.ID || !compressed.M.Equal(edge.M) {
		g.unionfind[id] = compressed
		g.unionProofs[id] = combined
	}
	return compressed, combined
}

// findWithProof resolves a to its current representative and returns the
// proof that a equals it.
func (g *EGraph) findWithProof(a lang.AppliedId) (lang.AppliedId, proof.ProvenEq) {
	root, rootProof := g.rootEdge(a.ID)
	renamed := proof.Rename(rootProof, a.M)
	return root.ApplySlotmap(a.M), renamed
}

// Find resolves a to its current canonical representative, per spec
// §4.1. Find is idempotent: Find(Find(x)) == Find(x).
func (g *EGraph) Find(a lang.AppliedId) lang.AppliedId {
	found, _ := g.findWithProof(a)
	return found
}

// classSize is the tie-breaking weight used by union: the smaller class
// (by node-plus-usage count) is absorbed into the larger one.
func (g *EGraph) classSize(id lang.ClassID) int {
	c := g.classes[id]
	return len(c.Nodes) + len(c.Usages)
}
