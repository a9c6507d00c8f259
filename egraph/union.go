package egraph

import (
	"github.com/orneryd/slotted-egraph/group"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

// Union asserts l ≡ r, justified by justification, and returns whether
// this changed the graph's state (spec §4.5). A false return means l
// and r were already known equal — not an error.
func (g *EGraph) Union(l, r lang.AppliedId, justification proof.Proof) bool {
	lFound, lProof := g.findWithProof(l)
	rFound, rProof := g.findWithProof(r)
	given := proof.MustProve(proof.Equation{L: l, R: r}, justification)

	lSym := proof.MustProve(proof.Equation{L: lFound, R: l}, proof.Symmetry(lProof))
	lToR := proof.MustProve(proof.Equation{L: lFound, R: r}, proof.Transitivity(lSym, given))
	combined := proof.MustProve(proof.Equation{L: lFound, R: rFound}, proof.Transitivity(lToR, rProof))

	if lFound.Equal(rFound) {
		return false
	}

	cap := lFound.Slots().Intersect(rFound.Slots())
	if len(lFound.Slots()) > len(cap) {
		g.shrinkSlots(lFound, cap)
		return g.Union(l, r, justification)
	}
	if len(rFound.Slots()) > len(cap) {
		g.shrinkSlots(rFound, cap)
		return g.Union(l, r, justification)
	}

	if lFound.ID == rFound.ID {
		return g.unionSameClass(lFound, rFound, combined)
	}
	return g.unionDifferentClass(lFound, rFound, combined)
}

// unionSameClass handles spec §4.5 step 4: l and r name the same class
// through different renamings, i.e. a newly discovered self-symmetry.
func (g *EGraph) unionSameClass(a, b lang.AppliedId, eq proof.ProvenEq) bool {
	aInv, ok := a.M.Inverse()
	if !ok {
		panic(slot.InvariantError{Op: "egraph.unionSameClass", Msg: "a.M is not invertible"})
	}
	piMap := b.M.Compose(aInv)
	pi := slot.AsPerm(piMap)

	cls := g.classes[a.ID]
	if cls.Group.Contains(pi) {
		return false
	}

	selfSymProof := proof.Rename(eq, aInv)
	cls.Group.Add(group.Elem{Perm: pi, Proof: selfSymProof})
	g.convertEclass(a.ID)
	return true
}

// unionDifferentClass handles spec §4.5 step 5: merge two distinct
// classes, absorbing the smaller (left-wins on ties, per spec §9 open
// question (ii)) into the larger.
func (g *EGraph) unionDifferentClass(a, b lang.AppliedId, eq proof.ProvenEq) bool {
	to, from := a, b
	eqToFrom := eq
	if g.classSize(b.ID) > g.classSize(a.ID) {
		to, from = b, a
		eqToFrom = proof.MustProve(proof.Equation{L: b, R: a}, proof.Symmetry(eq))
	}

	fromInv, ok := from.M.Inverse()
	if !ok {
		panic(slot.InvariantError{Op: "egraph.unionDifferentClass", Msg: "from.M is not invertible"})
	}
	edgeM := to.M.Compose(fromInv)

	fromToTo := proof.MustProve(proof.Equation{L: from, R: to}, proof.Symmetry(eqToFrom))
	edgeProof := proof.Rename(fromToTo, fromInv)

	g.unionfind[from.ID] = lang.AppliedId{ID: to.ID, M: edgeM}
	g.unionProofs[from.ID] = edgeProof

	g.convertEclass(from.ID)
	return true
}

// shrinkSlots drops redundant public slots from the class appId refers
// to, per spec §4.6. cap is expressed in appId's own (caller) world.
func (g *EGraph) shrinkSlots(appID lang.AppliedId, cap slot.Set) {
	if !g.allowShrink {
		panic(slot.InvariantError{Op: "egraph.shrinkSlots", Msg: "shrink required but disabled for this graph"})
	}

	mInv, ok := appID.M.Inverse()
	if !ok {
		panic(slot.InvariantError{Op: "egraph.shrinkSlots", Msg: "appId.M is not invertible"})
	}
	classCap := slot.NewSet()
	for x := range cap {
		if y, ok := mInv.Get(x); ok {
			classCap.Insert(y)
		}
	}

	cls := g.classes[appID.ID]
	removed := cls.Slots.Difference(classCap)
	for changed := true; changed; {
		changed = false
		for d := range removed.Clone() {
			for x := range cls.Group.Orbit(d) {
				if !removed.Contains(x) {
					removed.Insert(x)
					changed = true
				}
			}
		}
	}
	keep := cls.Slots.Difference(removed)

	newGroup := group.New(keep)
	for _, e := range cls.Group.Generators() {
		restricted := e.Perm.Restrict(keep)
		if restricted.IsIdentity() {
			continue
		}
		var restrictedProof proof.ProvenEq
		if e.Proof != nil {
			// The original proof justified the full-slot self-symmetry;
			// restricting to a slot subset that the group's own orbit
			// closure has already confirmed is internally consistent is
			// trusted directly rather than re-derived compositionally —
			// the source leaves this specific case (generator survival
			// across a slot shrink, as opposed to edge retranslation)
			// unspecified (spec §9 open question (iii) covers edges, not
			// this).
			restrictedProof = proof.MustProve(
				proof.Equation{L: lang.Identity(appID.ID, keep), R: lang.AppliedId{ID: appID.ID, M: restricted.Map}},
				proof.Explicit("shrink-restricted-generator"),
			)
		}
		newGroup.Add(group.Elem{Perm: restricted, Proof: restrictedProof})
	}
	cls.Slots = keep
	cls.Group = newGroup

	g.convertEclass(appID.ID)
}
