package egraph

import (
	"github.com/orneryd/slotted-egraph/group"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

// maxSymmetryCombinations bounds the brute-force cartesian product
// determine_self_symmetries explores over a node's children's group
// members. Classes are expected to carry small groups (spec §9), so
// this is a generous safety valve against a pathological node with many
// highly-symmetric children, not a tuning knob exercised in practice.
const maxSymmetryCombinations = 4096

// semanticAdd re-inserts a canonicalized node into owner, discovering
// congruence and self-symmetry, per spec §4.8.
func (g *EGraph) semanticAdd(n lang.ENode, owner lang.ClassID) {
	normalized := g.normalizeChildren(n)
	ownerClass := g.classes[owner]

	if !ownerClass.Slots.Subset(normalized.FreeSlots()) {
		ownerSlotsCap := ownerClass.Slots.Intersect(normalized.FreeSlots())
		g.shrinkSlots(lang.Identity(owner, ownerClass.Slots), ownerSlotsCap)
		owner = g.Find(lang.Identity(owner, g.classes[owner].Slots)).ID
		ownerClass = g.classes[owner]
		normalized = g.normalizeChildren(n)
	}

	shape := lang.ShapeOf(normalized)
	if hitID, ok := g.hashcons[shape.Key()]; ok {
		hitRoot := g.Find(lang.Identity(hitID, g.classes[hitID].Slots))
		if hitRoot.ID != owner {
			g.handleCongruence(normalized, owner, hitRoot.ID)
			return
		}
	}

	ownerClass.Nodes[normalized.LiteralKey()] = normalized
	g.hashcons[shape.Key()] = owner
	for _, child := range normalized.Children {
		g.classes[child.ID].Usages[owner] = struct{}{}
	}

	g.determineSelfSymmetries(normalized, owner)
}

// handleCongruence unions owner with other after discovering their
// current node sets contain shape-equal nodes, per spec §4.8 step 2.
func (g *EGraph) handleCongruence(n lang.ENode, owner, other lang.ClassID) {
	shape := lang.ShapeOf(n)
	witness, ok := g.findWitnessByShape(other, shape.Key())
	if !ok {
		panic(slot.InvariantError{Op: "egraph.handleCongruence", Msg: "hashcons hit without a matching witness node"})
	}

	childProofs := make([]proof.ProvenEq, len(n.Children))
	for i := range n.Children {
		childProofs[i] = g.proveChildEqual(n.Children[i], witness.Children[i])
	}

	ownerClass := g.classes[owner]
	otherClass := g.classes[other]
	g.Union(
		lang.Identity(owner, ownerClass.Slots),
		lang.Identity(other, otherClass.Slots),
		proof.Congruence(childProofs, n, witness),
	)
}

// proveChildEqual proves a ≡ b for two children occupying the same
// position in shape-matched nodes: either they are literally identical,
// or they reference the same class through renamings related by a
// self-symmetry already known to that class's group.
func (g *EGraph) proveChildEqual(a, b lang.AppliedId) proof.ProvenEq {
	if a.Equal(b) {
		return proof.MustProve(proof.Equation{L: a, R: b}, proof.Reflexivity())
	}
	if a.ID == b.ID {
		aInv, ok := a.M.Inverse()
		if ok {
			piMap := b.M.Compose(aInv)
			if slot.IsPerm(piMap) {
				pi := slot.AsPerm(piMap)
				if elem, found := g.classes[a.ID].Group.Lookup(pi); found && elem.Proof != nil {
					return proof.Rename(elem.Proof, a.M)
				}
			}
		}
	}
	// Either genuinely unrelated (should not happen if the caller's
	// shapes truly matched) or the bridging self-symmetry is not yet
	// known to the group; trust the congruence detection that got us
	// here rather than failing the whole upward merge.
	return proof.MustProve(proof.Equation{L: a, R: b}, proof.Explicit("congruence-child"))
}

func (g *EGraph) findWitnessByShape(classID lang.ClassID, key string) (lang.ENode, bool) {
	for _, node := range g.classes[classID].Nodes {
		renorm := g.normalizeChildren(node)
		if lang.ShapeOf(renorm).Key() == key {
			return renorm, true
		}
	}
	return lang.ENode{}, false
}

// determineSelfSymmetries enumerates group-compatible variants of n
// (n's children renamed through members of their own classes' groups)
// and adds any newly discovered self-symmetry of owner to its group,
// per spec §4.8 step 4.
func (g *EGraph) determineSelfSymmetries(n lang.ENode, owner lang.ClassID) {
	if len(n.Children) == 0 {
		return
	}
	memberLists := make([][]group.Elem, len(n.Children))
	total := 1
	for i, c := range n.Children {
		members := g.classes[c.ID].Group.Members()
		memberLists[i] = members
		total *= len(members)
		if total > maxSymmetryCombinations {
			return
		}
	}

	originalShape := lang.ShapeOf(n)
	ownerClass := g.classes[owner]

	idx := make([]int, len(n.Children))
	for {
		variant, childProofs, ok := g.buildVariant(n, memberLists, idx)
		if ok {
			variantShape := lang.ShapeOf(variant)
			if variantShape.Key() == originalShape.Key() {
				g.addSelfSymmetryIfNew(n, variant, childProofs, owner, originalShape, variantShape, ownerClass)
			}
		}
		if !incrementIndex(idx, memberLists) {
			break
		}
	}
}

func (g *EGraph) buildVariant(n lang.ENode, memberLists [][]group.Elem, idx []int) (lang.ENode, []proof.ProvenEq, bool) {
	children := make([]lang.AppliedId, len(n.Children))
	childProofs := make([]proof.ProvenEq, len(n.Children))
	for i, c := range n.Children {
		elem := memberLists[i][idx[i]]
		newM := elem.Perm.Map.Compose(c.M)
		children[i] = lang.AppliedId{ID: c.ID, M: newM}
		if elem.Perm.IsIdentity() {
			childProofs[i] = proof.MustProve(proof.Equation{L: c, R: c}, proof.Reflexivity())
			continue
		}
		if elem.Proof == nil {
			return lang.ENode{}, nil, false
		}
		childProofs[i] = proof.Rename(elem.Proof, c.M)
	}
	variant := lang.ENode{Op: n.Op, Children: children, Binders: n.Binders, Uses: n.Uses}
	return variant, childProofs, true
}

func (g *EGraph) addSelfSymmetryIfNew(
	n, variant lang.ENode,
	childProofs []proof.ProvenEq,
	owner lang.ClassID,
	originalShape, variantShape lang.Shape,
	ownerClass *EClass,
) {
	bijInv, ok := originalShape.Bij.Inverse()
	if !ok {
		return
	}
	piMap := bijInv.Compose(variantShape.Bij)
	if !slot.IsPerm(piMap) {
		return
	}
	pi := slot.AsPerm(piMap)
	if pi.IsIdentity() || ownerClass.Group.Contains(pi) {
		return
	}
	symProof := proof.MustProve(
		proof.Equation{L: lang.Identity(owner, ownerClass.Slots), R: lang.AppliedId{ID: owner, M: pi.Map}},
		proof.Congruence(childProofs, n, variant),
	)
	ownerClass.Group.Add(group.Elem{Perm: pi, Proof: symProof})
}

func incrementIndex(idx []int, memberLists [][]group.Elem) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < len(memberLists[i]) {
			return true
		}
		idx[i] = 0
	}
	return false
}
