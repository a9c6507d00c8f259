package egraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/slotted-egraph/lambda"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

func TestAddIsIdempotent(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)

	x := slot.Fresh()
	n := lambda.Var(x)

	a := g.Add(n)
	b := g.Add(n)
	assert.True(t, a.Equal(b))
	assert.Equal(t, 1, len(g.Classes()))
}

func TestAddAlphaVariantsHashconsToSameClass(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)

	x := slot.Fresh()
	bodyX := g.Add(lambda.Var(x))
	lamX := g.Add(lambda.Lam(x, bodyX))

	y := slot.Fresh()
	bodyY := g.Add(lambda.Var(y))
	lamY := g.Add(lambda.Lam(y, bodyY))

	// lam x. x  and  lam y. y  are alpha-equivalent: same class.
	assert.Equal(t, lamX.ID, lamY.ID)
}

func TestFindIsIdempotent(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	x := slot.Fresh()
	a := g.Add(lambda.Var(x))

	f1 := g.Find(a)
	f2 := g.Find(f1)
	assert.True(t, f1.Equal(f2))
}

func TestUnionSameSideIsNoop(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	x := slot.Fresh()
	a := g.Add(lambda.Var(x))

	changed := g.Union(a, a, proof.Reflexivity())
	assert.False(t, changed)
}

func TestUnionTwoDistinctClassesMerges(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	x := slot.Fresh()
	a := g.Add(lambda.Var(x))
	b := g.Add(lang.ENode{Op: "const-f"})

	changed := g.Union(a, b, proof.Explicit("axiom"))
	require.True(t, changed)
	assert.Equal(t, g.Find(a).ID, g.Find(b).ID)

	// second union of the same pair is a no-op
	changed2 := g.Union(a, b, proof.Explicit("axiom"))
	assert.False(t, changed2)
}

func TestUnionSameClassDiscoversSelfSymmetry(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	x, y := slot.Fresh(), slot.Fresh()

	pairOp := "pair"
	cx := g.Add(lambda.Var(x))
	cy := g.Add(lambda.Var(y))
	root := g.Add(lang.ENode{Op: pairOp, Children: []lang.AppliedId{cx, cy}})

	// Assert that pair(x,y) ≡ pair(y,x): same class, swapped renaming.
	swapped := lang.AppliedId{ID: root.ID, M: slot.FromPairs([2]slot.Slot{x, y}, [2]slot.Slot{y, x})}
	changed := g.Union(root, swapped, proof.Explicit("commutativity axiom"))
	require.True(t, changed)

	cls := g.classes[g.Find(root).ID]
	swapPerm := slot.AsPerm(slot.FromPairs([2]slot.Slot{x, y}, [2]slot.Slot{y, x}))
	assert.True(t, cls.Group.Contains(swapPerm))
}

// TestSelfSymmetryDiscoveredByCongruenceCarriesCongruenceProof covers
// spec.md §8 scenario (d): a class's group gains the swap permutation of
// two argument slots, discovered by the engine's own congruence
// machinery (determine_self_symmetries / add_self_symmetry_if_new)
// rather than asserted directly, and the stored proof's kind is
// Congruence.
//
// Setup: "pair" already knows it is commutative over two fresh slots p,q
// (a precondition established the same way TestUnionSameClassDiscoversSelfSymmetry
// establishes it — an axiom on the *inner* class). Two outer "wrap"
// nodes are then built over that inner class: one referencing it twice
// under the same renaming, the other under renamings related by the
// inner swap. These start out in different classes (their shapes
// differ), but a rule merges them — and the resulting class's group
// gains the argument-swap permutation the merge's re-insertion pass
// discovers, justified by Congruence, not by the merge's own rule axiom.
func TestSelfSymmetryDiscoveredByCongruenceCarriesCongruenceProof(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	p, q := slot.Fresh(), slot.Fresh()

	cp := g.Add(lambda.Var(p))
	cq := g.Add(lambda.Var(q))
	inner := g.Add(lang.ENode{Op: "pair", Children: []lang.AppliedId{cp, cq}})

	swapPQ := lang.AppliedId{ID: inner.ID, M: slot.FromPairs([2]slot.Slot{p, q}, [2]slot.Slot{q, p})}
	require.True(t, g.Union(inner, swapPQ, proof.Explicit("pair is commutative")))

	v := g.Find(inner)
	vSwapped := lang.AppliedId{ID: v.ID, M: swapPQ.M.Compose(v.M)}

	outer1 := g.Add(lang.ENode{Op: "wrap", Children: []lang.AppliedId{v, v}})
	altOuter := g.Add(lang.ENode{Op: "wrap2", Children: []lang.AppliedId{v, vSwapped}})

	require.True(t, g.Union(outer1, altOuter, proof.Explicit("wrap/wrap2 scaffold: both describe the same merged pair")))

	owner := g.classes[g.Find(outer1).ID]
	swapPerm := slot.AsPerm(slot.FromPairs([2]slot.Slot{p, q}, [2]slot.Slot{q, p}))
	elem, found := owner.Group.Lookup(swapPerm)
	require.True(t, found, "merged wrap class should have discovered the argument-swap self-symmetry")
	require.NotNil(t, elem.Proof)
	assert.Equal(t, proof.KindCongruence, proof.KindOf(proof.ProofOf(elem.Proof)))
}

func TestExplainAcceptsOwnProof(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	x := slot.Fresh()
	a := g.Add(lambda.Var(x))
	b := g.Add(lang.ENode{Op: "const-f"})
	g.Union(a, b, proof.Explicit("axiom"))

	p, ok := g.Explain(a, b)
	require.True(t, ok)
	assert.True(t, proof.CheckProof(proof.Eq(p), proof.ProofOf(p)))
}

func TestLookupMissReturnsFalse(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	_, ok := g.Lookup(lang.ENode{Op: "nonexistent"})
	assert.False(t, ok)
}

func TestAddExprBuildsWholeRecExpr(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	x := slot.Fresh()

	var expr lang.RecExpr
	varIdx := expr.PushUse(lambda.OpVar, []slot.Slot{x})
	expr.PushBinder(lambda.OpLam, []slot.Slot{x}, varIdx)

	root := g.AddExpr(expr)
	direct := g.Add(lambda.Lam(x, g.Add(lambda.Var(x))))
	assert.Equal(t, direct.ID, root.ID)
}

// TestAddExprSharesAnIndexAcrossMultipleParents covers the node-DAG
// property a pointer tree can't express directly: two different parents
// referencing the same earlier index share one Add call for it.
func TestAddExprSharesAnIndexAcrossMultipleParents(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)

	var expr lang.RecExpr
	leaf := expr.Push("leaf")
	expr.Push("pair", leaf, leaf)

	root := g.AddExpr(expr)
	cls, ok := g.Class(root.ID)
	require.True(t, ok)
	require.Len(t, cls.Nodes, 1)
	for _, n := range cls.Nodes {
		require.Len(t, n.Children, 2)
		assert.Equal(t, n.Children[0].ID, n.Children[1].ID)
	}
}

func TestFingerprintStableUnderOrderChangesButSensitiveToContent(t *testing.T) {
	slot.ResetForTesting()
	g1 := New(true)
	x := slot.Fresh()
	y := slot.Fresh()
	g1.Add(lambda.Var(x))
	g1.Add(lambda.Var(y))

	slot.ResetForTesting()
	g2 := New(true)
	a := slot.Fresh()
	b := slot.Fresh()
	g2.Add(lambda.Var(b))
	g2.Add(lambda.Var(a))

	assert.Equal(t, g1.Fingerprint(), g2.Fingerprint())

	slot.ResetForTesting()
	g3 := New(true)
	g3.Add(lang.ENode{Op: "const-f"})
	assert.NotEqual(t, g1.Fingerprint(), g3.Fingerprint())
}

// TestShrinkEnabledDropsRedundantAuxiliarySlotAndCascadesToUsages covers
// spec.md §8 scenario (e). A lambda's own binder slot is never itself a
// shrink candidate (FreeSlots already excludes it from the node's own
// exposure), so the redundant public slot has to live somewhere else in
// the lambda's body: here an auxiliary slot e on the body class, which a
// later union proves vacuous. Shrinking it drops e from the body's own
// class directly, and convertEclass's usages reprocessing carries that
// shrink up into the owning lambda class, which never itself took part
// in the union.
func TestShrinkEnabledDropsRedundantAuxiliarySlotAndCascadesToUsages(t *testing.T) {
	slot.ResetForTesting()
	g := New(true)
	e := slot.Fresh()
	holder := g.Add(lang.ENode{Op: "extra-holder", Uses: []slot.Slot{e}})

	s1 := slot.Fresh()
	lam := g.Add(lang.ENode{Op: lambda.OpLam, Binders: []slot.Slot{s1}, Children: []lang.AppliedId{holder}})
	require.True(t, lam.Slots().Contains(e), "lambda's class should start out exposing the body's auxiliary slot")

	zero := g.Add(lang.ENode{Op: "const-zero"})
	require.True(t, g.Union(holder, zero, proof.Explicit("extra slot is vacuous")))

	lamClass := g.classes[lam.ID]
	assert.False(t, lamClass.Slots.Contains(e),
		"shrinking the body's redundant slot should cascade into the owning lambda class via convertEclass's usages reprocessing")
}

// TestShrinkDisabledPanicsInsteadOfSilentlyDroppingSlot covers the other
// half of scenario (e): with shrinking disabled, the same union must
// surface the would-be shrink as a panic rather than silently keeping a
// stale, too-large slot set.
func TestShrinkDisabledPanicsInsteadOfSilentlyDroppingSlot(t *testing.T) {
	slot.ResetForTesting()
	g := New(false)
	e := slot.Fresh()
	holder := g.Add(lang.ENode{Op: "extra-holder", Uses: []slot.Slot{e}})
	zero := g.Add(lang.ENode{Op: "const-zero"})

	assert.Panics(t, func() {
		g.Union(holder, zero, proof.Explicit("extra slot is vacuous"))
	})
}
