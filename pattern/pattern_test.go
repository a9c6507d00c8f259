package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/slotted-egraph/egraph"
	"github.com/orneryd/slotted-egraph/lambda"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/slot"
)

func TestParseBareVar(t *testing.T) {
	p, err := Parse(lambda.Lang, "?x")
	require.NoError(t, err)
	assert.Equal(t, "x", p.Var)
}

func TestParseVarNode(t *testing.T) {
	p, err := Parse(lambda.Lang, "(var s1)")
	require.NoError(t, err)
	assert.Equal(t, lambda.OpVar, p.Op)
	assert.Equal(t, []string{"s1"}, p.UseNames)
	assert.Empty(t, p.Children)
}

func TestParseLamNode(t *testing.T) {
	p, err := Parse(lambda.Lang, "(lam s1 (var s1))")
	require.NoError(t, err)
	assert.Equal(t, lambda.OpLam, p.Op)
	assert.Equal(t, []string{"s1"}, p.BinderNames)
	require.Len(t, p.Children, 1)
	assert.Equal(t, lambda.OpVar, p.Children[0].Op)
}

func TestParseBareAtomIsZeroArityLeaf(t *testing.T) {
	p, err := Parse(lambda.Lang, "sym_foo")
	require.NoError(t, err)
	assert.Equal(t, "sym_foo", p.Op)
	assert.Empty(t, p.Children)
}

func TestParseRejectsUnknownOp(t *testing.T) {
	_, err := Parse(lambda.Lang, "(nonexistent)")
	assert.Error(t, err)
}

func TestParseRejectsTrailingInput(t *testing.T) {
	_, err := Parse(lambda.Lang, "(var s1) extra")
	assert.Error(t, err)
}

var pairLang = lang.Table{
	LangName: "pairtest",
	Ops: map[string]lang.OpArity{
		"pair": {Binders: 0, Uses: 0, Children: 2},
	},
}

func TestEMatchAllFindsVarPattern(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)
	x := slot.Fresh()
	g.Add(lambda.Var(x))

	p, err := Parse(lambda.Lang, "(var s1)")
	require.NoError(t, err)

	matches := EMatchAll(p, g)
	require.Len(t, matches, 1)
	assert.Equal(t, x, matches[0].Subst.Slots["s1"])
}

func TestPatternSubstReproducesMatchedNode(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)
	x := slot.Fresh()
	original := g.Add(lambda.Var(x))

	p, err := Parse(lambda.Lang, "(var s1)")
	require.NoError(t, err)
	matches := EMatchAll(p, g)
	require.Len(t, matches, 1)

	rebuilt := PatternSubst(p, matches[0].Subst, g)
	assert.Equal(t, original.ID, rebuilt.ID)
}

func TestRewriteCommutesPairAndUnionsClasses(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)
	x, y := slot.Fresh(), slot.Fresh()
	cx := g.Add(lambda.Var(x))
	cy := g.Add(lambda.Var(y))
	root := g.Add(lang.ENode{Op: "pair", Children: []lang.AppliedId{cx, cy}})

	rw, err := NewRewrite("pair-comm", pairLang, "(pair ?a ?b)", "(pair ?b ?a)")
	require.NoError(t, err)

	applied := rw.Apply(g)
	assert.Greater(t, applied, 0)

	swapped := g.Add(lang.ENode{Op: "pair", Children: []lang.AppliedId{cy, cx}})
	assert.Equal(t, g.Find(root).ID, g.Find(swapped).ID, "pair(x,y) and its swap should now resolve to the same class")
}

// TestBetaThenLetVarSameCollapsesSelfApplicationOfIdentity covers spec.md
// §8 scenario (a): driving the engine through a rewrite set rather than
// asserting the result by hand. "beta" turns an application of a lambda
// into a let, and "let-var-same" discharges a let that only uses its own
// bound variable — composing them reduces
// (app (lam x0 (var x0)) (lam x1 (var x1))) to its own argument, which
// alpha-equivalence already hashconses to the same class as the
// function being applied.
func TestBetaThenLetVarSameCollapsesSelfApplicationOfIdentity(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)

	x0 := slot.Fresh()
	idFn := g.Add(lambda.Lam(x0, g.Add(lambda.Var(x0))))

	x1 := slot.Fresh()
	arg := g.Add(lambda.Lam(x1, g.Add(lambda.Var(x1))))
	require.Equal(t, idFn.ID, arg.ID, "lam x0.x0 and lam x1.x1 are alpha-variants of the same class")

	root := g.Add(lang.ENode{Op: lambda.OpApp, Children: []lang.AppliedId{idFn, arg}})

	beta, err := NewRewrite("beta", lambda.Lang, "(app (lam s1 ?body) ?arg)", "(let s1 ?arg ?body)")
	require.NoError(t, err)
	letVarSame, err := NewRewrite("let-var-same", lambda.Lang, "(let s1 ?arg (var s1))", "?arg")
	require.NoError(t, err)

	rounds := RunRewrites(g, []Rewrite{beta, letVarSame}, 10)
	assert.Greater(t, rounds, 0)
	assert.Equal(t, g.Find(idFn).ID, g.Find(root).ID)
}

// TestEtaDischargesWrapperAroundVacuousUse covers spec.md §8 scenario
// (b): "(lam s1 (app ?f (var s1)))" is eta-equivalent to "?f" whenever f
// itself never mentions s1 — here f is a zero-slot class, so the
// precondition holds trivially.
func TestEtaDischargesWrapperAroundVacuousUse(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)

	f := g.Add(lang.ENode{Op: "const-f"})
	s1 := slot.Fresh()
	app := g.Add(lang.ENode{Op: lambda.OpApp, Children: []lang.AppliedId{f, g.Add(lambda.Var(s1))}})
	root := g.Add(lang.ENode{Op: lambda.OpLam, Binders: []slot.Slot{s1}, Children: []lang.AppliedId{app}})

	eta, err := NewRewrite("eta", lambda.Lang, "(lam s1 (app ?f (var s1)))", "?f")
	require.NoError(t, err)

	applied := eta.Apply(g)
	assert.Equal(t, 1, applied)
	assert.Equal(t, g.Find(f).ID, g.Find(root).ID)

	assert.Equal(t, 0, eta.Apply(g), "a second pass over an already-saturated graph should find nothing new to apply")
}

// TestRemoveTransposePairCancelsDoubleTranspose covers spec.md §8
// scenario (c). sym_transpose never needs registering as an operator in
// lambda.Lang: Parse's bare-atom leaf rule accepts it wherever it
// appears only as a pattern child, never as the operator token right
// after an opening paren.
func TestRemoveTransposePairCancelsDoubleTranspose(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)

	symTranspose := g.Add(lang.ENode{Op: "sym_transpose"})
	y := g.Add(lang.ENode{Op: "const-y"})
	inner := g.Add(lang.ENode{Op: lambda.OpApp, Children: []lang.AppliedId{symTranspose, y}})
	root := g.Add(lang.ENode{Op: lambda.OpApp, Children: []lang.AppliedId{symTranspose, inner}})

	removeTranspose, err := NewRewrite("remove-transpose-pair", lambda.Lang,
		"(app sym_transpose (app sym_transpose ?y))", "?y")
	require.NoError(t, err)

	applied := removeTranspose.Apply(g)
	assert.Equal(t, 1, applied)
	assert.Equal(t, g.Find(y).ID, g.Find(root).ID)
}

func TestRunRewritesStopsWhenSaturated(t *testing.T) {
	slot.ResetForTesting()
	g := egraph.New(true)
	x := slot.Fresh()
	g.Add(lambda.Var(x))

	rw, err := NewRewrite("identity", lambda.Lang, "(var s1)", "(var s1)")
	require.NoError(t, err)

	rounds := RunRewrites(g, []Rewrite{rw}, 10)
	assert.Equal(t, 0, rounds)
}
