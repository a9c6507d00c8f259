// Package proof implements the immutable, shared proof forest: every
// equation the engine asserts between two classes is backed by a Proof
// value recording why. A ProvenEq is constructed either by Prove, which
// runs CheckProof first, or by Rename, which renames an existing one
// without re-checking. This mirrors the egraph's expl/proof.rs
// proof discipline — Reflexivity, Symmetry, Transitivity, Congruence,
// Shrink and Explicit are the only ways to get one.
package proof

import (
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/slot"
)

// Equation is a claim that two applied ids denote the same element.
type Equation struct {
	L, R lang.AppliedId
}

// ApplySlotmap renames both sides of the equation through m.
func (e Equation) ApplySlotmap(m slot.Map) Equation {
	return Equation{L: e.L.ApplySlotmap(m), R: e.R.ApplySlotmap(m)}
}

// ApplySlotmapFresh renames both sides of the equation through m,
// sending any uncovered free slot to a fresh one.
func (e Equation) ApplySlotmapFresh(m slot.Map) Equation {
	return Equation{L: e.L.ApplySlotmapFresh(m), R: e.R.ApplySlotmapFresh(m)}
}

// Proof is a proof-forest node variant. The concrete variants below are
// the only implementations; callers outside this package only ever see
// a Proof through a ProvenEq built by Prove.
type Proof interface {
	isProof()
}

type explicitProof struct{ tag string }

func (explicitProof) isProof() {}

type reflexivityProof struct{}

func (reflexivityProof) isProof() {}

type symmetryProof struct{ of ProvenEq }

func (symmetryProof) isProof() {}

type transitivityProof struct{ first, second ProvenEq }

func (transitivityProof) isProof() {}

type congruenceProof struct {
	children           []ProvenEq
	lWitness, rWitness lang.ENode
}

func (congruenceProof) isProof() {}

type shrinkProof struct{ witness ProvenEq }

func (shrinkProof) isProof() {}

// Explicit builds a proof node that is trusted without further checking
// — the base case for axioms supplied directly by a rewrite rule.
func Explicit(tag string) Proof { return explicitProof{tag: tag} }

// Reflexivity builds the proof that any applied id equals itself.
func Reflexivity() Proof { return reflexivityProof{} }

// Symmetry builds the proof that of's equation holds backwards.
func Symmetry(of ProvenEq) Proof { return symmetryProof{of: of} }

// Transitivity builds the proof that first and second chain into a
// single equation (first.R must line up with second.L up to renaming).
func Transitivity(first, second ProvenEq) Proof {
	return transitivityProof{first: first, second: second}
}

// Congruence builds the proof that two operator-applications are equal
// because their operators match and each corresponding child pair is
// equal, per children. lWitness and rWitness are the two concrete nodes
// whose child pairs the proof relates (the egraph passes the pair of
// shape-matched nodes it found, not each class's SynNode), already
// rehydrated into the equation's slot world by the caller (only the egraph package constructs these, from
// its own class table, so CheckProof trusts that linkage and verifies
// only the structural consistency it can see: operator/arity agreement
// and that children prove exactly the witnessed child pairs).
func Congruence(children []ProvenEq, lWitness, rWitness lang.ENode) Proof {
	return congruenceProof{children: children, lWitness: lWitness, rWitness: rWitness}
}

// Shrink builds the proof that dropping some of l's redundant slots to
// reach r is sound, justified by witness: an equation between l (or a
// renaming of it) and some other applied id whose right side never
// mentions the slots being dropped.
func Shrink(witness ProvenEq) Proof { return shrinkProof{witness: witness} }

// provenEqRaw is the private representation shared (by pointer) among
// every holder of a ProvenEq, mirroring the forest's append-only,
// reference-shared nodes.
type provenEqRaw struct {
	eq    Equation
	proof Proof
}

// ProvenEq is a handle to a proof-forest node. The zero value (nil) is
// never a valid proof; valid handles come only from Prove and Rename.
type ProvenEq = *provenEqRaw

// Eq returns the equation p proves.
func Eq(p ProvenEq) Equation { return p.eq }

// ProofOf returns the proof node backing p, for callers that want to
// render or inspect the proof tree (e.g. an "explain" command).
func ProofOf(p ProvenEq) Proof { return p.proof }

// Prove checks p against eq and, if valid, returns a ProvenEq. Outside
// this package, Prove and Rename are the only ways to obtain one; Rename
// derives its result from an existing ProvenEq and does not run
// CheckProof.
func Prove(eq Equation, p Proof) (ProvenEq, bool) {
	if !CheckProof(eq, p) {
		return nil, false
	}
	return &provenEqRaw{eq: eq, proof: p}, true
}

// Rename reinterprets p under a consistent renaming m of both sides,
// without re-running CheckProof. This is sound as a metatheoretic
// property of the proof system: every CheckProof variant's checks are
// invariant under a single consistent outer renaming applied to both
// sides of the equation (matchEquation itself only ever asks whether
// two equations agree up to some renaming), so a renaming of an already
// -valid equation is still valid under the same proof shape. Used by
// union/convert_eclass to move a proof discovered in one class's slot
// coordinates onto another class's, without rebuilding the proof tree.
func Rename(p ProvenEq, m slot.Map) ProvenEq {
	return &provenEqRaw{eq: p.eq.ApplySlotmap(m), proof: p.proof}
}

// MustProve is Prove, but panics on a failing proof. Used where the
// caller has already established validity by construction (e.g. the
// core engine composing its own freshly derived equations) and a
// failure would indicate an internal bug, not a user-facing error.
func MustProve(eq Equation, p Proof) ProvenEq {
	out, ok := Prove(eq, p)
	if !ok {
		panic(slot.InvariantError{Op: "proof.MustProve", Msg: "proof does not check for its claimed equation"})
	}
	return out
}

// CheckProof reports whether p is a valid justification for eq. It is
// the sole gatekeeper Prove relies on.
func CheckProof(eq Equation, p Proof) bool {
	switch v := p.(type) {
	case explicitProof:
		return true
	case reflexivityProof:
		return eq.L.Equal(eq.R)
	case symmetryProof:
		flipped := Equation{L: v.of.eq.R, R: v.of.eq.L}
		return matchEquation(eq, flipped)
	case transitivityProof:
		theta, ok := lang.MatchAppliedId(v.second.eq.L, v.first.eq.R)
		if !ok {
			return false
		}
		chained := Equation{
			L: v.first.eq.L,
			R: v.second.eq.R.ApplySlotmapFresh(theta),
		}
		return matchEquation(eq, chained)
	case congruenceProof:
		return checkCongruence(eq, v)
	case shrinkProof:
		return checkShrink(eq, v)
	default:
		return false
	}
}

func checkCongruence(eq Equation, v congruenceProof) bool {
	l, r := v.lWitness, v.rWitness
	if l.Op != r.Op {
		return false
	}
	if len(l.Children) != len(r.Children) || len(l.Children) != len(v.children) {
		return false
	}
	if len(l.Binders) != len(r.Binders) {
		return false
	}
	if len(l.Uses) != len(r.Uses) {
		return false
	}
	for i := range l.Uses {
		if l.Uses[i] != r.Uses[i] {
			return false
		}
	}
	for i, childProof := range v.children {
		want := Equation{L: l.Children[i], R: r.Children[i]}
		if !childProof.eq.L.Equal(want.L) || !childProof.eq.R.Equal(want.R) {
			return false
		}
	}
	// eq itself is trusted to name the two classes l/r were retrieved
	// from; that linkage is an egraph-internal invariant, not something
	// this package can re-derive from the witnesses alone.
	return true
}

func checkShrink(eq Equation, v shrinkProof) bool {
	if eq.L.ID != eq.R.ID {
		return false
	}
	// r.m must agree with l.m on every slot r still exposes.
	ok := true
	eq.R.M.Iter(func(x, y slot.Slot) {
		if z, has := eq.L.M.Get(x); !has || z != y {
			ok = false
		}
	})
	if !ok {
		return false
	}
	newRedundant := eq.L.Slots().Difference(eq.R.Slots())
	theta, ok := lang.MatchAppliedId(v.witness.eq.L, eq.L)
	if !ok {
		return false
	}
	witnessR := v.witness.eq.R.ApplySlotmapFresh(theta)
	rSlots := witnessR.Slots()
	for x := range newRedundant {
		if rSlots.Contains(x) {
			return false
		}
	}
	return true
}

// Kind identifies which of the six proof rules built a Proof value.
// Proof itself stays a sealed interface (callers cannot type-switch on
// its unexported variants directly); Kind is the one piece of that
// structure this package exposes, for callers that need to tell e.g. a
// discovered congruence from a hand-supplied axiom without being able
// to reconstruct the whole proof tree.
type Kind int

const (
	KindExplicit Kind = iota
	KindReflexivity
	KindSymmetry
	KindTransitivity
	KindCongruence
	KindShrink
)

func (k Kind) String() string {
	switch k {
	case KindExplicit:
		return "Explicit"
	case KindReflexivity:
		return "Reflexivity"
	case KindSymmetry:
		return "Symmetry"
	case KindTransitivity:
		return "Transitivity"
	case KindCongruence:
		return "Congruence"
	case KindShrink:
		return "Shrink"
	default:
		return "Unknown"
	}
}

// KindOf reports which proof rule built p.
func KindOf(p Proof) Kind {
	switch p.(type) {
	case explicitProof:
		return KindExplicit
	case reflexivityProof:
		return KindReflexivity
	case symmetryProof:
		return KindSymmetry
	case transitivityProof:
		return KindTransitivity
	case congruenceProof:
		return KindCongruence
	case shrinkProof:
		return KindShrink
	default:
		return KindExplicit
	}
}

// matchEquation reports whether eq and other describe the same claim up
// to a renaming consistent across both sides.
func matchEquation(eq, other Equation) bool {
	theta, ok := lang.MatchAppliedId(other.L, eq.L)
	if !ok {
		return false
	}
	return other.R.ApplySlotmap(theta).Equal(eq.R)
}
