package egraph

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
)

// EGraph is the whole mutable aggregate: the class arena, the
// union-find-with-renaming-edges table and its proofs, and the
// hashcons. Per spec §5 this is single-threaded cooperative — every
// public mutator runs to completion before returning, and no internal
// locking is provided; callers serialize access themselves if shared
// across goroutines.
type EGraph struct {
	classes map[lang.ClassID]*EClass

	// unionfind holds, for every non-root class id, the edge to its
	// parent: M's domain is the parent's own Slots, its codomain is
	// this class's own Slots (the same convention an ordinary child
	// reference uses). Root classes have no entry.
	unionfind map[lang.ClassID]lang.AppliedId
	// unionProofs[id] proves Equation{Identity(id, classes[id].Slots),
	// unionfind[id]}.
	unionProofs map[lang.ClassID]proof.ProvenEq

	// hashcons maps a canonical shape's key to some class id known to
	// hold a node of that shape. The id may no longer be a root; every
	// consumer resolves it through Find before trusting it.
	hashcons map[string]lang.ClassID

	nextID uint64

	// allowShrink gates shrink_slots (spec §4.6, §7): when false, any
	// mutation that would need to shrink a class's public interface is
	// an invariant breach instead of being performed silently.
	allowShrink bool
}

// New returns an empty EGraph. allowShrink controls whether union and
// semantic_add are permitted to drop redundant public slots from a
// class (spec §9 open question (i)); callers that never need a smaller
// public interface than what a class started with should pass false so
// that an unexpected shrink surfaces as a panic instead of silently
// changing behavior.
func New(allowShrink bool) *EGraph {
	return &EGraph{
		classes:     map[lang.ClassID]*EClass{},
		unionfind:   map[lang.ClassID]lang.AppliedId{},
		unionProofs: map[lang.ClassID]proof.ProvenEq{},
		hashcons:    map[string]lang.ClassID{},
		allowShrink: allowShrink,
	}
}

func (g *EGraph) freshID() lang.ClassID {
	g.nextID++
	return lang.ClassID(g.nextID)
}

// Classes returns every class currently in the arena, keyed by id
// (including absorbed, non-root classes — callers that want only live
// classes should check Find(Identity(id, ...)).ID == id).
func (g *EGraph) Classes() map[lang.ClassID]*EClass {
	out := make(map[lang.ClassID]*EClass, len(g.classes))
	for id, c := range g.classes {
		out[id] = c
	}
	return out
}

// Class returns the class record for id, if any.
func (g *EGraph) Class(id lang.ClassID) (*EClass, bool) {
	c, ok := g.classes[id]
	return c, ok
}

func (g *EGraph) normalizeChildren(n lang.ENode) lang.ENode {
	return n.MapChildren(g.Find)
}

// Lookup probes the hashcons for n without inserting it, per spec §4.4.
func (g *EGraph) Lookup(n lang.ENode) (lang.AppliedId, bool) {
	normalized := g.normalizeChildren(n)
	shape := lang.ShapeOf(normalized)
	id, ok := g.hashcons[shape.Key()]
	if !ok {
		return lang.AppliedId{}, false
	}
	c := g.classes[id]
	canonInv, ok := c.CanonBij.Inverse()
	if !ok {
		return lang.AppliedId{}, false
	}
	m := canonInv.Compose(shape.Bij)
	return g.Find(lang.AppliedId{ID: id, M: m}), true
}

// Add inserts n, per spec §4.3: normalize children, hashcons-probe, and
// mint a new class only on a miss.
func (g *EGraph) Add(n lang.ENode) lang.AppliedId {
	if hit, ok := g.Lookup(n); ok {
		return hit
	}
	normalized := g.normalizeChildren(n)
	shape := lang.ShapeOf(normalized)
	id := g.freshID()
	c := newEClass(id, normalized, shape)
	g.classes[id] = c
	g.hashcons[shape.Key()] = id
	for _, child := range normalized.Children {
		g.classes[child.ID].Usages[id] = struct{}{}
	}
	return lang.Identity(id, c.Slots)
}

// AddExpr ingests a whole RecExpr bottom-up (lowest index first) and
// returns the class of its root, per spec §6's add_expr. Each node's
// children, named by index into expr, resolve to whatever AppliedId
// that earlier index produced — a shared index is only ever Add'ed
// once, same as a shared subtree in a hand-built pointer tree would
// hashcons to one class.
func (g *EGraph) AddExpr(expr lang.RecExpr) lang.AppliedId {
	ids := make([]lang.AppliedId, len(expr))
	for i, n := range expr {
		children := make([]lang.AppliedId, len(n.Children))
		for j, c := range n.Children {
			children[j] = ids[c]
		}
		ids[i] = g.Add(lang.ENode{Op: n.Op, Children: children, Binders: n.Binders, Uses: n.Uses})
	}
	return ids[expr.Root()]
}

// Fingerprint returns a cheap, order-independent digest of the graph's
// current hashcons contents: every shape key the hashcons holds
// (entries are never removed, so keys recorded for classes that were
// later absorbed stay in), xxhashed and folded together. Two fingerprints differing proves
// the graphs differ; two fingerprints matching is a strong but not
// certain signal they don't (a collision is possible) — good enough for
// a CLI progress line or a "did this rewrite round change anything"
// smoke check, not for correctness-critical comparisons (use Explain).
func (g *EGraph) Fingerprint() uint64 {
	keys := make([]string, 0, len(g.hashcons))
	for k := range g.hashcons {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var acc uint64
	for _, k := range keys {
		acc ^= xxhash.Sum64String(k)*0x9E3779B97F4A7C15 + 1
	}
	return acc
}

// Explain reconstructs a proof that l and r denote the same element, by
// walking each to its root and composing the stored edge proofs (spec
// §6). It only succeeds when l and r resolve to the exact same
// AppliedId; two applied ids that are equal only up to their class's
// symmetry group (and not literally, after Find) are a case this
// minimal Explain does not attempt to bridge — see DESIGN.md.
func (g *EGraph) Explain(l, r lang.AppliedId) (proof.ProvenEq, bool) {
	lFound, lProof := g.findWithProof(l)
	rFound, rProof := g.findWithProof(r)
	if !lFound.Equal(rFound) {
		return nil, false
	}
	rSym := proof.MustProve(proof.Equation{L: rFound, R: r}, proof.Symmetry(rProof))
	combined := proof.MustProve(proof.Equation{L: l, R: r}, proof.Transitivity(lProof, rSym))
	return combined, true
}
