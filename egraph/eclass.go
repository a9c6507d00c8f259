// Package egraph implements the slot-aware e-graph itself: EClass,
// EGraph, union-find with renaming edges, hashconsing, congruence
// closure, and the symmetry group each class accumulates. It builds on
// lang (terms/shapes), proof (the justification forest) and group (per
// -class permutation groups), and is the only package that understands
// how those three fit together into a mutable, single-threaded
// aggregate.
package egraph

import (
	"github.com/orneryd/slotted-egraph/group"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/slot"
)

// EClass is one equivalence class: its own fixed public slot set (named
// once, at creation, and never renamed — only ever shrunk), the literal
// node forms it contains, the back-index of classes that reference it,
// and its self-symmetry group.
type EClass struct {
	ID lang.ClassID

	// Slots is the class's own public slot naming. It is fixed at
	// creation and only ever shrinks (via shrinkSlots); it is never
	// renamed, since every other class's reference to this one goes
	// through an AppliedId's renaming instead.
	Slots slot.Set

	// Nodes is every literal syntactic form known to denote this class,
	// keyed by LiteralKey so re-inserting an identical form is a no-op.
	// Distinct alpha-variants of the same shape can coexist here.
	Nodes map[string]lang.ENode

	// Usages is the set of classes that have at least one node
	// referencing this class as a child. It is a back-index only:
	// convert_eclass uses it to find which owners must be redone when
	// this class changes; it owns no data of its own.
	Usages map[lang.ClassID]struct{}

	// Group is this class's self-symmetry group, acting on Slots.
	Group *group.Group

	// SynNode is the first node this class was created from, fixed at
	// creation and never reassigned. No proof in this package reads it:
	// congruence proofs use the shape-matched node pair instead, and
	// shrink-restricted generators carry an Explicit proof.
	SynNode lang.ENode

	// CanonBij is the bijection from the canonical shape this class was
	// minted from to Slots, fixed at creation. It lets Lookup recover
	// the renaming from a later alpha-variant's own canonical bijection
	// without re-deriving it from scratch.
	CanonBij slot.Map
}

func newEClass(id lang.ClassID, n lang.ENode, shape lang.Shape) *EClass {
	slots := n.FreeSlots()
	return &EClass{
		ID:       id,
		Slots:    slots,
		Nodes:    map[string]lang.ENode{n.LiteralKey(): n},
		Usages:   map[lang.ClassID]struct{}{},
		Group:    group.New(slots),
		SynNode:  n,
		CanonBij: shape.Bij,
	}
}
