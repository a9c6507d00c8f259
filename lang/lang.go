// Package lang defines the universal term representation shared by the
// whole engine — ClassID, AppliedId, ENode, and shape canonicalization —
// plus the small Language contract a caller implements to describe an
// operator table. Everything here is pure data manipulation; it knows
// nothing about e-classes, union-find, or proofs (those live in egraph
// and proof, which import this package, not the other way around).
package lang

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/orneryd/slotted-egraph/slot"
)

// ClassID names an equivalence class. Classes are never exposed raw;
// every reference to one is an AppliedId.
type ClassID uint64

func (id ClassID) String() string {
	return "e" + strconv.FormatUint(uint64(id), 10)
}

// AppliedId is a class id plus a renaming of that class's public slots
// into the caller's slot world. Invariant: m.Keys() == classes[id].Slots
// whenever the AppliedId is held by a live EGraph.
type AppliedId struct {
	ID ClassID
	M  slot.Map
}

// NewAppliedId builds an AppliedId from a class id and renaming.
func NewAppliedId(id ClassID, m slot.Map) AppliedId {
	return AppliedId{ID: id, M: m}
}

// Identity builds the applied id that refers to id without renaming any
// of the slots in dom.
func Identity(id ClassID, dom slot.Set) AppliedId {
	return AppliedId{ID: id, M: slot.Identity(dom)}
}

// Slots returns the free slots this applied id exposes to its context:
// the image of its renaming.
func (a AppliedId) Slots() slot.Set {
	return a.M.Values()
}

// Equal reports whether a and b name the same class through the same
// renaming.
func (a AppliedId) Equal(b AppliedId) bool {
	return a.ID == b.ID && a.M.Equal(b.M)
}

// ApplySlotmap renames a's public slots through theta: the result's
// renaming is a.M composed with theta (self, then theta). theta must be
// defined on every slot in a.Slots().
func (a AppliedId) ApplySlotmap(theta slot.Map) AppliedId {
	return AppliedId{ID: a.ID, M: a.M.Compose(theta)}
}

// ApplySlotmapFresh is like ApplySlotmap, but any slot in a.Slots() that
// theta does not cover is sent to a brand new fresh slot instead of
// causing a panic. Used when rehydrating a witness node into a context
// that only partially determines its free slots.
func (a AppliedId) ApplySlotmapFresh(theta slot.Map) AppliedId {
	out := slot.New()
	a.M.Iter(func(x, y slot.Slot) {
		if z, ok := theta.Get(y); ok {
			out.Insert(x, z)
		} else {
			out.Insert(x, slot.Fresh())
		}
	})
	return AppliedId{ID: a.ID, M: out}
}

// MatchAppliedId returns the renaming theta over a's image such that
// a.ApplySlotmap(theta) == b, if a and b name the same class with the
// same public-slot domain. Used to compose proofs about the "same"
// equation observed through two different renamings.
func MatchAppliedId(a, b AppliedId) (slot.Map, bool) {
	if a.ID != b.ID {
		return slot.Map{}, false
	}
	if !a.M.Keys().Equal(b.M.Keys()) {
		return slot.Map{}, false
	}
	aInv, ok := a.M.Inverse()
	if !ok {
		return slot.Map{}, false
	}
	theta := aInv.Compose(b.M)
	return theta, true
}

// ENode is a shallow term node: an operator label, an ordered list of
// child AppliedIds, the slots the operator itself binds (in the order
// they appear on the operator, e.g. a lambda's parameter), and any slots
// the operator refers to directly without going through a child class
// (e.g. a bare variable reference).
type ENode struct {
	Op       string
	Children []AppliedId
	Binders  []slot.Slot
	Uses     []slot.Slot
}

// FreeSlots returns every slot this node exposes to its context: the
// union of its children's free slots and its own direct uses, minus the
// slots it binds itself.
func (n ENode) FreeSlots() slot.Set {
	out := slot.NewSet()
	for _, c := range n.Children {
		for x := range c.Slots() {
			out.Insert(x)
		}
	}
	for _, u := range n.Uses {
		out.Insert(u)
	}
	bound := slot.NewSet(n.Binders...)
	return out.Difference(bound)
}

// MapChildren returns a copy of n with every child AppliedId replaced by
// f(child). Binders and Uses are untouched. This is the "normalize
// enode's children via find" operation (spec §4.3 step 1).
func (n ENode) MapChildren(f func(AppliedId) AppliedId) ENode {
	children := make([]AppliedId, len(n.Children))
	for i, c := range n.Children {
		children[i] = f(c)
	}
	return ENode{Op: n.Op, Children: children, Binders: append([]slot.Slot(nil), n.Binders...), Uses: append([]slot.Slot(nil), n.Uses...)}
}

// ApplySlotmapFresh renames every free slot of n through theta (sending
// any free slot theta does not cover to a fresh slot), and renames every
// binder to a brand new fresh slot (capture-avoiding: binders are always
// rewritten to slots nothing else could already be using).
func (n ENode) ApplySlotmapFresh(theta slot.Map) ENode {
	local := slot.New()
	for _, b := range n.Binders {
		local.Insert(b, slot.Fresh())
	}
	rename := func(x slot.Slot) slot.Slot {
		if y, ok := local.Get(x); ok {
			return y
		}
		if y, ok := theta.Get(x); ok {
			return y
		}
		y := slot.Fresh()
		local.Insert(x, y)
		return y
	}
	children := make([]AppliedId, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.ApplySlotmapFresh(theta)
	}
	binders := make([]slot.Slot, len(n.Binders))
	for i, b := range n.Binders {
		binders[i] = rename(b)
	}
	uses := make([]slot.Slot, len(n.Uses))
	for i, u := range n.Uses {
		uses[i] = rename(u)
	}
	return ENode{Op: n.Op, Children: children, Binders: binders, Uses: uses}
}

// ApplySlotmapOnFree renames only n's free slots through theta, leaving
// binders exactly as they are (no fresh-ening). Used where a node must
// move into a different slot coordinate system without disturbing its
// own internal binder identities — self-symmetry detection comparing a
// node to a permuted copy of itself, and moving a node's free-slot
// naming from an absorbed class's coordinates to the surviving class's
// during union. theta must cover every free slot of n.
func (n ENode) ApplySlotmapOnFree(theta slot.Map) ENode {
	bound := slot.NewSet(n.Binders...)
	rename := func(x slot.Slot) slot.Slot {
		if bound.Contains(x) {
			return x
		}
		return theta.MustGet(x)
	}
	children := make([]AppliedId, len(n.Children))
	for i, c := range n.Children {
		newM := slot.New()
		c.M.Iter(func(k, v slot.Slot) {
			newM.Insert(k, rename(v))
		})
		children[i] = AppliedId{ID: c.ID, M: newM}
	}
	uses := make([]slot.Slot, len(n.Uses))
	for i, u := range n.Uses {
		uses[i] = rename(u)
	}
	return ENode{Op: n.Op, Children: children, Binders: append([]slot.Slot(nil), n.Binders...), Uses: uses}
}

// LiteralKey returns a string uniquely identifying n's literal structure
// (no canonicalization) — the dedup key an EClass uses to keep its Nodes
// set free of exact duplicates, distinct from Shape.Key's up-to-renaming
// identity used by the hashcons.
func (n ENode) LiteralKey() string {
	var b strings.Builder
	b.WriteString(n.Op)
	b.WriteByte('|')
	for _, x := range n.Binders {
		b.WriteString(x.String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, x := range n.Uses {
		b.WriteString(x.String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, c := range n.Children {
		b.WriteString(c.ID.String())
		b.WriteByte('{')
		for _, k := range c.M.SortedKeys() {
			v := c.M.MustGet(k)
			b.WriteString(k.String())
			b.WriteByte('=')
			b.WriteString(v.String())
			b.WriteByte(',')
		}
		b.WriteString("};")
	}
	return b.String()
}

// Equal reports whether n and m are literally the same node: same
// operator, same children (by AppliedId equality), same binder and use
// slots in the same positions. It does not account for alpha-renaming —
// use Shape for that.
func (n ENode) Equal(m ENode) bool {
	if n.Op != m.Op || len(n.Children) != len(m.Children) || len(n.Binders) != len(m.Binders) || len(n.Uses) != len(m.Uses) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(m.Children[i]) {
			return false
		}
	}
	for i := range n.Binders {
		if n.Binders[i] != m.Binders[i] {
			return false
		}
	}
	for i := range n.Uses {
		if n.Uses[i] != m.Uses[i] {
			return false
		}
	}
	return true
}

var (
	canonMu    sync.Mutex
	canonSlots []slot.Slot
)

// canonicalSlot returns the i-th slot in a process-wide canonical
// sequence, allocating more as needed. Because the same index always
// yields the same slot identity, two independently computed shapes with
// the same structure produce bit-identical canonical nodes.
func canonicalSlot(i int) slot.Slot {
	canonMu.Lock()
	defer canonMu.Unlock()
	for len(canonSlots) <= i {
		canonSlots = append(canonSlots, slot.Fresh())
	}
	return canonSlots[i]
}

// Shape is the canonical form of a node under free-slot (and bound-slot)
// renaming, plus the bijection needed to recover the original node:
// Canon.ApplySlotmapFresh-free reconstruction is Canon rehydrated by Bij
// (see Rehydrate). Two nodes have equal shapes (by Key) iff they are
// equal modulo a renaming of their slots.
type Shape struct {
	Canon ENode
	Bij   slot.Map // canonical slot -> original slot
}

// ShapeOf computes shape(enode): canonical_node and the bijection back
// to the original, per spec §4.2 — binder slots first (in the order
// they appear on the operator), then every other slot in first-occurrence,
// left-to-right order over the node's Uses and then its children, each
// child's own slots visited in the class's fixed (numeric) order so that
// two runs of this function over equal nodes agree.
func ShapeOf(n ENode) Shape {
	bij := slot.New()
	seen := slot.New() // original -> canonical
	next := 0
	canonOf := func(orig slot.Slot) slot.Slot {
		if c, ok := seen.Get(orig); ok {
			return c
		}
		c := canonicalSlot(next)
		next++
		seen.Insert(orig, c)
		bij.Insert(c, orig)
		return c
	}

	binders := make([]slot.Slot, len(n.Binders))
	for i, b := range n.Binders {
		binders[i] = canonOf(b)
	}
	uses := make([]slot.Slot, len(n.Uses))
	for i, u := range n.Uses {
		uses[i] = canonOf(u)
	}
	children := make([]AppliedId, len(n.Children))
	for i, c := range n.Children {
		newM := slot.New()
		for _, k := range c.M.SortedKeys() {
			v := c.M.MustGet(k)
			newM.Insert(k, canonOf(v))
		}
		children[i] = AppliedId{ID: c.ID, M: newM}
	}

	return Shape{Canon: ENode{Op: n.Op, Children: children, Binders: binders, Uses: uses}, Bij: bij}
}

// Rehydrate reconstructs the original node shape.Canon was computed from.
func (s Shape) Rehydrate() ENode {
	return s.Canon.ApplySlotmapFresh(s.Bij)
}

// Key returns a string that is equal for two shapes iff their canonical
// nodes are structurally identical — the hashcons lookup key.
func (s Shape) Key() string {
	var b strings.Builder
	b.WriteString(s.Canon.Op)
	b.WriteByte('|')
	for _, x := range s.Canon.Binders {
		b.WriteString(x.String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, x := range s.Canon.Uses {
		b.WriteString(x.String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, c := range s.Canon.Children {
		b.WriteString(c.ID.String())
		b.WriteByte('{')
		keys := c.M.SortedKeys()
		for _, k := range keys {
			v := c.M.MustGet(k)
			b.WriteString(k.String())
			b.WriteByte('=')
			b.WriteString(v.String())
			b.WriteByte(',')
		}
		b.WriteString("};")
	}
	return b.String()
}

// OpArity describes how many binder slots, direct slot uses, and
// children an operator has. A Language implementation's table of these
// drives the textual parser and the pattern compiler; the core egraph
// package never consults it, since ENode already carries its own arity.
type OpArity struct {
	Binders  int
	Uses     int
	Children int
}

// Language is the collaborator contract (spec §4.12): a table mapping
// operator names to their arity, used by the parser and pattern
// compiler. The core engine is polymorphic over any Language because
// ENode's representation is already fully generic.
type Language interface {
	// Name identifies the language, e.g. for log messages.
	Name() string
	// Arity returns the operator's arity, or ok=false if op is unknown.
	Arity(op string) (OpArity, bool)
}

// Table is a map-backed Language implementation sufficient for most
// concrete languages (see package lambda for an example).
type Table struct {
	LangName string
	Ops      map[string]OpArity
}

func (t Table) Name() string { return t.LangName }

func (t Table) Arity(op string) (OpArity, bool) {
	a, ok := t.Ops[op]
	return a, ok
}

// SortedSlots is a small helper used by callers that need a
// deterministic order for a slot set (e.g. group's membership keys).
func SortedSlots(s slot.Set) []slot.Slot {
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
