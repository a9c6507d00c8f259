// Package group implements the permutation group attached to each
// e-class: the set of slot renamings that fix the class's meaning (its
// self-symmetries). Grounded on the egraph's group/api.rs Permutation /
// ProvenPerm design, generalized from a single proof-carrying
// permutation to the small, explicitly-enumerated group a class
// accumulates as rewrites discover more symmetries of it.
package group

import (
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

// Elem is a permutation together with the proof that it really is a
// self-symmetry of the class it belongs to (i.e. applying it to the
// class's syntactic witness yields something equal back to that
// witness). Groups never hold a bare Perm without this justification.
type Elem struct {
	Perm  slot.Perm
	Proof proof.ProvenEq
}

// Group is the finite set of slot permutations known to fix some
// class's identity, represented by an explicit generating set plus the
// full membership closure materialized eagerly. Classes here are small
// (their public slot count is bounded and usually under a dozen), so a
// transversal/orbit table computed by brute-force closure is simpler
// and plenty fast compared to a Schreier-Sims implementation — this is
// the one place the engine trades asymptotic elegance for code you can
// read in one sitting.
type Group struct {
	dom        slot.Set
	generators []Elem
	members    []Elem // closure of generators under composition, including identity
}

// New returns the trivial group over dom: just the identity.
func New(dom slot.Set) *Group {
	g := &Group{dom: dom.Clone()}
	g.members = []Elem{{Perm: slot.IdentityPerm(dom)}}
	return g
}

// Dom returns the slot set this group acts on.
func (g *Group) Dom() slot.Set { return g.dom }

// Generators returns the group's current generating set. The slice is
// owned by the caller; mutating it does not affect g.
func (g *Group) Generators() []Elem {
	out := make([]Elem, len(g.generators))
	copy(out, g.generators)
	return out
}

// Members returns every permutation in the group, including identity.
// The slice is owned by the caller.
func (g *Group) Members() []Elem {
	out := make([]Elem, len(g.members))
	copy(out, g.members)
	return out
}

// Contains reports whether p is a member of the group.
func (g *Group) Contains(p slot.Perm) bool {
	for _, m := range g.members {
		if permsEqual(m.Perm, p) {
			return true
		}
	}
	return false
}

// Add inserts e into the group if its permutation is not already a
// member, recomputing the membership closure. It is a no-op (returns
// false) if e.Perm is already present — adding a known symmetry again
// must never duplicate proof-forest work.
func (g *Group) Add(e Elem) bool {
	if g.Contains(e.Perm) {
		return false
	}
	g.generators = append(g.generators, e)
	g.members = closure(g.dom, g.members, e)
	return true
}

// Orbit returns every slot that some member of the group maps x to.
func (g *Group) Orbit(x slot.Slot) slot.Set {
	out := slot.NewSet()
	for _, m := range g.members {
		if y, ok := m.Perm.Get(x); ok {
			out.Insert(y)
		}
	}
	return out
}

// Size returns the number of distinct permutations in the group.
func (g *Group) Size() int { return len(g.members) }

// Lookup returns the member element equal to p, including its proof, if
// p is a member. Unlike Contains, this hands back the ProvenEq so
// callers can build further proofs (e.g. congruence over a child that
// is only equal up to a known class self-symmetry) on top of it.
func (g *Group) Lookup(p slot.Perm) (Elem, bool) {
	for _, m := range g.members {
		if permsEqual(m.Perm, p) {
			return m, true
		}
	}
	return Elem{}, false
}

// Translate returns a new Group acting over the image of m, obtained by
// conjugating every generator's permutation through the bijection m (g's
// domain -> some other, possibly entirely different, slot set) and
// re-deriving each generator's proof via reprove, which must produce a
// ProvenEq for the translated permutation given the original element
// and m. This is how a class's group survives convert_eclass moving it
// onto a new union-find edge, or merging into another class's group
// (spec §4.6/§4.9): the symmetries are the same symmetries, just
// relabeled through whichever slot set now names them. m need not be a
// self-permutation (domain and codomain may be different classes'
// slots) — only a bijection.
func (g *Group) Translate(m slot.Map, reprove func(orig Elem, m slot.Map) proof.ProvenEq) *Group {
	mInv, ok := m.Inverse()
	if !ok {
		panic(slot.InvariantError{Op: "Group.Translate", Msg: "translation map is not a bijection"})
	}
	newDom := slot.NewSet()
	for x := range g.dom {
		if y, ok := m.Get(x); ok {
			newDom.Insert(y)
		}
	}
	out := New(newDom)
	for _, e := range g.generators {
		translated := slot.AsPerm(mInv.Compose(e.Perm.Map).Compose(m))
		out.Add(Elem{Perm: translated, Proof: reprove(e, m)})
	}
	return out
}

func permsEqual(a, b slot.Perm) bool {
	return a.Map.Equal(b.Map)
}

// closure recomputes the full membership set from existing plus a newly
// added generator, by repeatedly composing known members with the full
// generator list until no new permutation appears.
func closure(dom slot.Set, existing []Elem, added Elem) []Elem {
	members := make([]Elem, len(existing))
	copy(members, existing)
	members = append(members, added)

	seen := map[string]bool{}
	keyOf := func(p slot.Perm) string {
		var b []byte
		for _, x := range slotOrder(dom) {
			y, ok := p.Get(x)
			if !ok {
				y = x
			}
			b = append(b, []byte(y.String())...)
			b = append(b, ',')
		}
		return string(b)
	}
	for _, m := range members {
		seen[keyOf(m.Perm)] = true
	}

	changed := true
	for changed {
		changed = false
		frontier := make([]Elem, len(members))
		copy(frontier, members)
		for _, a := range frontier {
			for _, b := range frontier {
				c := a.Perm.Compose(b.Perm)
				k := keyOf(c)
				if !seen[k] {
					seen[k] = true
					members = append(members, Elem{Perm: c, Proof: composeProofs(a, b)})
					changed = true
				}
			}
		}
	}
	return members
}

// composeProofs builds the proof that a's permutation followed by b's
// permutation is itself a self-symmetry, by chaining their individual
// justifications with transitivity when both are available. If either
// element lacks a proof (e.g. the synthesized identity), the composed
// element simply carries no proof of its own; it is still a structural
// member of the group, used for closure bookkeeping. A later Add of the
// same permutation does not attach a proof to it, since Add is a no-op
// for a permutation that is already a member.
func composeProofs(a, b Elem) proof.ProvenEq {
	if a.Proof == nil || b.Proof == nil {
		return nil
	}
	if combined, ok := proof.Prove(
		proof.Equation{L: proof.Eq(a.Proof).L, R: proof.Eq(b.Proof).R},
		proof.Transitivity(a.Proof, b.Proof),
	); ok {
		return combined
	}
	return nil
}

func slotOrder(dom slot.Set) []slot.Slot {
	return lang.SortedSlots(dom)
}
