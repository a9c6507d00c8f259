package pattern

import (
	"fmt"

	"github.com/orneryd/slotted-egraph/egraph"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

// Subst binds a pattern's free pattern-variables to e-classes (Vars) and
// its pattern-local slot placeholders to concrete slots (Slots), as
// produced by a successful match and consumed by PatternSubst.
type Subst struct {
	Vars  map[string]lang.AppliedId
	Slots map[string]slot.Slot
}

func newSubst() Subst {
	return Subst{Vars: map[string]lang.AppliedId{}, Slots: map[string]slot.Slot{}}
}

func (s Subst) clone() Subst {
	out := newSubst()
	for k, v := range s.Vars {
		out.Vars[k] = v
	}
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	return out
}

// Match pairs a substitution with the root AppliedId it was found at.
type Match struct {
	Root  lang.AppliedId
	Subst Subst
}

// EMatchAll searches g for every occurrence of p, per spec §4.11. It
// only matches against e-class roots (a class still merged away by
// Union is never reported), and for a concrete-operator pattern it
// tries every literal node currently stored in a candidate class.
func EMatchAll(p *Pattern, g *egraph.EGraph) []Match {
	var out []Match
	for id, cls := range g.Classes() {
		root := lang.Identity(id, cls.Slots)
		if g.Find(root).ID != id {
			continue
		}
		for _, s := range matchPattern(p, root, g, newSubst()) {
			out = append(out, Match{Root: root, Subst: s})
		}
	}
	return out
}

func matchPattern(p *Pattern, target lang.AppliedId, g *egraph.EGraph, s Subst) []Subst {
	if p.Var != "" {
		if bound, ok := s.Vars[p.Var]; ok {
			if bound.Equal(target) {
				return []Subst{s}
			}
			return nil
		}
		next := s.clone()
		next.Vars[p.Var] = target
		return []Subst{next}
	}

	cls, ok := g.Class(target.ID)
	if !ok {
		return nil
	}

	var results []Subst
	for _, n := range cls.Nodes {
		if n.Op != p.Op || len(n.Children) != len(p.Children) ||
			len(n.Binders) != len(p.BinderNames) || len(n.Uses) != len(p.UseNames) {
			continue
		}
		rehydrated := n.ApplySlotmapOnFree(target.M)

		branch := s.clone()
		if !bindSlots(&branch, p.BinderNames, rehydrated.Binders) {
			continue
		}
		if !bindSlots(&branch, p.UseNames, rehydrated.Uses) {
			continue
		}

		substs := []Subst{branch}
		for i, childPat := range p.Children {
			var next []Subst
			for _, cur := range substs {
				next = append(next, matchPattern(childPat, rehydrated.Children[i], g, cur)...)
			}
			substs = next
			if len(substs) == 0 {
				break
			}
		}
		results = append(results, substs...)
	}
	return results
}

func bindSlots(s *Subst, names []string, actual []slot.Slot) bool {
	for i, name := range names {
		if bound, ok := s.Slots[name]; ok {
			if bound != actual[i] {
				return false
			}
			continue
		}
		s.Slots[name] = actual[i]
	}
	return true
}

// PatternSubst instantiates p under s, adding whatever nodes are needed
// to g and returning the resulting AppliedId. Pattern variables resolve
// directly to their bound AppliedId; a binder/use slot placeholder not
// already bound by the match (typical for an applier pattern introducing
// a brand new binder) is minted fresh.
func PatternSubst(p *Pattern, s Subst, g *egraph.EGraph) lang.AppliedId {
	if p.Var != "" {
		bound, ok := s.Vars[p.Var]
		if !ok {
			panic(fmt.Sprintf("pattern: unbound pattern variable ?%s", p.Var))
		}
		return bound
	}

	children := make([]lang.AppliedId, len(p.Children))
	for i, c := range p.Children {
		children[i] = PatternSubst(c, s, g)
	}
	binders := make([]slot.Slot, len(p.BinderNames))
	for i, name := range p.BinderNames {
		binders[i] = resolveOrFreshSlot(s, name)
	}
	uses := make([]slot.Slot, len(p.UseNames))
	for i, name := range p.UseNames {
		uses[i] = resolveOrFreshSlot(s, name)
	}
	return g.Add(lang.ENode{Op: p.Op, Children: children, Binders: binders, Uses: uses})
}

func resolveOrFreshSlot(s Subst, name string) slot.Slot {
	if x, ok := s.Slots[name]; ok {
		return x
	}
	x := slot.Fresh()
	s.Slots[name] = x
	return x
}

// Rewrite is a named LHS/RHS pattern pair applied as a searcher over the
// whole e-graph followed by an applier that unions each match's root
// with the RHS instantiated under that match's substitution, per
// spec §4.11.
type Rewrite struct {
	Name string
	LHS  *Pattern
	RHS  *Pattern
}

// NewRewrite compiles a rewrite from its LHS/RHS textual patterns.
func NewRewrite(name string, lng lang.Language, lhsText, rhsText string) (Rewrite, error) {
	lhs, err := Parse(lng, lhsText)
	if err != nil {
		return Rewrite{}, fmt.Errorf("rewrite %q: lhs: %w", name, err)
	}
	rhs, err := Parse(lng, rhsText)
	if err != nil {
		return Rewrite{}, fmt.Errorf("rewrite %q: rhs: %w", name, err)
	}
	return Rewrite{Name: name, LHS: lhs, RHS: rhs}, nil
}

// Apply runs one full search-then-apply pass of r over g and returns how
// many matches produced a change (a non-no-op Union).
func (r Rewrite) Apply(g *egraph.EGraph) int {
	matches := EMatchAll(r.LHS, g)
	applied := 0
	for _, m := range matches {
		rhsID := PatternSubst(r.RHS, m.Subst, g)
		if g.Union(m.Root, rhsID, proof.Explicit("rewrite:"+r.Name)) {
			applied++
		}
	}
	return applied
}

// RunRewrites applies every rule in rules, repeatedly, until a full pass
// makes no change or maxRounds is reached (spec §4.11's saturation
// loop). It returns the number of passes that changed the graph; the
// final pass that finds nothing to do is not counted.
func RunRewrites(g *egraph.EGraph, rules []Rewrite, maxRounds int) int {
	round := 0
	for ; round < maxRounds; round++ {
		changed := 0
		for _, r := range rules {
			changed += r.Apply(g)
		}
		if changed == 0 {
			break
		}
	}
	return round
}
