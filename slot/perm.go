package slot

// Perm is a Map that is a bijection of a slot set onto itself: its keys
// and values are the same set, and it is injective. Group generators and
// members are always Perm values.
type Perm struct {
	Map
}

// IsPerm reports whether m is a bijection of some slot set onto itself:
// domain equals codomain, and no two keys share a value.
func IsPerm(m Map) bool {
	if !m.Keys().Equal(m.Values()) {
		return false
	}
	seen := make(Set, m.Len())
	ok := true
	m.Iter(func(_, y Slot) {
		if seen.Contains(y) {
			ok = false
		}
		seen.Insert(y)
	})
	return ok
}

// AsPerm wraps m as a Perm, panicking if m is not actually a
// permutation. Use IsPerm first when the caller cannot guarantee this.
func AsPerm(m Map) Perm {
	if !IsPerm(m) {
		panic(InvariantError{Op: "AsPerm", Msg: "map is not a permutation of a single slot set"})
	}
	return Perm{Map: m}
}

// IdentityPerm returns the identity permutation over dom.
func IdentityPerm(dom Set) Perm {
	return Perm{Map: Identity(dom)}
}

// Compose returns the permutation self-then-g.
func (p Perm) Compose(g Perm) Perm {
	return Perm{Map: p.Map.Compose(g.Map)}
}

// Inverse returns the inverse permutation. Since p is a bijection by
// construction, this always succeeds.
func (p Perm) Inverse() Perm {
	inv, ok := p.Map.Inverse()
	if !ok {
		panic(InvariantError{Op: "Perm.Inverse", Msg: "permutation invariant violated: not injective"})
	}
	return Perm{Map: inv}
}

// IsIdentity reports whether p fixes every slot in its domain.
func (p Perm) IsIdentity() bool {
	ident := true
	p.Iter(func(x, y Slot) {
		if x != y {
			ident = false
		}
	})
	return ident
}

// Restrict returns the permutation obtained by dropping every slot not
// in keep from both the domain and codomain. Used by shrink_slots to cut
// a class's group generators down to a smaller public slot set (spec
// §4.6 step 3).
func (p Perm) Restrict(keep Set) Perm {
	out := New()
	p.Iter(func(x, y Slot) {
		if keep.Contains(x) && keep.Contains(y) {
			out.Insert(x, y)
		}
	})
	return Perm{Map: out}
}
