package slot

import "sort"

// Map is a finite partial map from Slot to Slot. The zero value is the
// empty map.
type Map struct {
	m map[Slot]Slot
}

// New returns an empty Map.
func New() Map {
	return Map{m: make(map[Slot]Slot)}
}

// Identity returns the map that sends every slot in dom to itself.
func Identity(dom Set) Map {
	out := New()
	for x := range dom {
		out.m[x] = x
	}
	return out
}

// FromPairs builds a Map from key/value pairs, in order (later pairs
// overwrite earlier ones for the same key).
func FromPairs(pairs ...[2]Slot) Map {
	out := New()
	for _, p := range pairs {
		out.m[p[0]] = p[1]
	}
	return out
}

// Len returns the number of entries in the map.
func (s Map) Len() int {
	return len(s.m)
}

// Get returns the image of x, if x is in the map's domain.
func (s Map) Get(x Slot) (Slot, bool) {
	y, ok := s.m[x]
	return y, ok
}

// MustGet returns the image of x. It panics if x is not in the domain;
// callers must only use it where the domain is already known to contain
// x (e.g. iterating Keys()).
func (s Map) MustGet(x Slot) Slot {
	y, ok := s.m[x]
	if !ok {
		panic(InvariantError{Op: "Map.MustGet", Msg: x.String() + " not in domain"})
	}
	return y
}

// Contains reports whether x is in the map's domain.
func (s Map) Contains(x Slot) bool {
	_, ok := s.m[x]
	return ok
}

// Insert sets the image of x to y, in place, and returns s.
func (s Map) Insert(x, y Slot) Map {
	s.m[x] = y
	return s
}

// Keys returns the map's domain.
func (s Map) Keys() Set {
	out := make(Set, len(s.m))
	for x := range s.m {
		out[x] = struct{}{}
	}
	return out
}

// Values returns the map's image (codomain restricted to the range).
func (s Map) Values() Set {
	out := make(Set, len(s.m))
	for _, y := range s.m {
		out[y] = struct{}{}
	}
	return out
}

// SortedKeys returns the map's domain ordered by each slot's internal
// id. The order is arbitrary but stable across calls for the same set
// of slots, which is what shape canonicalization needs to be
// deterministic (see lang.ShapeOf): a class's public slots are fixed
// for its lifetime, so this gives every AppliedId over that class the
// same traversal order.
func (s Map) SortedKeys() []Slot {
	keys := s.Keys().Slice()
	sort.Slice(keys, func(i, j int) bool { return keys[i].id < keys[j].id })
	return keys
}

// Clone returns an independent copy of s.
func (s Map) Clone() Map {
	out := make(map[Slot]Slot, len(s.m))
	for x, y := range s.m {
		out[x] = y
	}
	return Map{m: out}
}

// Iter calls f for every (key, value) pair. Iteration order is
// unspecified.
func (s Map) Iter(f func(x, y Slot)) {
	for x, y := range s.m {
		f(x, y)
	}
}

// Compose returns self-then-g: the map x -> g(s(x)). It is only defined
// when every value of s lies in g's domain; violating that is a contract
// error (an implementation bug upstream, per the core's error-handling
// design), not a recoverable condition, so Compose panics with
// InvariantError rather than returning an error.
func (s Map) Compose(g Map) Map {
	out := make(map[Slot]Slot, len(s.m))
	for x, y := range s.m {
		z, ok := g.m[y]
		if !ok {
			panic(InvariantError{Op: "Map.Compose", Msg: "value " + y.String() + " not in domain of right-hand map"})
		}
		out[x] = z
	}
	return Map{m: out}
}

// ComposePartial is like Compose, but entries whose value falls outside
// g's domain are dropped from the result instead of panicking.
func (s Map) ComposePartial(g Map) Map {
	out := make(map[Slot]Slot, len(s.m))
	for x, y := range s.m {
		if z, ok := g.m[y]; ok {
			out[x] = z
		}
	}
	return Map{m: out}
}

// Inverse returns the partial inverse of s: the map y -> x for every
// (x, y) in s. It succeeds (ok=true) only if s is injective, i.e. no two
// keys share a value — otherwise the "inverse" would not be a function,
// and Inverse reports ok=false rather than picking an arbitrary
// preimage.
func (s Map) Inverse() (Map, bool) {
	out := make(map[Slot]Slot, len(s.m))
	for x, y := range s.m {
		if prev, ok := out[y]; ok && prev != x {
			return Map{}, false
		}
		out[y] = x
	}
	return Map{m: out}, true
}

// TryUnion merges s and other pointwise. It fails (ok=false) if the two
// maps disagree on the image of any shared key.
func (s Map) TryUnion(other Map) (Map, bool) {
	out := make(map[Slot]Slot, len(s.m)+len(other.m))
	for x, y := range s.m {
		out[x] = y
	}
	for x, y := range other.m {
		if prev, ok := out[x]; ok && prev != y {
			return Map{}, false
		}
		out[x] = y
	}
	return Map{m: out}, true
}

// Equal reports whether s and other have exactly the same entries.
func (s Map) Equal(other Map) bool {
	if len(s.m) != len(other.m) {
		return false
	}
	for x, y := range s.m {
		if other.m[x] != y {
			return false
		}
	}
	return true
}

// InvariantError signals a contract violation inside the slot/group/
// egraph layer: a caller composed incompatible maps, inverted a
// non-injective one without checking, or otherwise broke an invariant
// the core relies on. It is not meant to be recovered from by ordinary
// control flow; per the design's error-handling bucket for "contract
// violations", it indicates an implementation bug.
type InvariantError struct {
	Op  string
	Msg string
}

func (e InvariantError) Error() string {
	return e.Op + ": " + e.Msg
}
