// Package slot implements the nominal names a slotted e-graph renames
// under alpha-equivalence: Slot, SlotSet, SlotMap, and the Perm
// (bijective SlotMap) used to record a class's self-symmetries.
//
// Slot equality is identity, not structure: two slots are the same slot
// only if Fresh returned the same value for both. Everything in this
// package is a finite, explicit renaming over that identity — there is
// no implicit capture or scoping here, that lives above this package.
package slot

import (
	"strconv"
	"sync/atomic"
)

// Slot is a nominal identity. The zero Slot is never returned by Fresh
// and is reserved as an explicit "no slot" sentinel where useful.
type Slot struct {
	id uint64
}

var counter uint64

// Fresh allocates a slot that has never been returned before by this
// process. The counter is process-wide and monotonically increasing, as
// required by spec: Slot's lifecycle is the process.
func Fresh() Slot {
	return Slot{id: atomic.AddUint64(&counter, 1)}
}

// ResetForTesting rewinds the process-wide counter so that deterministic
// tests can assert on exact slot identities. It must only be called from
// test setup, never from library or CLI code: two Fresh calls racing
// across a reset would collide.
func ResetForTesting() {
	atomic.StoreUint64(&counter, 0)
}

// Valid reports whether s was produced by Fresh (i.e. is not the zero
// Slot).
func (s Slot) Valid() bool {
	return s.id != 0
}

// String renders a slot for debug/log output, e.g. "s7".
func (s Slot) String() string {
	return "s" + strconv.FormatUint(s.id, 10)
}
