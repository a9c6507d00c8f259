package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/slot"
)

func TestTrivialGroup(t *testing.T) {
	slot.ResetForTesting()
	x, y := slot.Fresh(), slot.Fresh()
	dom := slot.NewSet(x, y)

	g := New(dom)
	assert.Equal(t, 1, g.Size())
	assert.True(t, g.Contains(slot.IdentityPerm(dom)))
}

func TestAddGeneratorClosesUnderComposition(t *testing.T) {
	slot.ResetForTesting()
	x, y, z := slot.Fresh(), slot.Fresh(), slot.Fresh()
	dom := slot.NewSet(x, y, z)

	// a 3-cycle: x->y->z->x
	cycle := slot.AsPerm(slot.FromPairs([2]slot.Slot{x, y}, [2]slot.Slot{y, z}, [2]slot.Slot{z, x}))

	g := New(dom)
	added := g.Add(Elem{Perm: cycle})
	require.True(t, added)

	// a 3-cycle generates a group of order 3 (itself, its square, identity).
	assert.Equal(t, 3, g.Size())
	assert.True(t, g.Contains(cycle.Compose(cycle)))
}

func TestAddIsIdempotent(t *testing.T) {
	slot.ResetForTesting()
	x, y := slot.Fresh(), slot.Fresh()
	dom := slot.NewSet(x, y)
	swap := slot.AsPerm(slot.FromPairs([2]slot.Slot{x, y}, [2]slot.Slot{y, x}))

	g := New(dom)
	require.True(t, g.Add(Elem{Perm: swap}))
	assert.False(t, g.Add(Elem{Perm: swap}))
	assert.Equal(t, 2, g.Size())
}

func TestOrbit(t *testing.T) {
	slot.ResetForTesting()
	x, y, z := slot.Fresh(), slot.Fresh(), slot.Fresh()
	dom := slot.NewSet(x, y, z)
	cycle := slot.AsPerm(slot.FromPairs([2]slot.Slot{x, y}, [2]slot.Slot{y, z}, [2]slot.Slot{z, x}))

	g := New(dom)
	g.Add(Elem{Perm: cycle})

	orbit := g.Orbit(x)
	assert.True(t, orbit.Equal(slot.NewSet(x, y, z)))
}

func TestTranslate(t *testing.T) {
	slot.ResetForTesting()
	x, y := slot.Fresh(), slot.Fresh()
	dom := slot.NewSet(x, y)
	swap := slot.AsPerm(slot.FromPairs([2]slot.Slot{x, y}, [2]slot.Slot{y, x}))

	g := New(dom)
	g.Add(Elem{Perm: swap})

	x2, y2 := slot.Fresh(), slot.Fresh()
	rename := slot.FromPairs([2]slot.Slot{x, x2}, [2]slot.Slot{y, y2})

	translated := g.Translate(rename, func(orig Elem, m slot.Map) proof.ProvenEq {
		return nil
	})
	assert.Equal(t, 2, translated.Size())
	assert.True(t, translated.Dom().Equal(slot.NewSet(x2, y2)))
}
