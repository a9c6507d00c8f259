package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshDistinct(t *testing.T) {
	ResetForTesting()
	a := Fresh()
	b := Fresh()
	assert.NotEqual(t, a, b)
	assert.True(t, a.Valid())
	assert.True(t, b.Valid())
}

func TestResetForTesting(t *testing.T) {
	ResetForTesting()
	a := Fresh()
	ResetForTesting()
	b := Fresh()
	assert.Equal(t, a, b)
}

func TestSetOps(t *testing.T) {
	ResetForTesting()
	x, y, z := Fresh(), Fresh(), Fresh()

	s1 := NewSet(x, y)
	s2 := NewSet(y, z)

	assert.True(t, s1.Contains(x))
	assert.False(t, s1.Contains(z))
	assert.True(t, s1.Union(s2).Equal(NewSet(x, y, z)))
	assert.True(t, s1.Intersect(s2).Equal(NewSet(y)))
	assert.True(t, s1.Difference(s2).Equal(NewSet(x)))
	assert.True(t, NewSet(x).Subset(s1))
	assert.False(t, s1.Subset(NewSet(x)))
}

func TestMapComposeAndInverse(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()

	m1 := FromPairs([2]Slot{a, b})
	m2 := FromPairs([2]Slot{b, c})

	composed := m1.Compose(m2)
	got, ok := composed.Get(a)
	require.True(t, ok)
	assert.Equal(t, c, got)

	inv, ok := m1.Inverse()
	require.True(t, ok)
	got, ok = inv.Get(b)
	require.True(t, ok)
	assert.Equal(t, a, got)
}

func TestMapComposePartialDrops(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()

	m1 := FromPairs([2]Slot{a, b}, [2]Slot{c, c})
	m2 := FromPairs([2]Slot{b, a}) // domain of m2 does not contain c

	out := m1.ComposePartial(m2)
	assert.Equal(t, 1, out.Len())
	got, ok := out.Get(a)
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.False(t, out.Contains(c))
}

func TestComposePanicsOnMismatch(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()
	m1 := FromPairs([2]Slot{a, b})
	m2 := FromPairs([2]Slot{c, a}) // does not contain b

	assert.Panics(t, func() { m1.Compose(m2) })
}

func TestInverseFailsOnNonInjective(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()
	m := FromPairs([2]Slot{a, c}, [2]Slot{b, c})

	_, ok := m.Inverse()
	assert.False(t, ok)
}

func TestTryUnion(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()

	m1 := FromPairs([2]Slot{a, b})
	m2 := FromPairs([2]Slot{a, b}, [2]Slot{b, c})

	merged, ok := m1.TryUnion(m2)
	require.True(t, ok)
	assert.Equal(t, 2, merged.Len())

	m3 := FromPairs([2]Slot{a, c})
	_, ok = m1.TryUnion(m3)
	assert.False(t, ok)
}

func TestPermIdentityAndCompose(t *testing.T) {
	ResetForTesting()
	a, b := Fresh(), Fresh()
	dom := NewSet(a, b)

	id := IdentityPerm(dom)
	assert.True(t, id.IsIdentity())

	swap := AsPerm(FromPairs([2]Slot{a, b}, [2]Slot{b, a}))
	assert.False(t, swap.IsIdentity())

	roundtrip := swap.Compose(swap)
	assert.True(t, roundtrip.IsIdentity())

	inv := swap.Inverse()
	assert.True(t, inv.Compose(swap).IsIdentity())
}

func TestIsPermRejectsNonBijection(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()
	notAPerm := FromPairs([2]Slot{a, c}, [2]Slot{b, c})
	assert.False(t, IsPerm(notAPerm))
	assert.Panics(t, func() { AsPerm(notAPerm) })
}

func TestPermRestrict(t *testing.T) {
	ResetForTesting()
	a, b, c := Fresh(), Fresh(), Fresh()
	p := AsPerm(FromPairs([2]Slot{a, b}, [2]Slot{b, a}, [2]Slot{c, c}))

	restricted := p.Restrict(NewSet(a, b))
	assert.Equal(t, 2, restricted.Len())
	assert.False(t, restricted.Contains(c))
}
