// pkg/market/rng_test.go
package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickRandDeterministic(t *testing.T) {
	a := NewTickRand("QNTM", 1700000000)
	b := NewTickRand("QNTM", 1700000000)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestTickRandVariesByTickerAndTime(t *testing.T) {
	base := NewTickRand("QNTM", 1700000000).Float64()
	otherTicker := NewTickRand("NEBU", 1700000000).Float64()
	otherTime := NewTickRand("QNTM", 1700000600).Float64()
	assert.NotEqual(t, base, otherTicker)
	assert.NotEqual(t, base, otherTime)
}

func TestFloat64InUnitInterval(t *testing.T) {
	g := NewTickRand("QNTM", 42)
	for i := 0; i < 1000; i++ {
		f := g.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}

func TestIntNWithinBound(t *testing.T) {
	g := NewTickRand("NEBU", 42)
	for i := 0; i < 1000; i++ {
		n := g.IntN(7)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 7)
	}
}

func TestRangeWithinBounds(t *testing.T) {
	g := NewTickRand("AURM", 42)
	for i := 0; i < 1000; i++ {
		f := g.Range(0.15, 0.50)
		require.GreaterOrEqual(t, f, 0.15)
		require.Less(t, f, 0.50)
	}
}
