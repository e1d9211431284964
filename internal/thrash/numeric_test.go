package thrash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMA_FirstSamplePassesThrough(t *testing.T) {
	e := newEMA(0.5)
	assert.Equal(t, 10.0, e.next(10))
	assert.InDelta(t, 15.0, e.next(20), 1e-9)
}

func TestEMA_AlphaOneNoSmoothing(t *testing.T) {
	e := newEMA(1.0)
	assert.Equal(t, 10.0, e.next(10))
	assert.Equal(t, 20.0, e.next(20))
}

func TestEMA_AlphaZeroHoldsInitial(t *testing.T) {
	e := newEMA(0.0)
	assert.Equal(t, 10.0, e.next(10))
	assert.Equal(t, 10.0, e.next(999))
}

func TestDeltaU64(t *testing.T) {
	assert.Equal(t, uint64(10), deltaU64(110, 100))
	assert.Equal(t, uint64(0), deltaU64(100, 100))
	assert.Equal(t, uint64(0), deltaU64(99, 100), "a decreasing counter clamps to zero rather than underflowing")
}

func TestSafeDiv(t *testing.T) {
	assert.InDelta(t, 2.5, safeDiv(5, 2), 1e-12)
	assert.Equal(t, 0.0, safeDiv(123, 0), "division by zero must not produce +Inf")
	assert.Equal(t, 0.0, safeDiv(123, 1e-13))
}
