package thrash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPidChain_Contains(t *testing.T) {
	chain := PidChain{10, 20, 30}
	assert.True(t, chain.Contains(20))
	assert.False(t, chain.Contains(99))
	assert.False(t, PidChain(nil).Contains(1))
}

func TestEqualChains(t *testing.T) {
	assert.True(t, equalChains(PidChain{1, 2}, PidChain{1, 2}))
	assert.False(t, equalChains(PidChain{1, 2}, PidChain{2, 1}))
	assert.False(t, equalChains(PidChain{1}, PidChain{1, 2}))
	assert.True(t, equalChains(nil, nil))
}

func TestFrozenItem_AllPids(t *testing.T) {
	item := FrozenItem{Kind: FrozenSigstop, Pids: PidChain{5, 6}}
	pids := item.AllPids()
	assert.Equal(t, []int{5, 6}, pids)

	// Mutating the returned slice must not alias the item's own storage.
	pids[0] = 999
	assert.Equal(t, PidChain{5, 6}, item.Pids)
}
