package thrash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_Live(t *testing.T) {
	s, err := Sample(3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CooldownCounter)
	assert.False(t, s.Timestamp.IsZero())
	// PSIValid may be false on a kernel without pressure accounting, but
	// SwapCount and PageFaultsMajor always come from /proc/vmstat.
	assert.GreaterOrEqual(t, s.PageFaultsMajor, uint64(0))
}
