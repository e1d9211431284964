//go:build linux

package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVMStat(t *testing.T) {
	vs, err := ReadVMStat()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, vs.PageFaultsMajor, uint64(0))

	vs2, err := ReadVMStat()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, vs2.PageFaultsMajor, vs.PageFaultsMajor, "pgmajfault must be monotonic")
	assert.GreaterOrEqual(t, vs2.SwapIn, vs.SwapIn)
	assert.GreaterOrEqual(t, vs2.SwapOut, vs.SwapOut)
}
