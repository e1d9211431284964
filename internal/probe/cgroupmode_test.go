//go:build linux

package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCgroupMode_Live(t *testing.T) {
	mode, err := DetectCgroupMode()
	require.NoError(t, err)
	// Every modern CI/container host mounts at least one cgroup hierarchy.
	assert.NotEqual(t, CgroupUnsupported, mode, "expected some cgroup hierarchy to be mounted")
	t.Logf("detected %s", mode)
}

func TestCgroupMode_HasV2(t *testing.T) {
	assert.True(t, CgroupV2.HasV2())
	assert.True(t, CgroupHybrid.HasV2())
	assert.False(t, CgroupV1.HasV2())
	assert.False(t, CgroupUnsupported.HasV2())
}

func TestCgroupMode_String(t *testing.T) {
	assert.Equal(t, "cgroup v1", CgroupV1.String())
	assert.Equal(t, "cgroup v2", CgroupV2.String())
	assert.Equal(t, "cgroup hybrid", CgroupHybrid.String())
	assert.Equal(t, "unsupported", CgroupUnsupported.String())
}
