//go:build linux

package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes_Humanized(t *testing.T) {
	assert.Equal(t, "0 B", Bytes(0).Humanized())
	assert.Equal(t, "1023 B", Bytes(1023).Humanized())
	assert.Equal(t, "1.00 KB", Bytes(1024).Humanized())
	assert.Equal(t, "1.00 MB", Bytes(1024*1024).Humanized())
	assert.Equal(t, "1.00 GB", Bytes(1024*1024*1024).Humanized())
	assert.Equal(t, "1.00 TB", Bytes(uint64(1)<<40).Humanized())
}

func TestKBtoBytes(t *testing.T) {
	assert.Equal(t, Bytes(1024), KBtoBytes(1))
	assert.Equal(t, "1.00 MB", KBtoBytes(1024).Humanized())
}
