//go:build linux

package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadShells_Live(t *testing.T) {
	names := ReadShells()
	assert.NotEmpty(t, names)
	for _, n := range names {
		assert.NotContains(t, n, "/", "ReadShells must strip directory components")
	}
}
