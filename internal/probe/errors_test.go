//go:build linux

package probe

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProcErr(t *testing.T) {
	assert.Nil(t, ClassifyProcErr(nil))
	assert.ErrorIs(t, ClassifyProcErr(os.ErrNotExist), ErrProcessGone)
	assert.ErrorIs(t, ClassifyProcErr(syscall.ESRCH), ErrProcessGone)
	assert.ErrorIs(t, ClassifyProcErr(syscall.ENOENT), ErrProcessGone)

	other := errors.New("boom")
	assert.Same(t, other, ClassifyProcErr(other))
}

func TestIsProcessGone(t *testing.T) {
	assert.True(t, IsProcessGone(ErrProcessGone))
	assert.True(t, IsProcessGone(ErrMalformed))
	assert.False(t, IsProcessGone(errors.New("other")))
}
