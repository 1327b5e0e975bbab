//go:build !ocr

package ocr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

func TestTesseractWithoutBuildTag(t *testing.T) {
	x := New(DefaultConfig())

	assert.False(t, x.Available())
	assert.True(t, errors.Is(x.Reason(), ErrTesseractNotCompiled))
	assert.True(t, errors.Is(x.Reason(), types.ErrCapabilityUnavailable))
}
