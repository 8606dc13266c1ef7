package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("(650) 253-0000", "us")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	got, err = Normalize("+1 650 253 0000", "GN")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)
}

func TestNormalizeEmpty(t *testing.T) {
	got, err := Normalize("   ", "US")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize("not a number", "US")
	assert.Error(t, err)

	_, err = Normalize("+1 000", "US")
	assert.Error(t, err)
}
