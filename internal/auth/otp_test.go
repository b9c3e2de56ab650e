package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPCode(t *testing.T) {
	t.Parallel()

	code, err := GenerateOTPCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
	}

	// Non-positive lengths fall back to six digits.
	code, err = GenerateOTPCode(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestVerifyOTPCode(t *testing.T) {
	t.Parallel()

	hash := HashOTPCode("493817")
	assert.NotEqual(t, "493817", hash)
	assert.True(t, VerifyOTPCode(hash, "493817"))
	assert.False(t, VerifyOTPCode(hash, "493818"))
	assert.False(t, VerifyOTPCode(hash, ""))
}
