package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "marriage-registry/pkg/domain-errors"
)

func TestGenerateIsRandom(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestHashAndMatch(t *testing.T) {
	hash, err := Hash("registrar-token")
	require.NoError(t, err)

	assert.True(t, Matches("registrar-token", hash))
	assert.False(t, Matches("other-token", hash))
	assert.False(t, Matches("", hash))
	assert.False(t, Matches("registrar-token", "not-a-bcrypt-hash"))
}

func TestHashRejectsUnusableTokens(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 73))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
