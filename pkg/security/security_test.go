package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateVisitCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 100; i++ {
		code, err := GenerateVisitCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestGenerateVisitCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVisitCode()
		require.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	assert.NoError(t, hasher.Compare(hash, "1234"))
	assert.Error(t, hasher.Compare(hash, "4321"))
}

func TestBcryptHasherRejectsShortSecret(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	_, err := hasher.Hash("123")
	assert.Error(t, err)
}
