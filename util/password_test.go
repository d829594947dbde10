package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	salt2, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, salt1, saltLen*2) // hex encoded
	assert.NotEqual(t, salt1, salt2)
}

func TestArgon2HashAndVerify(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	hashed, err := HashPasswordArgon2("s3cret", salt)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, argonPrefix))

	ok, err := VerifyPassword("s3cret", hashed, salt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hashed, salt)
	require.NoError(t, err)
	assert.False(t, ok)

	// Same password with a different salt must not verify.
	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	ok, err = VerifyPassword("s3cret", hashed, otherSalt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyLegacyHash(t *testing.T) {
	SetJWTSecret("legacy-secret")
	legacy := HashPassword("oldpass")

	ok, err := VerifyPassword("oldpass", legacy, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("newpass", legacy, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetJWTSecret(t *testing.T) {
	SetJWTSecret("abc")
	assert.Equal(t, []byte("abc"), GetJWTSecretByte())

	// Mutating the returned slice must not affect the stored secret.
	b := GetJWTSecretByte()
	b[0] = 'x'
	assert.Equal(t, []byte("abc"), GetJWTSecretByte())
}
