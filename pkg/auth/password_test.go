package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahadigital/schooldesk/internal/models"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("some-password")
	require.NoError(t, err)
	assert.NotEqual(t, "some-password", hash)

	assert.NoError(t, ComparePassword(hash, "some-password"))
	assert.Error(t, ComparePassword(hash, "some-other-password"))
}

func TestGenerateTempPassword_LengthAndCharset(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTempPassword(TempPasswordLen)
		require.NoError(t, err)
		assert.Len(t, pw, TempPasswordLen)

		for _, c := range pw {
			assert.True(t, strings.ContainsRune(tempPasswordCharset, c),
				"unexpected character %q in generated password", c)
		}
	}
}

func TestGenerateTempPassword_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw, err := GenerateTempPassword(TempPasswordLen)
		require.NoError(t, err)
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestValidateNewPassword(t *testing.T) {
	assert.ErrorIs(t, ValidateNewPassword(""), models.ErrWeakPassword)
	assert.ErrorIs(t, ValidateNewPassword("12345"), models.ErrWeakPassword)
	assert.NoError(t, ValidateNewPassword("123456"))
	assert.NoError(t, ValidateNewPassword("a perfectly long password"))
}
