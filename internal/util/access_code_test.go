package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAccessCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeAccessCode("  ab12cd \n"))
	assert.Equal(t, "", NormalizeAccessCode("   "))
}

func TestDigestAccessCode(t *testing.T) {
	d1 := DigestAccessCode("K7P2QX", "secret-a")
	assert.Len(t, d1, 64)
	assert.Equal(t, d1, DigestAccessCode(" k7p2qx ", "secret-a"), "digest ignores case and whitespace")
	assert.NotEqual(t, d1, DigestAccessCode("K7P2QX", "secret-b"), "digest depends on the key")
	assert.NotEqual(t, d1, DigestAccessCode("K7P2QY", "secret-a"))
}

func TestGenerateAccessCode(t *testing.T) {
	for _, length := range []int{4, 6, 10} {
		code, err := GenerateAccessCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(AccessCodeAlphabet, r), "unexpected rune %q", r)
		}
	}

	code, err := GenerateAccessCode(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultAccessCodeLength)
}

func TestAccessCodeAlphabetHasNoAmbiguousRunes(t *testing.T) {
	assert.Len(t, AccessCodeAlphabet, 32)
	for _, r := range "01IO" {
		assert.False(t, strings.ContainsRune(AccessCodeAlphabet, r))
	}
}
