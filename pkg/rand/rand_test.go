package rand

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrFromUpperAlphanumeric(t *testing.T) {
	data := []struct {
		inputStrLen          int
		outputStrExpectedLen int
	}{
		{0, 0},
		{1, 1},
		{4, 4},
		{10, 10},
		{100, 100},
	}

	for _, d := range data {
		t.Run(fmt.Sprintf("Length %d", d.inputStrLen), func(t *testing.T) {
			randomStr, err := StrFrom(UpperAlphanumeric, d.inputStrLen)
			require.NoError(t, err)
			assert.Equal(t, d.outputStrExpectedLen, len(randomStr), fmt.Sprintf("Expected string of length %d, but got length %d", d.outputStrExpectedLen, len(randomStr)))
			assert.Regexp(t, "^[A-Z0-9]*$", randomStr)
		})
	}

	t.Run("RandomnessTest", func(t *testing.T) {
		randomStr1, err := StrFrom(UpperAlphanumeric, 16)
		require.NoError(t, err)
		randomStr2, err := StrFrom(UpperAlphanumeric, 16)
		require.NoError(t, err)

		assert.NotEqual(t, randomStr1, randomStr2, fmt.Sprintf("Random strings are not unique: %s and %s", randomStr1, randomStr2))
	})
}

func TestStrFrom(t *testing.T) {
	data := []struct {
		name     string
		alphabet string
		length   int
	}{
		{"single char", "X", 8},
		{"digits", "0123456789", 6},
		{"hex", "0123456789ABCDEF", 32},
		{"multibyte", "ÄÖÜ", 5},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			s, err := StrFrom(d.alphabet, d.length)
			require.NoError(t, err)
			require.Len(t, []rune(s), d.length)
			for _, r := range s {
				assert.True(t, strings.ContainsRune(d.alphabet, r), "unexpected rune %q", r)
			}
		})
	}

	t.Run("EmptyAlphabet", func(t *testing.T) {
		_, err := StrFrom("", 4)
		require.ErrorIs(t, err, ErrEmptyAlphabet)
	})

	t.Run("CoversAlphabet", func(t *testing.T) {
		seen := make(map[rune]struct{})
		for i := 0; i < 200; i++ {
			s, err := StrFrom("AB", 8)
			require.NoError(t, err)
			for _, r := range s {
				seen[r] = struct{}{}
			}
		}
		assert.Len(t, seen, 2)
	})
}
