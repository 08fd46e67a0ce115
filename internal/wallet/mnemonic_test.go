package wallet_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

func TestGenerateMnemonic(t *testing.T) {
	t.Parallel()
	for _, words := range []int{12, 24} {
		mnemonic, err := wallet.GenerateMnemonic(words)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(mnemonic), words)
		require.NoError(t, wallet.ValidateMnemonic(mnemonic))
	}

	_, err := wallet.GenerateMnemonic(15)
	require.ErrorIs(t, err, storeerr.ErrInvalidInput)
}

func TestNormalizeMnemonic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{"numbered list", "1. abandon\n2. abandon\n3) about"},
		{"bullets", "- abandon\n* abandon\n• about"},
		{"commas and caps", "Abandon, ABANDON,  about"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, "abandon abandon about", wallet.NormalizeMnemonic(tt.input))
		})
	}
}

func TestValidateMnemonic(t *testing.T) {
	t.Parallel()

	require.NoError(t, wallet.ValidateMnemonic(testMnemonic))
	require.NoError(t, wallet.ValidateMnemonic(strings.ToUpper(testMnemonic)))

	t.Run("wrong word count", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, wallet.ValidateMnemonic("abandon about"), storeerr.ErrInvalidMnemonic)
	})

	t.Run("bad checksum", func(t *testing.T) {
		t.Parallel()
		bad := strings.Repeat("abandon ", 12)
		require.ErrorIs(t, wallet.ValidateMnemonic(bad), storeerr.ErrInvalidMnemonic)
	})

	t.Run("typo suggestion", func(t *testing.T) {
		t.Parallel()
		typo := strings.Replace(testMnemonic, "about", "abuot", 1)
		err := wallet.ValidateMnemonic(typo)
		require.ErrorIs(t, err, storeerr.ErrInvalidMnemonic)

		var se *storeerr.StoreError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, se.Suggestion, "word 12")
		assert.Contains(t, se.Suggestion, "about")
	})
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abandon", wallet.SuggestWord("abandon"))
	assert.Equal(t, "abandon", wallet.SuggestWord("abandn"))
	assert.Empty(t, wallet.SuggestWord("xyzzyplugh"))
}

func TestDetectTypos(t *testing.T) {
	t.Parallel()
	typos := wallet.DetectTypos("abandon abandn xyzzyplugh")
	require.Len(t, typos, 2)
	assert.Equal(t, 1, typos[0].Index)
	assert.Equal(t, "abandon", typos[0].Suggestion)
	assert.Empty(t, typos[1].Suggestion)

	out := wallet.FormatTypoSuggestions(typos)
	assert.Contains(t, out, "word 2: 'abandn' - did you mean 'abandon'?")
	assert.Contains(t, out, "word 3: 'xyzzyplugh' is not a BIP39 word")
}
