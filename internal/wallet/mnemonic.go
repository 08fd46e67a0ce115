// Package wallet implements the local wallet providers the storefront
// connects to: an HD wallet kept as an age-encrypted BIP39 mnemonic and a
// go-ethereum keystore directory.
package wallet

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// MaxTypoDistance is the largest edit distance still offered as a suggestion.
const MaxTypoDistance = 2

var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[.):]\s*`)
	bulletListRegex   = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// GenerateMnemonic creates a new 12 or 24 word BIP39 phrase.
func GenerateMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", storeerr.WithDetails(storeerr.ErrInvalidInput, map[string]string{
			"words":   fmt.Sprint(words),
			"allowed": "12, 24",
		})
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases the phrase and strips list numbering,
// bullets, commas and repeated whitespace left over from copy-paste.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// ValidateMnemonic checks word count, vocabulary and checksum.
// Invalid phrases carry typo suggestions when any word is misspelled.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	count := len(strings.Fields(normalized))
	if count != 12 && count != 24 {
		return storeerr.WithDetails(storeerr.ErrInvalidMnemonic, map[string]string{
			"words": fmt.Sprint(count),
		})
	}

	if bip39.IsMnemonicValid(normalized) {
		return nil
	}
	if typos := DetectTypos(normalized); len(typos) > 0 {
		return storeerr.WithSuggestion(storeerr.ErrInvalidMnemonic, FormatTypoSuggestions(typos))
	}
	return storeerr.WithSuggestion(storeerr.ErrInvalidMnemonic, "checksum mismatch: check the word order")
}

// Typo describes a word outside the BIP39 vocabulary.
type Typo struct {
	Index      int // 0-based position in the phrase
	Word       string
	Suggestion string // empty when nothing is close enough
}

// IsValidWord reports whether word is in the English BIP39 list.
func IsValidWord(word string) bool {
	return slices.Contains(bip39.GetWordList(), strings.ToLower(word))
}

// SuggestWord returns the closest BIP39 word within MaxTypoDistance, or "".
func SuggestWord(input string) string {
	input = strings.ToLower(input)
	best, bestDist := "", math.MaxInt
	for _, word := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(input, word)
		if d == 0 {
			return word
		}
		if d < bestDist {
			best, bestDist = word, d
		}
	}
	if bestDist > MaxTypoDistance {
		return ""
	}
	return best
}

// DetectTypos lists every word of mnemonic outside the BIP39 vocabulary.
func DetectTypos(mnemonic string) []Typo {
	var typos []Typo
	for i, word := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if !IsValidWord(word) {
			typos = append(typos, Typo{Index: i, Word: word, Suggestion: SuggestWord(word)})
		}
	}
	return typos
}

// FormatTypoSuggestions renders typos one per line with 1-based positions.
func FormatTypoSuggestions(typos []Typo) string {
	lines := make([]string, 0, len(typos))
	for _, t := range typos {
		if t.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("word %d: '%s' - did you mean '%s'?", t.Index+1, t.Word, t.Suggestion))
		} else {
			lines = append(lines, fmt.Sprintf("word %d: '%s' is not a BIP39 word", t.Index+1, t.Word))
		}
	}
	return strings.Join(lines, "\n")
}
