// Package textsim implements the local text similarity estimator used when no
// remote provider answers.
package textsim

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Estimator weights.
const (
	JaccardWeight = 0.6
	EditWeight    = 0.4
)

// maxEditRunes bounds the edit-distance input so long responsibility texts stay cheap.
const maxEditRunes = 512

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "in": {}, "for": {},
	"to": {}, "with": {}, "on": {}, "at": {}, "by": {}, "or": {}, "as": {},
}

// Normalize lowercases s, replaces punctuation with spaces and collapses
// whitespace. The characters '+' and '#' survive so that "c++" and "c#" stay distinct.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '+', r == '#':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Tokens returns the distinct non-stopword tokens of the normalized text, in first-seen order.
func Tokens(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(Normalize(s)) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Jaccard returns the token-set overlap of a and b. Two empty texts score 0.
func Jaccard(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}

	inter := 0
	for _, t := range tb {
		if _, ok := set[t]; ok {
			inter++
		}
	}

	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// Levenshtein returns the rune-level edit distance between a and b.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// EditSimilarity maps the edit distance of the normalized texts to [0,1].
func EditSimilarity(a, b string) float64 {
	na, nb := truncate(Normalize(a)), truncate(Normalize(b))
	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(Levenshtein(na, nb))/float64(longest)
}

// Estimate blends Jaccard and edit similarity with the fixed 0.6/0.4 weights.
func Estimate(a, b string) float64 {
	if Normalize(a) == "" || Normalize(b) == "" {
		return 0
	}
	if Normalize(a) == Normalize(b) {
		return 1
	}
	return JaccardWeight*Jaccard(a, b) + EditWeight*EditSimilarity(a, b)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxEditRunes {
		return string(r[:maxEditRunes])
	}
	return s
}
