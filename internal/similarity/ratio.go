package similarity

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio is the longest-matching-blocks similarity of a and b compared
// character by character: 2*M/T where M is the number of matched
// characters and T the combined length. Two empty strings score 1.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
