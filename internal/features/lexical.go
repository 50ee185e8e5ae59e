package features

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"phishguard/internal/urlparts"
)

const specialChars = "#$%^*()_+={}[]|:;<>,.?/~"

var socialNetworks = []string{"facebook", "twitter", "instagram"}

// Lexical holds the signals computed from the URL string alone.
type Lexical struct {
	Length     int
	Letters    int
	Digits     int
	Specials   int
	Obfuscated int
	Equals     int
	QMarks     int
	Ampersands int

	LetterRatio      float64
	DigitRatio       float64
	SpecialRatio     float64
	ObfuscationRatio float64

	IsHTTPS   bool
	Bank      bool
	Pay       bool
	Crypto    bool
	SocialNet bool
}

// ComputeLexical does no I/O. Counts run over u.Raw exactly as given and
// ratios are 0 for an empty URL.
func ComputeLexical(u urlparts.URL) Lexical {
	rawURL := u.Raw
	l := Lexical{Length: utf8.RuneCountInString(rawURL)}

	for _, c := range rawURL {
		switch {
		case unicode.IsLetter(c):
			l.Letters++
		case unicode.IsDigit(c):
			l.Digits++
		}
		if strings.ContainsRune(specialChars, c) {
			l.Specials++
		}
	}

	l.Obfuscated = strings.Count(rawURL, "%")
	l.Equals = strings.Count(rawURL, "=")
	l.QMarks = strings.Count(rawURL, "?")
	l.Ampersands = strings.Count(rawURL, "&")

	l.LetterRatio = ratio(l.Letters, l.Length)
	l.DigitRatio = ratio(l.Digits, l.Length)
	l.SpecialRatio = ratio(l.Specials, l.Length)
	l.ObfuscationRatio = ratio(l.Obfuscated, l.Length)

	l.IsHTTPS = u.Scheme == "https"

	lower := strings.ToLower(rawURL)
	l.Bank = strings.Contains(lower, "bank")
	l.Pay = strings.Contains(lower, "pay")
	l.Crypto = strings.Contains(lower, "crypto")
	for _, s := range socialNetworks {
		if strings.Contains(lower, s) {
			l.SocialNet = true
			break
		}
	}

	return l
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
