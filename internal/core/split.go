package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const numberPattern = `\d+(?:[.,]\d+)?`

// Label boundary and digit checks must be Unicode-aware: Spanish labels
// routinely end in accented letters ("café", "bebé"), which Go's
// ASCII-only \w would reject.
var (
	numberFirstRe = regexp.MustCompile(`^(` + numberPattern + `)\s+(.*)$`)
	numberLastRe  = regexp.MustCompile(`^(.*)\s+(` + numberPattern + `)$`)
	anyDigitRe    = regexp.MustCompile(`\p{Nd}`)
	startsWordRe  = regexp.MustCompile(`^[\p{L}\p{N}_]`)
	endsWordRe    = regexp.MustCompile(`[\p{L}\p{N}_]$`)
)

// SplitAmount separates a single numeric token from the free-text label of
// a raw expense message. The number must be the first or the last
// whitespace-separated token, the label must contain no other digits and
// must touch the separating whitespace with a word character (so
// "comida, 12" is rejected). A decimal comma is normalized to a point.
//
// It is a pure function: ok=false signals a non-match, never an error.
func SplitAmount(s string) (decimal.Decimal, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, "", false
	}

	if m := numberFirstRe.FindStringSubmatch(s); m != nil {
		label := strings.TrimSpace(m[2])
		if label == "" || !startsWordRe.MatchString(label) || anyDigitRe.MatchString(label) {
			return decimal.Zero, "", false
		}
		return parseAmount(m[1], label)
	}

	if m := numberLastRe.FindStringSubmatch(s); m != nil {
		label := strings.TrimSpace(m[1])
		if label == "" || !endsWordRe.MatchString(label) || anyDigitRe.MatchString(label) {
			return decimal.Zero, "", false
		}
		return parseAmount(m[2], label)
	}

	return decimal.Zero, "", false
}

func parseAmount(raw, label string) (decimal.Decimal, string, bool) {
	v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, "", false
	}
	return v, label, true
}
