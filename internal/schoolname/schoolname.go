// Package schoolname derives the join key used to match schools across
// datasets that spell school names differently.
package schoolname

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnnormalizable is returned when a value yields an empty key.
var ErrUnnormalizable = errors.New("school name cannot be normalized")

// Strategy selects how aggressively names are folded.
type Strategy string

const (
	// Basic lowercases and strips spaces and periods.
	Basic Strategy = "basic"
	// Loose also drops all punctuation and folds school-type suffix variants.
	Loose Strategy = "loose"
)

// ParseStrategy maps a config value to a Strategy. Empty means Basic.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Basic:
		return Basic, nil
	case Loose:
		return Loose, nil
	default:
		return "", fmt.Errorf("unknown normalization strategy %q (use basic|loose)", s)
	}
}

// Normalize returns the Basic key for value.
func Normalize(value string) (string, error) {
	key := strings.NewReplacer(" ", "", ".", "").Replace(strings.ToLower(value))
	if key == "" {
		return "", fmt.Errorf("%w: %q", ErrUnnormalizable, value)
	}
	return key, nil
}

// Normalizer produces join keys for one strategy.
type Normalizer struct {
	Strategy Strategy
}

// Key normalizes value according to n.Strategy.
func (n Normalizer) Key(value string) (string, error) {
	if n.Strategy != Loose {
		return Normalize(value)
	}
	return normalizeLoose(value)
}

// Suffix folds applied by Loose, longest first so "elementary school" wins
// over "elementary".
var looseFolds = []struct{ from, to string }{
	{"elementary school", "elem"},
	{"elem school", "elem"},
	{"elementary", "elem"},
	{"high school", "hs"},
	{"middle school", "ms"},
	{"academy", "acad"},
	{"saint", "st"},
}

func normalizeLoose(value string) (string, error) {
	s := " " + strings.ToLower(value) + " "
	// collapse punctuation to spaces first so "Elem." and "Elem" fold alike
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	s = " " + strings.Join(strings.Fields(b.String()), " ") + " "
	for _, f := range looseFolds {
		s = strings.ReplaceAll(s, " "+f.from+" ", " "+f.to+" ")
	}
	key := strings.ReplaceAll(s, " ", "")
	if key == "" {
		return "", fmt.Errorf("%w: %q", ErrUnnormalizable, value)
	}
	return key, nil
}
