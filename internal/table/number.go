package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// plainDecimal is the only shape CleanNumber returns: no hex, no Inf/NaN.
var plainDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// CleanNumber canonicalizes a numeric cell to a plain decimal literal
// ("-1234.5"). Currency symbols, percent signs and thousands separators are
// dropped; "(12)" is read as -12. The decimal separator is auto-detected:
// when both ',' and '.' appear the right-most one is the decimal point.
func CleanNumber(s string) (string, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return "", false
	}
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	raw = strings.NewReplacer("$", "", "%", "").Replace(raw)
	raw = strings.TrimSpace(raw)

	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		dec = ','
	case cpos >= 0 && dpos < 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
		// "0,5" is a decimal comma; "1,000" is a thousands group
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if !plainDecimal.MatchString(raw) {
		return "", false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	// "(-5)" and "(5)" are both -5
	raw = strings.TrimPrefix(raw, "+")
	if neg {
		raw = "-" + strings.TrimPrefix(raw, "-")
	}
	return raw, true
}

// ParseNumber parses a numeric cell using CleanNumber's rules.
func ParseNumber(s string) (float64, bool) {
	clean, ok := CleanNumber(s)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
