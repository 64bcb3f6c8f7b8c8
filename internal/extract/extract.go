package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// linePattern matches one pet observation line:
//
//	**<pet name>** x<count> ($<rate>/s <optional emoji>)
//
// Matching is strictly line-local; headers, blank lines, and other
// non-matching lines are expected and skipped by callers.
var linePattern = regexp.MustCompile(`\*\*(.+?)\*\* x(\d+) \(\$(.+?)/s(.*)\)`)

// Observation is one parsed line before rate normalization.
type Observation struct {
	// PetName is the observed pet kind.
	PetName string
	// Count is the occurrence count for this observation.
	Count int
	// RateToken is the raw rate text, shorthand suffix included.
	RateToken string
	// Emoji is the trailing iconographic tag, trimmed; may be empty.
	Emoji string
}

// Line attempts to parse one line of feed text. A non-matching line is not
// an error condition: matched is false and the line should be skipped.
func Line(line string) (observation Observation, matched bool) {
	groups := linePattern.FindStringSubmatch(line)
	if groups == nil {
		return Observation{}, false
	}

	count, err := strconv.Atoi(groups[2])
	if err != nil {
		return Observation{}, false
	}

	return Observation{
		PetName:   groups[1],
		Count:     count,
		RateToken: groups[3],
		Emoji:     strings.TrimSpace(groups[4]),
	}, true
}

// rateMultipliers maps the case-sensitive shorthand suffixes to their
// decimal multipliers.
var rateMultipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// Rate normalizes a shorthand rate token into a numeric value: a decimal
// number optionally followed by K, M, or B directly adjacent to the digits.
// An unparsable numeric portion normalizes to zero; malformed upstream data
// is tolerated rather than surfaced mid-stream.
func Rate(token string) float64 {
	if token == "" {
		return 0
	}

	multiplier := 1.0
	digits := token
	if factor, ok := rateMultipliers[token[len(token)-1]]; ok {
		multiplier = factor
		digits = token[:len(token)-1]
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil || value < 0 {
		return 0
	}

	return value * multiplier
}
