package telemetry

import (
	"strconv"
	"strings"
)

// Parse splits one raw simulator line into a Snapshot. Tokens are separated
// by "|" and split on the first ":" only, so values may themselves contain
// colons. A value is numeric when, after removing at most one leading "-"
// and at most one ".", only digits remain; everything else is kept as text.
//
// Parsing is best-effort: tokens without a colon or that fail numeric
// conversion are dropped without affecting the rest of the line. Empty input
// or input without any "|" yields an empty snapshot.
func Parse(line string) Snapshot {
	snap := Snapshot{}
	if line == "" || !strings.Contains(line, "|") {
		return snap
	}

	for _, token := range strings.Split(strings.TrimSpace(line), "|") {
		key, val, ok := strings.Cut(token, ":")
		if !ok {
			continue
		}
		if looksNumeric(val) {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				// Classified numeric but unparseable; skip the token.
				continue
			}
			snap[key] = Number(f)
		} else {
			snap[key] = Text(val)
		}
	}
	return snap
}

// looksNumeric reports whether s is a plain decimal number: an optional
// leading minus, digits, and at most one decimal point.
func looksNumeric(s string) bool {
	rest := strings.TrimPrefix(s, "-")
	rest = strings.Replace(rest, ".", "", 1)
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
