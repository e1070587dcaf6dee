package report

import (
	"strings"
	"time"
)

// Accepted input layouts, tried in order. The canonical output is US slash
// format; inputs that already parse keep their time component when present.
var dateLayouts = []struct {
	layout  string
	hasTime bool
	hasSecs bool
}{
	{"2006-01-02T15:04:05", true, true},
	{"2006-01-02 15:04:05", true, true},
	{"2006-01-02T15:04", true, false},
	{"2006-01-02 15:04", true, false},
	{"2006-01-02", false, false},
	{"01/02/2006 15:04:05", true, true},
	{"01/02/2006 15:04", true, false},
	{"01/02/2006", false, false},
	{"01/02/06", false, false},
}

// CanonicalDate normalizes a permissively formatted date string to
// MM/DD/YYYY, preserving a time component as HH:MM or HH:MM:SS when the
// input carried one. Malformed input is returned verbatim; date handling is
// never fatal.
func CanonicalDate(s string) string {
	in := strings.TrimSpace(s)
	if in == "" {
		return s
	}
	for _, dl := range dateLayouts {
		// Guard the 2- vs 4-digit year layouts so "1/2/06" never parses
		// as year 6 against the 4-digit form.
		if strings.Contains(dl.layout, "/") && twoDigitYear(in) != strings.Contains(dl.layout, "/06") {
			continue
		}
		t, err := time.Parse(dl.layout, in)
		if err != nil {
			continue
		}
		switch {
		case dl.hasSecs:
			return t.Format("01/02/2006 15:04:05")
		case dl.hasTime:
			return t.Format("01/02/2006 15:04")
		default:
			return t.Format("01/02/2006")
		}
	}
	return s
}

// twoDigitYear reports whether a slash date carries a 2-digit year.
func twoDigitYear(s string) bool {
	datePart := s
	if i := strings.IndexByte(datePart, ' '); i >= 0 {
		datePart = datePart[:i]
	}
	parts := strings.Split(datePart, "/")
	return len(parts) == 3 && len(parts[2]) <= 2
}

// SplitDateComponents breaks a canonical or raw slash date into its month,
// day and year parts. A value that does not contain exactly three components
// returns ok=false; callers abort the fan-out silently and leave the target
// fields blank.
func SplitDateComponents(s string) (month, day, year string, ok bool) {
	// Drop any time component before splitting.
	datePart := strings.TrimSpace(s)
	if i := strings.IndexByte(datePart, ' '); i >= 0 {
		datePart = datePart[:i]
	}
	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return "", "", "", false
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], true
}

// ExpandDateGroups fans one date value out into the month/day/year
// sub-fields of each group prefix. All nine targets (three groups of three)
// fill atomically: a malformed date yields an empty map.
func ExpandDateGroups(value string, groups []string) map[string]string {
	month, day, year, ok := SplitDateComponents(CanonicalDate(value))
	if !ok {
		return nil
	}
	out := make(map[string]string, len(groups)*3)
	for _, g := range groups {
		out[g+"Month"] = month
		out[g+"Day"] = day
		out[g+"Year"] = year
	}
	return out
}
