package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// parseNumeric parses locale-formatted numbers such as "4,5", "1.234,5" and
// "1,234.5". dec forces the decimal separator; 0 auto-detects per value.
func parseNumeric(s string, dec rune) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	var thou rune
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// groupedCount matches integers written with thousands separators, e.g.
// "1,234", "12.500" or "1 000 000".
var groupedCount = regexp.MustCompile(`^\d{1,3}([,. ]\d{3})+$`)

// parseCount parses an integer count such as like_count. Unless dec forces a
// decimal separator, digit groups of three after a single separator kind are
// thousands, not a fraction. Fractions are truncated.
func parseCount(s string, dec rune) (int, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if dec == 0 && groupedCount.MatchString(raw) {
		seps := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return -1
			}
			return r
		}, raw)
		if strings.Count(seps, seps[:1]) == len(seps) {
			n, err := strconv.Atoi(strings.ReplaceAll(raw, seps[:1], ""))
			return n, err == nil
		}
	}
	f, ok := parseNumeric(raw, dec)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// isNumeric reports whether a header-candidate cell is a number rather than text.
func isNumeric(s string) bool {
	_, ok := parseNumeric(s, 0)
	return ok
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"01-02-2006",
	"01-02-06",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseTimeMaybe parses common timestamp formats and spreadsheet serial
// dates (1954 to 2118). Zoned values are converted to UTC.
func parseTimeMaybe(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 20000 && f < 80000 {
		d := time.Duration(math.Round(f * 24 * float64(time.Hour/time.Second)))
		return excelEpoch.Add(d * time.Second), true
	}
	return time.Time{}, false
}
