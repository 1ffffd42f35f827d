// Package graphtime reconciles the timestamp formats returned by the
// Microsoft Graph Bookings API. Graph mixes offset-aware strings
// ("2025-08-25T14:00:00.1234567Z", "...+02:00") with offset-naive ones
// ("2025-08-25T14:00:00.0000000") and uses a 7-digit fractional second
// that the stock RFC 3339 layouts will not take as-is.
package graphtime

import (
	"fmt"
	"strings"
	"time"
)

// Instant is a parsed point in time. Zoned records whether the source
// string carried any UTC offset information; the wall-clock fields of an
// unzoned Instant are stored against UTC as a placeholder and must not be
// treated as an absolute time until In is applied.
type Instant struct {
	Time  time.Time
	Zoned bool
}

// In converts the instant into loc. A zoned instant is converted properly;
// an unzoned instant has its wall-clock fields reinterpreted in loc, which
// mirrors how the Bookings API's naive timestamps are meant to be read.
func (i Instant) In(loc *time.Location) Instant {
	if loc == nil {
		loc = time.Local
	}
	if i.Zoned {
		return Instant{Time: i.Time.In(loc), Zoned: true}
	}
	return Instant{Time: rezone(i.Time, loc), Zoned: true}
}

// ParseError reports a timestamp string that could not be normalized.
type ParseError struct {
	Raw string
	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("graphtime: cannot parse %q: %v", e.Raw, e.err)
}

func (e *ParseError) Unwrap() error { return e.err }

const (
	layoutOffset     = "2006-01-02T15:04:05-07:00"
	layoutOffsetFrac = "2006-01-02T15:04:05.000000-07:00"
	layoutNaive      = "2006-01-02T15:04:05"
	layoutNaiveFrac  = "2006-01-02T15:04:05.000000"
)

// Parse normalizes a Graph timestamp string into an Instant.
//
// The fractional-seconds component is truncated to six digits (right-padded
// with zeros when shorter) before the primary parse. If the primary parse
// fails, a recovery pass strips the fraction entirely and forces a UTC
// offset onto the tail. Malformed input yields a *ParseError; Parse never
// panics.
func Parse(raw string) (Instant, error) {
	if raw == "" {
		return Instant{}, &ParseError{Raw: raw, err: fmt.Errorf("empty string")}
	}

	inst, err := parsePrimary(raw)
	if err == nil {
		return inst, nil
	}

	inst, rerr := parseRecovery(raw)
	if rerr != nil {
		return Instant{}, &ParseError{Raw: raw, err: err}
	}
	return inst, nil
}

func parsePrimary(raw string) (Instant, error) {
	// A trailing 'Z' becomes an explicit zero offset.
	clean := strings.ReplaceAll(raw, "Z", "+00:00")

	head, frac, tail := splitFraction(clean)
	if frac != "" {
		if len(frac) > 6 {
			frac = frac[:6]
		} else {
			frac += strings.Repeat("0", 6-len(frac))
		}
		clean = head + "." + frac + tail
	}

	if hasUTCOffset(clean) {
		layout := layoutOffset
		if frac != "" {
			layout = layoutOffsetFrac
		}
		t, err := time.Parse(layout, clean)
		if err != nil {
			return Instant{}, err
		}
		return Instant{Time: t, Zoned: true}, nil
	}

	layout := layoutNaive
	if frac != "" {
		layout = layoutNaiveFrac
	}
	t, err := time.Parse(layout, clean)
	if err != nil {
		return Instant{}, err
	}
	return Instant{Time: t, Zoned: false}, nil
}

// parseRecovery drops the fractional-seconds component and retries with a
// forced UTC offset. Unlike the primary path, a naive tail is taken as UTC
// here; by the time we reach recovery the string has already failed the
// lenient parse and guessing UTC beats dropping the record.
func parseRecovery(raw string) (Instant, error) {
	base := raw
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}

	switch {
	case strings.HasSuffix(base, "Z"):
		base = base[:len(base)-1] + "+00:00"
	case !hasUTCOffset(base):
		base += "+00:00"
	}

	t, err := time.Parse(layoutOffset, base)
	if err != nil {
		return Instant{}, err
	}
	return Instant{Time: t, Zoned: true}, nil
}

// splitFraction separates s into the part before the fractional seconds,
// the fraction digits, and the remaining tail (offset or empty). If s has
// no fraction, frac is empty and head==s.
func splitFraction(s string) (head, frac, tail string) {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return s, "", ""
	}
	head = s[:i]
	j := i + 1
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	return head, s[i+1 : j], s[j:]
}

// hasUTCOffset reports whether s ends in a numeric UTC offset of the form
// ±HH:MM.
func hasUTCOffset(s string) bool {
	if len(s) < 6 {
		return false
	}
	tail := s[len(s)-6:]
	if tail[0] != '+' && tail[0] != '-' {
		return false
	}
	if tail[3] != ':' {
		return false
	}
	for _, i := range []int{1, 2, 4, 5} {
		if tail[i] < '0' || tail[i] > '9' {
			return false
		}
	}
	return true
}

// rezone rebuilds t's wall-clock fields in loc without converting.
func rezone(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
