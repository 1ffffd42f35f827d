package graphtime

import "time"

// graphStampLayout is the UTC timestamp format the Bookings query
// parameters expect. The trailing Z is a literal.
const graphStampLayout = "2006-01-02T15:04:05.000000Z"

// Window is an end-exclusive local time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow returns the local calendar-day window containing ref:
// [local midnight, local midnight + 24h). The window is anchored in ref's
// location.
func DayWindow(ref time.Time) Window {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

// Contains reports whether i falls inside the window (start inclusive, end
// exclusive), using the mixed-awareness comparison rules of Compare.
func (w Window) Contains(i Instant) bool {
	start := Instant{Time: w.Start, Zoned: true}
	end := Instant{Time: w.End, Zoned: true}
	return Compare(start, i, OpLessOrEqual) && Compare(i, end, OpLess)
}

// UTCBounds returns both window edges converted to UTC and formatted for
// outbound Graph query parameters.
func (w Window) UTCBounds() (startUTC, endUTC string) {
	return w.Start.UTC().Format(graphStampLayout), w.End.UTC().Format(graphStampLayout)
}
