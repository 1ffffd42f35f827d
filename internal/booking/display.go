package booking

import (
	"fmt"
	"time"
)

// Display is the immutable snapshot of the one booking relevant right now,
// formatted for the display page. Field names in JSON match the display
// API contract.
type Display struct {
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Date      string `json:"date"`
	Duration  string `json:"duration"`
	IsCurrent bool   `json:"is_current"`

	// StartsAt / EndsAt carry the underlying local instants for consumers
	// that need real times (e.g. the ICS export), not the formatted strings.
	StartsAt time.Time `json:"-"`
	EndsAt   time.Time `json:"-"`
}

const (
	clockLayout = "3:04 PM"
	dateLayout  = "January 2, 2006"
)

func newDisplay(a Appointment, start, end time.Time, isCurrent bool) Display {
	return Display{
		Title:     a.Title(),
		Start:     start.Format(clockLayout),
		End:       end.Format(clockLayout),
		Date:      start.Format(dateLayout),
		Duration:  formatDuration(end.Sub(start)),
		IsCurrent: isCurrent,
		StartsAt:  start,
		EndsAt:    end,
	}
}

// formatDuration renders an elapsed span as "45m", "1h" or "1h 30m",
// rounded to the minute.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
