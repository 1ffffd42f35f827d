package booking

import (
	"sort"
	"time"

	"roomdisplay/internal/graphtime"
	applog "roomdisplay/internal/log"
)

// candidate is an appointment whose timestamps survived normalization,
// converted into the display location.
type candidate struct {
	appt  Appointment
	start graphtime.Instant
	end   graphtime.Instant
}

// Select reduces a list of appointments to the single booking to display
// for now's local calendar day: the in-progress appointment if one exists,
// otherwise the earliest one that has not started yet. It returns false
// when nothing qualifies (room available).
//
// Records with missing or unparseable timestamps are skipped, never fatal.
// Records dated outside now's local day are rejected even when the upstream
// query was supposed to pre-filter them; the fallback fetch path returns
// the full list and server-side filtering is not trusted either way.
func Select(records []Appointment, now time.Time, loc *time.Location) (Display, bool) {
	if loc == nil {
		loc = time.Local
	}
	nowLocal := now.In(loc)
	nowInst := graphtime.Instant{Time: nowLocal, Zoned: true}

	candidates := make([]candidate, 0, len(records))
	for _, rec := range records {
		startRaw := rec.StartDateTime.DateTime
		endRaw := rec.EndDateTime.DateTime
		if startRaw == "" || endRaw == "" {
			applog.Debug("booking skipped, missing timestamp", "title", rec.Title())
			continue
		}

		start, err := graphtime.Parse(startRaw)
		if err != nil {
			applog.Warn("booking skipped, bad start time", "raw", startRaw, "title", rec.Title())
			continue
		}
		end, err := graphtime.Parse(endRaw)
		if err != nil {
			applog.Warn("booking skipped, bad end time", "raw", endRaw, "title", rec.Title())
			continue
		}

		startLocal := start.In(loc)
		endLocal := end.In(loc)

		if !sameLocalDate(startLocal.Time, nowLocal) {
			applog.Debug("booking skipped, outside today", "title", rec.Title(),
				"start", startLocal.Time.Format(time.RFC3339))
			continue
		}

		candidates = append(candidates, candidate{appt: rec, start: startLocal, end: endLocal})
	}

	// The API is asked to order by start time but that is not guaranteed to
	// survive the fallback path.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].start.Time.Before(candidates[j].start.Time)
	})

	for _, c := range candidates {
		if graphtime.Compare(nowInst, c.start, graphtime.OpLess) {
			// Not started yet; earliest such wins.
			return newDisplay(c.appt, c.start.Time, c.end.Time, false), true
		}
		if graphtime.Compare(c.start, nowInst, graphtime.OpLessOrEqual) &&
			graphtime.Compare(nowInst, c.end, graphtime.OpLessOrEqual) {
			// In progress right now.
			return newDisplay(c.appt, c.start.Time, c.end.Time, true), true
		}
	}

	return Display{}, false
}

func sameLocalDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
