// Package refresh owns the shared booking state and drives the periodic
// and on-demand refresh cycles against the Bookings API.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomdisplay/internal/booking"
	"roomdisplay/internal/graph"
	"roomdisplay/internal/graphtime"
	applog "roomdisplay/internal/log"
)

// Fetcher is the slice of the Graph client the refresher needs.
type Fetcher interface {
	AcquireToken(ctx context.Context) (graph.Token, error)
	CalendarView(ctx context.Context, tok graph.Token, startUTC, endUTC string) ([]booking.Appointment, error)
	Appointments(ctx context.Context, tok graph.Token) ([]booking.Appointment, error)
}

// Refresher runs refresh cycles: acquire a token when needed, fetch today's
// appointments (windowed query first, full list as fallback), select the
// one relevant booking and publish it. Every failure aborts the cycle and
// leaves the previously published state in place.
type Refresher struct {
	fetcher  Fetcher
	state    *State
	loc      *time.Location
	interval time.Duration

	tokenMu sync.Mutex
	token   graph.Token

	// now is swappable for tests.
	now func() time.Time
}

// New builds a Refresher publishing into state. loc is the display
// timezone; interval is the fixed delay between background cycles.
func New(f Fetcher, state *State, loc *time.Location, interval time.Duration) *Refresher {
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{
		fetcher:  f,
		state:    state,
		loc:      loc,
		interval: interval,
		now:      time.Now,
	}
}

// Refresh runs a single refresh cycle. Safe for concurrent use; the display
// handlers call it synchronously for on-demand refresh while the background
// loop runs on its own schedule.
func (r *Refresher) Refresh(ctx context.Context) error {
	cycle := uuid.NewString()[:8]

	tok, err := r.ensureToken(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", cycle, err)
	}

	now := r.now().In(r.loc)
	win := graphtime.DayWindow(now)
	startUTC, endUTC := win.UTCBounds()

	applog.Info("refresh cycle start", "cycle", cycle, "window_start", startUTC, "window_end", endUTC)

	records, err := r.fetcher.CalendarView(ctx, tok, startUTC, endUTC)
	if errors.Is(err, graph.ErrUnsupported) {
		applog.Warn("calendar view unsupported; falling back to full appointment list", "cycle", cycle)
		records, err = r.fetchFallback(ctx, tok, win)
	}
	if err != nil {
		if errors.Is(err, graph.ErrUnauthorized) {
			// Token went stale server-side; drop it so the next cycle
			// re-acquires.
			r.dropToken()
		}
		return fmt.Errorf("refresh %s: %w", cycle, err)
	}

	display, ok := booking.Select(records, r.now(), r.loc)
	if ok {
		r.state.publish(&display, r.now())
		kind := "next"
		if display.IsCurrent {
			kind = "current"
		}
		applog.Info("refresh cycle done", "cycle", cycle, "records", len(records),
			"booking", display.Title, "kind", kind, "start", display.Start)
	} else {
		r.state.publish(nil, r.now())
		applog.Info("refresh cycle done, room available", "cycle", cycle, "records", len(records))
	}

	return nil
}

// fetchFallback pulls the complete appointment list and filters it down to
// the local day window on the client side.
func (r *Refresher) fetchFallback(ctx context.Context, tok graph.Token, win graphtime.Window) ([]booking.Appointment, error) {
	all, err := r.fetcher.Appointments(ctx, tok)
	if err != nil {
		return nil, err
	}

	todays := make([]booking.Appointment, 0, len(all))
	for _, rec := range all {
		raw := rec.StartDateTime.DateTime
		if raw == "" {
			continue
		}
		start, perr := graphtime.Parse(raw)
		if perr != nil {
			applog.Warn("fallback filter skipped record", "raw", raw)
			continue
		}
		if win.Contains(start.In(r.loc)) {
			todays = append(todays, rec)
		}
	}

	applog.Info("fallback filter applied", "fetched", len(all), "today", len(todays))
	return todays, nil
}

// ensureToken returns a valid bearer token, acquiring a new one when the
// cached token is absent or near expiry.
func (r *Refresher) ensureToken(ctx context.Context) (graph.Token, error) {
	r.tokenMu.Lock()
	defer r.tokenMu.Unlock()

	if r.token.Valid(r.now()) {
		return r.token, nil
	}

	tok, err := r.fetcher.AcquireToken(ctx)
	if err != nil {
		return graph.Token{}, err
	}
	r.token = tok
	return tok, nil
}

func (r *Refresher) dropToken() {
	r.tokenMu.Lock()
	r.token = graph.Token{}
	r.tokenMu.Unlock()
}

// Run drives the recurring refresh with fixed-delay semantics: a full
// interval elapses after each attempt finishes, successful or not, before
// the next one starts. The caller typically performs one synchronous
// Refresh before starting Run so the display has data immediately. Run
// returns when ctx is cancelled; cycle errors are logged, never fatal.
func (r *Refresher) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := r.Refresh(ctx); err != nil {
			applog.Error("refresh cycle failed", err)
		}
	}
}
