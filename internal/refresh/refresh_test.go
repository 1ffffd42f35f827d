package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomdisplay/internal/booking"
	"roomdisplay/internal/graph"
)

var testLoc = time.FixedZone("UTC-6", -6*3600)

// fixedNow is 10:00 local on 2025-08-25.
var fixedNow = time.Date(2025, 8, 25, 10, 0, 0, 0, testLoc)

type fakeFetcher struct {
	tokenErr   error
	tokenCalls int

	calRecords []booking.Appointment
	calErr     error
	calCalls   int

	apptRecords []booking.Appointment
	apptErr     error
	apptCalls   int
}

func (f *fakeFetcher) AcquireToken(context.Context) (graph.Token, error) {
	f.tokenCalls++
	if f.tokenErr != nil {
		return graph.Token{}, f.tokenErr
	}
	return graph.Token{Value: "tok", ExpiresAt: fixedNow.Add(time.Hour)}, nil
}

func (f *fakeFetcher) CalendarView(context.Context, graph.Token, string, string) ([]booking.Appointment, error) {
	f.calCalls++
	return f.calRecords, f.calErr
}

func (f *fakeFetcher) Appointments(context.Context, graph.Token) ([]booking.Appointment, error) {
	f.apptCalls++
	return f.apptRecords, f.apptErr
}

func appt(name, start, end string) booking.Appointment {
	return booking.Appointment{
		CustomerName:  name,
		ServiceName:   "Meeting",
		StartDateTime: booking.DateTimeField{DateTime: start},
		EndDateTime:   booking.DateTimeField{DateTime: end},
	}
}

func newTestRefresher(f Fetcher) (*Refresher, *State) {
	state := NewState()
	r := New(f, state, testLoc, time.Minute)
	r.now = func() time.Time { return fixedNow }
	return r, state
}

func TestRefreshPrimaryPublishes(t *testing.T) {
	f := &fakeFetcher{
		calRecords: []booking.Appointment{
			appt("A", "2025-08-25T09:30:00", "2025-08-25T10:30:00"),
		},
	}
	r, state := newTestRefresher(f)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	got, ok := state.Current()
	if !ok {
		t.Fatal("expected a published booking")
	}
	if got.Title != "A - Meeting" || !got.IsCurrent {
		t.Errorf("published %q current=%v", got.Title, got.IsCurrent)
	}
	if at, ok := state.LastUpdated(); !ok || !at.Equal(fixedNow) {
		t.Errorf("LastUpdated = %v ok=%v", at, ok)
	}
	if f.apptCalls != 0 {
		t.Error("fallback must not run when the primary succeeds")
	}
}

func TestRefreshPublishesAbsentBooking(t *testing.T) {
	f := &fakeFetcher{}
	r, state := newTestRefresher(f)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, ok := state.Current(); ok {
		t.Error("no records means room available")
	}
	if _, ok := state.LastUpdated(); !ok {
		t.Error("a successful empty refresh still stamps LastUpdated")
	}
}

func TestRefreshFallbackFiltersCrossDay(t *testing.T) {
	f := &fakeFetcher{
		calErr: graph.ErrUnsupported,
		apptRecords: []booking.Appointment{
			appt("Yesterday", "2025-08-24T09:30:00", "2025-08-24T10:30:00"),
			appt("Today", "2025-08-25T11:00:00", "2025-08-25T12:00:00"),
			appt("Tomorrow", "2025-08-26T09:30:00", "2025-08-26T10:30:00"),
		},
	}
	r, state := newTestRefresher(f)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if f.apptCalls != 1 {
		t.Fatalf("fallback calls = %d, want 1", f.apptCalls)
	}

	got, ok := state.Current()
	if !ok {
		t.Fatal("expected a booking from the fallback path")
	}
	if got.Title != "Today - Meeting" || got.IsCurrent {
		t.Errorf("published %q current=%v, want upcoming Today", got.Title, got.IsCurrent)
	}
}

func TestRefreshCredentialFailureKeepsState(t *testing.T) {
	f := &fakeFetcher{tokenErr: &graph.CredentialError{Description: "denied"}}
	r, state := newTestRefresher(f)

	prior := booking.Display{Title: "Prior - Meeting"}
	state.publish(&prior, fixedNow.Add(-time.Hour))

	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected credential failure")
	}

	got, ok := state.Current()
	if !ok || got.Title != "Prior - Meeting" {
		t.Error("prior state must survive a failed cycle")
	}
	if at, _ := state.LastUpdated(); !at.Equal(fixedNow.Add(-time.Hour)) {
		t.Error("LastUpdated must not advance on failure")
	}
}

func TestRefreshTransportFailureKeepsState(t *testing.T) {
	f := &fakeFetcher{calErr: &graph.StatusError{Status: 500}}
	r, state := newTestRefresher(f)

	prior := booking.Display{Title: "Prior - Meeting"}
	state.publish(&prior, fixedNow.Add(-time.Hour))

	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected transport failure")
	}
	if f.apptCalls != 0 {
		t.Error("non-404 errors must not trigger the fallback")
	}
	if got, ok := state.Current(); !ok || got.Title != "Prior - Meeting" {
		t.Error("prior state must survive a failed cycle")
	}
}

func TestRefreshTokenReuseAndDrop(t *testing.T) {
	f := &fakeFetcher{}
	r, _ := newTestRefresher(f)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.tokenCalls != 1 {
		t.Fatalf("tokenCalls = %d, want cached token reuse", f.tokenCalls)
	}

	// A 401 drops the cached token so the next cycle re-acquires.
	f.calErr = graph.ErrUnauthorized
	if err := r.Refresh(context.Background()); !errors.Is(err, graph.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	f.calErr = nil
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.tokenCalls != 2 {
		t.Fatalf("tokenCalls = %d, want re-acquisition after 401", f.tokenCalls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakeFetcher{}
	state := NewState()
	r := New(f, state, testLoc, 10*time.Millisecond)
	r.now = func() time.Time { return fixedNow }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// Let at least one delayed cycle happen, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if f.calCalls == 0 {
		t.Error("Run should have performed at least one cycle")
	}
}
