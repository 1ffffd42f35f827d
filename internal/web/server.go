// Package web serves the room display page and its small API surface.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"

	"roomdisplay/internal/booking"
	"roomdisplay/internal/capture"
	"roomdisplay/internal/config"
	applog "roomdisplay/internal/log"
)

// Source exposes the current booking snapshot for read-only display.
type Source interface {
	Current() (booking.Display, bool)
	LastUpdated() (time.Time, bool)
}

// Trigger runs one on-demand refresh cycle synchronously.
type Trigger interface {
	Refresh(ctx context.Context) error
}

//go:embed templates
var embeddedTemplates embed.FS

// Server wires the display endpoints:
//
//	/                 display page
//	/refresh          on-demand refresh, then back to /
//	/api/booking      JSON snapshot
//	/api/booking.ics  current booking as an iCalendar event
//	/info-site        redirect to the configured external info page
//	/preview.png      headless-Chromium snapshot of the display page
//	/health           liveness, always unauthenticated
type Server struct {
	cfg     *config.Config
	source  Source
	trigger Trigger
	mux     *http.ServeMux
	tmpl    *template.Template

	// previewMu serializes Chromium captures; previewAt is the time of the
	// last successful one.
	previewMu   sync.Mutex
	previewAt   time.Time
	previewPath string
}

// NewServer constructs a Server around the given state source and refresh
// trigger.
func NewServer(cfg *config.Config, source Source, trigger Trigger) *Server {
	s := &Server{
		cfg:         cfg,
		source:      source,
		trigger:     trigger,
		mux:         http.NewServeMux(),
		tmpl:        template.Must(template.ParseFS(embeddedTemplates, "templates/display.html")),
		previewPath: filepath.Join(os.TempDir(), "roomdisplay-preview.png"),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, with basic auth applied
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/{$}", s.handleIndex)
	s.mux.HandleFunc("/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/booking", s.handleAPIBooking)
	s.mux.HandleFunc("/api/booking.ics", s.handleBookingICS)
	s.mux.HandleFunc("/info-site", s.handleInfoSite)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="RoomDisplay", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// pageData feeds the display template.
type pageData struct {
	RoomName      string
	Booking       *booking.Display
	LastUpdated   string
	RefreshMillis int
	InfoSiteURL   string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		RoomName:      s.cfg.RoomName,
		RefreshMillis: s.cfg.RefreshSeconds * 1000,
		InfoSiteURL:   s.cfg.InfoSiteURL,
	}
	if b, ok := s.source.Current(); ok {
		data.Booking = &b
	}
	if at, ok := s.source.LastUpdated(); ok {
		data.LastUpdated = at.Format("3:04 PM")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		applog.Error("display template render failed", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.trigger.Refresh(r.Context()); err != nil {
		// The page keeps showing the previous snapshot; nothing actionable
		// for the visitor beyond the log line.
		applog.Error("on-demand refresh failed", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAPIBooking(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Booking     *booking.Display `json:"booking"`
		LastUpdated *string          `json:"last_updated"`
	}

	var resp response
	if b, ok := s.source.Current(); ok {
		resp.Booking = &b
	}
	if at, ok := s.source.LastUpdated(); ok {
		stamp := at.Format(time.RFC3339)
		resp.LastUpdated = &stamp
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBookingICS serializes the displayed booking as a single-event
// iCalendar feed so kiosk clients can subscribe to the room.
func (s *Server) handleBookingICS(w http.ResponseWriter, _ *http.Request) {
	b, ok := s.source.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no booking to export")
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//roomdisplay//EN")

	ev := cal.AddEvent("current-booking@roomdisplay")
	ev.SetDtStampTime(time.Now().UTC())
	ev.SetStartAt(b.StartsAt)
	ev.SetEndAt(b.EndsAt)
	ev.SetSummary(b.Title)
	ev.SetLocation(s.cfg.RoomName)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="booking.ics"`)
	_, _ = w.Write([]byte(cal.Serialize()))
}

func (s *Server) handleInfoSite(w http.ResponseWriter, r *http.Request) {
	if s.cfg.InfoSiteURL == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<h1>Info site not configured</h1><a href="/">Back to display</a>`))
		return
	}
	http.Redirect(w, r, s.cfg.InfoSiteURL, http.StatusFound)
}

// handlePreview serves a PNG snapshot of the display page, re-captured at
// most every previewTTL. Signage panels that cannot run a browser poll this
// endpoint instead.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	const previewTTL = 30 * time.Second

	s.previewMu.Lock()
	stale := time.Since(s.previewAt) >= previewTTL
	if stale {
		opts := capture.Options{
			URL:        s.selfURL(),
			OutputPath: s.previewPath,
		}
		if err := capture.PagePNG(r.Context(), opts); err != nil {
			s.previewMu.Unlock()
			applog.Error("preview capture failed", err)
			writeError(w, http.StatusInternalServerError, "preview capture failed")
			return
		}
		s.previewAt = time.Now()
	}
	s.previewMu.Unlock()

	http.ServeFile(w, r, s.previewPath)
}

// selfURL builds a loopback URL for the display page; wildcard listen
// addresses are not navigable from Chromium.
func (s *Server) selfURL() string {
	host, port, err := net.SplitHostPort(s.cfg.Listen)
	if err != nil {
		return "http://" + s.cfg.Listen + "/"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
