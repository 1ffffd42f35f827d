// Package graph is a minimal Microsoft Graph Bookings client covering the
// read paths this display needs: client-credential token acquisition, the
// windowed calendarView query, the unwindowed appointment list, and the
// booking-business listing used by the connectivity check.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roomdisplay/internal/booking"
	applog "roomdisplay/internal/log"
)

const (
	defaultBaseURL  = "https://graph.microsoft.com/v1.0"
	defaultLoginURL = "https://login.microsoftonline.com"
	defaultTimeout  = 15 * time.Second

	// tokenSkew acquires a fresh token a little before the old one expires.
	tokenSkew = 2 * time.Minute

	orderByStart = "startDateTime/dateTime"
)

// ErrUnsupported marks a 404 from the remote API: the endpoint or business
// does not support the requested query. Not a true failure; callers switch
// to the fallback fetch path.
var ErrUnsupported = errors.New("graph: endpoint not found or unsupported")

// ErrUnauthorized marks a 401: the bearer token is missing, expired or
// revoked.
var ErrUnauthorized = errors.New("graph: unauthorized")

// StatusError reports any other non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph: unexpected status %d: %s", e.Status, e.Body)
}

// CredentialError reports a failed token acquisition.
type CredentialError struct {
	Status      int
	Description string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("graph: token acquisition failed (status %d): %s", e.Status, e.Description)
}

// Credentials identifies the Azure AD application and the Bookings business.
type Credentials struct {
	ClientID          string
	ClientSecret      string
	TenantID          string
	BookingBusinessID string
}

// Token is an opaque bearer credential with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token exists and has not reached its expiry
// skew window.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-tokenSkew))
}

// Client talks to the Graph Bookings API.
type Client struct {
	http     *http.Client
	baseURL  string
	loginURL string
	creds    Credentials
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the Graph API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLoginURL overrides the token endpoint base URL. Used by tests.
func WithLoginURL(u string) Option {
	return func(c *Client) { c.loginURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Bookings client. Outbound calls carry a bounded
// timeout so a stalled remote cannot hang a refresh cycle.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		baseURL:  defaultBaseURL,
		loginURL: defaultLoginURL,
		creds:    creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AcquireToken performs the OAuth client-credentials exchange and returns
// a bearer token for the Graph default scope.
func (c *Client) AcquireToken(ctx context.Context) (Token, error) {
	form := url.Values{
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
		"grant_type":    {"client_credentials"},
	}

	endpoint := c.loginURL + "/" + c.creds.TenantID + "/oauth2/v2.0/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, &CredentialError{Description: err.Error()}
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int    `json:"expires_in"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Token{}, &CredentialError{Status: resp.StatusCode, Description: err.Error()}
	}

	if resp.StatusCode != http.StatusOK || body.AccessToken == "" {
		return Token{}, &CredentialError{Status: resp.StatusCode, Description: body.ErrorDescription}
	}

	expires := time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	applog.Info("access token acquired", "expires_at", expires.Format(time.RFC3339))
	return Token{Value: body.AccessToken, ExpiresAt: expires}, nil
}

// CalendarView fetches the business's appointments inside [startUTC, endUTC)
// using server-side date-range filtering. A 404 maps to ErrUnsupported so
// the caller can fall back to the unwindowed list.
func (c *Client) CalendarView(ctx context.Context, tok Token, startUTC, endUTC string) ([]booking.Appointment, error) {
	q := url.Values{
		"startDateTime": {startUTC},
		"endDateTime":   {endUTC},
		"$orderby":      {orderByStart},
	}
	endpoint := c.businessURL("calendarView") + "?" + q.Encode()

	var out struct {
		Value []booking.Appointment `json:"value"`
	}
	if err := c.getJSON(ctx, tok, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// Appointments fetches the business's complete appointment list, unfiltered.
// This is the fallback path when calendarView is unsupported; the caller is
// responsible for client-side day filtering.
func (c *Client) Appointments(ctx context.Context, tok Token) ([]booking.Appointment, error) {
	q := url.Values{"$orderby": {orderByStart}}
	endpoint := c.businessURL("appointments") + "?" + q.Encode()

	var out struct {
		Value []booking.Appointment `json:"value"`
	}
	if err := c.getJSON(ctx, tok, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// Business describes a Bookings business visible to the application.
type Business struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Businesses lists the booking businesses the credential can see. Used by
// the connectivity check.
func (c *Client) Businesses(ctx context.Context, tok Token) ([]Business, error) {
	endpoint := c.baseURL + "/solutions/bookingBusinesses"

	var out struct {
		Value []Business `json:"value"`
	}
	if err := c.getJSON(ctx, tok, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *Client) businessURL(suffix string) string {
	return c.baseURL + "/solutions/bookingBusinesses/" + url.PathEscape(c.creds.BookingBusinessID) + "/" + suffix
}

func (c *Client) getJSON(ctx context.Context, tok Token, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrUnsupported
	default:
		return &StatusError{Status: resp.StatusCode, Body: readBodyPrefix(resp.Body)}
	}
}

// readBodyPrefix reads a bounded prefix of an error response body for
// diagnostics.
func readBodyPrefix(r io.Reader) string {
	const limit = 512
	b, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
