package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GraphConfig holds the Microsoft Graph application credentials and the
// Bookings business whose calendar this display shows.
type GraphConfig struct {
	// ClientID / ClientSecret / TenantID identify the Azure AD application
	// used for client-credential token acquisition.
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	TenantID     string `yaml:"tenant_id" json:"tenant_id"`

	// BookingBusinessID is the Bookings business (one per room), e.g.
	// "UpperConferenceRoom@example.onmicrosoft.com".
	BookingBusinessID string `yaml:"booking_business_id" json:"booking_business_id"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the display endpoints.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the display page and API.
	Listen string `yaml:"listen" json:"listen"`

	// RoomName is the heading shown on the display page.
	RoomName string `yaml:"room_name" json:"room_name"`

	// Timezone is the IANA timezone used as the display zone. Empty means
	// the process-local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshSeconds is the fixed delay between background refresh cycles.
	RefreshSeconds int `yaml:"refresh_seconds" json:"refresh_seconds"`

	// Graph holds remote API credentials.
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// InfoSiteURL is an optional external info page linked from the display
	// (the /info-site redirect).
	InfoSiteURL string `yaml:"info_site_url" json:"info_site_url"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "0.0.0.0:5000",
		RoomName:       "Conference Room",
		Timezone:       "",
		RefreshSeconds: 300,
		Graph:          GraphConfig{},
		InfoSiteURL:    "",
		BasicAuth:      nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "0.0.0.0:5000"
	}
	if c.RoomName == "" {
		c.RoomName = "Conference Room"
	}
	if c.RefreshSeconds <= 0 {
		c.RefreshSeconds = 300
	}
}

// ApplyEnv overlays credential values from the environment. Environment
// variables win over file values so secrets can stay out of the YAML file.
//
// Recognized variables: CLIENT_ID, CLIENT_SECRET, TENANT_ID,
// BOOKING_BUSINESS_ID.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CLIENT_ID"); v != "" {
		c.Graph.ClientID = v
	}
	if v := os.Getenv("CLIENT_SECRET"); v != "" {
		c.Graph.ClientSecret = v
	}
	if v := os.Getenv("TENANT_ID"); v != "" {
		c.Graph.TenantID = v
	}
	if v := os.Getenv("BOOKING_BUSINESS_ID"); v != "" {
		c.Graph.BookingBusinessID = v
	}
}

// Location resolves the configured display timezone. Empty or invalid
// values fall back to the process-local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// HasCredentials reports whether the Graph credential fields are all set.
func (c *Config) HasCredentials() bool {
	g := c.Graph
	return g.ClientID != "" && g.ClientSecret != "" && g.TenantID != "" && g.BookingBusinessID != ""
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overlays are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create a default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic (temp file + rename in the same directory) and the
// final file ends up with 0600 permissions since it may carry secrets.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".roomdisplay-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
