package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Location modes
const (
	LocationAuto   = "auto"   // geo-IP lookup
	LocationStatic = "static" // fixed latitude/longitude
	LocationNone   = "none"   // never send a location
)

// Duration is a time.Duration that reads from TOML strings like "10s"
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration back as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration
type Config struct {
	// Backend settings
	BackendURL     string   `toml:"backend_url"`
	ChatPath       string   `toml:"chat_path"`
	RequestTimeout Duration `toml:"request_timeout"`

	// Location settings
	Location        string   `toml:"location"`
	Latitude        float64  `toml:"latitude"`
	Longitude       float64  `toml:"longitude"`
	GeoIPURL        string   `toml:"geoip_url"`
	LocationTimeout Duration `toml:"location_timeout"`

	// Rendering
	MarkdownStyle string `toml:"markdown_style"`
	WordWrap      int    `toml:"word_wrap"`
	NoMarkdown    bool   `toml:"no_markdown"`
	Plain         bool   `toml:"plain"`

	// Logging
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	// TranscriptPath, when set, receives a JSON export of the session on exit
	TranscriptPath string `toml:"transcript_path"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Backend defaults (the Flask dev server)
		BackendURL:     "http://localhost:5000",
		ChatPath:       "/chat",
		RequestTimeout: Duration{0},

		// Location defaults
		Location:        LocationAuto,
		GeoIPURL:        "http://ip-api.com/json/",
		LocationTimeout: Duration{10 * time.Second},

		// Rendering defaults
		MarkdownStyle: "auto",
		WordWrap:      80,

		// Logging defaults
		LogLevel: "info",
	}
}

// DefaultPath returns ~/.travelbot/config.toml
func DefaultPath() string {
	return expandHome("~/.travelbot/config.toml")
}

// Load reads a TOML file over the defaults. A missing file at the
// default path is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	path = expandHome(path)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from TRAVELBOT_* environment variables
func (c *Config) ApplyEnv() error {
	if v := GetEnv("TRAVELBOT_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := GetEnv("TRAVELBOT_LOCATION"); v != "" {
		c.Location = v
	}
	if v := GetEnv("TRAVELBOT_LATITUDE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRAVELBOT_LATITUDE: %w", err)
		}
		c.Latitude = f
	}
	if v := GetEnv("TRAVELBOT_LONGITUDE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRAVELBOT_LONGITUDE: %w", err)
		}
		c.Longitude = f
	}
	if v := GetEnv("TRAVELBOT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := GetEnv("TRAVELBOT_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL cannot be empty")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend URL %q is not an absolute URL", c.BackendURL)
	}
	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}

	switch strings.ToLower(c.Location) {
	case LocationAuto, LocationNone:
	case LocationStatic:
		if c.Latitude < -90 || c.Latitude > 90 {
			return fmt.Errorf("latitude must be between -90 and 90")
		}
		if c.Longitude < -180 || c.Longitude > 180 {
			return fmt.Errorf("longitude must be between -180 and 180")
		}
	default:
		return fmt.Errorf("location must be one of auto, static, none (got %q)", c.Location)
	}

	if c.WordWrap < 20 {
		return fmt.Errorf("word wrap must be at least 20")
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
