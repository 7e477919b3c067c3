// Package config holds the pinsync settings record and its JSON persistence.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// RelPath is the config file location relative to the XDG config dirs.
const RelPath = "pinsync/config.json"

// Environment variables that override file values. They are read at use
// time and never saved.
const (
	EnvAPIToken    = "PINBOARD_API_TOKEN"
	EnvObsidianKey = "OBSIDIAN_API_KEY"
)

// Vault backends.
const (
	BackendObsidian = "obsidian"
	BackendFS       = "fs"
)

// PinNotes configures one-note-per-pin mode.
type PinNotes struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Tag     string `json:"tag"`
	Format  string `json:"format"`
}

// Vault selects where notes are written.
type Vault struct {
	Backend     string `json:"backend"`
	Path        string `json:"path"`
	DailyFolder string `json:"daily_folder"`
	DailyFormat string `json:"daily_format"`
}

// Pinboard configures the Pinboard API endpoint. An empty URL uses
// api.pinboard.in.
type Pinboard struct {
	URL string `json:"url"`
}

// Obsidian configures the Obsidian Local REST API.
type Obsidian struct {
	URL    string `json:"url"`
	Cert   string `json:"cert"`
	APIKey string `json:"apikey"`
}

// Config represents the pinsync settings.
type Config struct {
	APIToken           string `json:"api_token"`
	AcceptedDisclaimer bool   `json:"accepted_disclaimer"`
	LatestSyncTime     int64  `json:"latest_sync_time"`
	SyncEnabled        bool   `json:"sync_enabled"`
	// SyncInterval is in seconds.
	SyncInterval      int      `json:"sync_interval"`
	SectionHeading    string   `json:"section_heading"`
	TagPrefix         string   `json:"tag_prefix"`
	NewlineSeparator  bool     `json:"newline_separator"`
	RecentCount       int      `json:"recent_count"`
	DailyNotesEnabled bool     `json:"daily_notes_enabled"`
	PinNotes          PinNotes `json:"pin_notes"`
	Pinboard          Pinboard `json:"pinboard"`
	Vault             Vault    `json:"vault"`
	Obsidian          Obsidian `json:"obsidian"`
	MCP               struct {
		Tools map[string]bool `json:"tools"`
	} `json:"mcp"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Config {
	return Config{
		SyncInterval:      30 * 60,
		SectionHeading:    "## Pinboard",
		TagPrefix:         "pinboard/",
		RecentCount:       20,
		DailyNotesEnabled: true,
		PinNotes: PinNotes{
			Path:   "Pinboard",
			Tag:    "pinboard",
			Format: "YYYY-MM-DD [{description}]",
		},
		Vault: Vault{
			Backend:     BackendObsidian,
			DailyFormat: "YYYY-MM-DD",
		},
		Obsidian: Obsidian{
			URL: "https://127.0.0.1:27124",
		},
	}
}

// Load loads the configuration from a JSON file.
// If path is empty, it searches for "pinsync/config.json" in XDG config
// directories, falling back to Defaults when there is none.
// A .env file in the working directory is loaded into the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := Defaults()
	if path == "" {
		var err error
		path, err = xdg.SearchConfigFile(RelPath)
		if err != nil {
			return &cfg, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	if !cfg.AcceptedDisclaimer {
		cfg.SyncEnabled = false
	}

	configDir := filepath.Dir(path)
	resolve := func(p string) (string, error) {
		if p == "" || filepath.IsAbs(p) {
			return p, nil
		}
		fullPath := filepath.Join(configDir, p)
		return filepath.Abs(fullPath)
	}

	var errPath error
	if cfg.Obsidian.Cert, errPath = resolve(cfg.Obsidian.Cert); errPath != nil {
		return nil, errPath
	}
	if cfg.Vault.Path, errPath = resolve(cfg.Vault.Path); errPath != nil {
		return nil, errPath
	}

	return &cfg, nil
}

// Save writes cfg as indented JSON. An empty path saves to the XDG config
// home.
func Save(path string, cfg *Config) (string, error) {
	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(RelPath); err != nil {
			return "", err
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, append(data, '\n'), 0o600)
}

// Token returns the Pinboard API token, preferring the environment.
func (c *Config) Token() string {
	if v := os.Getenv(EnvAPIToken); v != "" {
		return v
	}
	return c.APIToken
}

// ObsidianKey returns the Obsidian API key, preferring the environment.
func (c *Config) ObsidianKey() string {
	if v := os.Getenv(EnvObsidianKey); v != "" {
		return v
	}
	return c.Obsidian.APIKey
}

// Interval returns the sync interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.SyncInterval) * time.Second
}

// LatestSync returns the time of the last successful sync, or the zero
// time if there has been none.
func (c *Config) LatestSync() time.Time {
	if c.LatestSyncTime == 0 {
		return time.Time{}
	}
	return time.Unix(c.LatestSyncTime, 0)
}
