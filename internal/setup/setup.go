// Package setup builds the clients, vault backend and syncer described by
// a config.
package setup

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bttk/pinsync/pkg/config"
	"github.com/bttk/pinsync/pkg/obsidian"
	"github.com/bttk/pinsync/pkg/pinboard"
	"github.com/bttk/pinsync/pkg/syncer"
	"github.com/bttk/pinsync/pkg/vault"
)

// Pinboard returns a Pinboard client for the configured token.
func Pinboard(cfg *config.Config, opts ...pinboard.Option) (*pinboard.Client, error) {
	base := []pinboard.Option{pinboard.WithHTTPClient(&http.Client{Timeout: 30 * time.Second})}
	if cfg.Pinboard.URL != "" {
		base = append(base, pinboard.WithBaseURL(cfg.Pinboard.URL))
	}
	return pinboard.NewClient(cfg.Token(), append(base, opts...)...)
}

// Obsidian returns an Obsidian Local REST API client. Without a configured
// certificate TLS verification is skipped, as the plugin serves a
// self-signed one.
func Obsidian(cfg *config.Config) (*obsidian.Client, error) {
	var opts []obsidian.Option
	if cfg.Obsidian.Cert != "" {
		opts = append(opts, obsidian.WithCertificate(cfg.Obsidian.Cert))
	} else {
		opts = append(opts, obsidian.WithInsecureTLS())
	}
	return obsidian.NewClient(cfg.Obsidian.URL, cfg.ObsidianKey(), opts...)
}

// Vault returns the configured document store and daily note lookup.
func Vault(cfg *config.Config) (vault.Store, vault.DailyNotes, error) {
	switch cfg.Vault.Backend {
	case config.BackendFS:
		if cfg.Vault.Path == "" {
			return nil, nil, fmt.Errorf("vault.path is required for the %q backend", config.BackendFS)
		}
		store := vault.NewDirFS(cfg.Vault.Path)
		return store, &vault.FSDailyNotes{
			Store:  store,
			Folder: cfg.Vault.DailyFolder,
			Format: cfg.Vault.DailyFormat,
		}, nil
	case config.BackendObsidian, "":
		client, err := Obsidian(cfg)
		if err != nil {
			return nil, nil, err
		}
		return vault.NewObsidian(client), vault.NewObsidianDailyNotes(client), nil
	default:
		return nil, nil, fmt.Errorf("unknown vault backend %q", cfg.Vault.Backend)
	}
}

// LogNotifier reports sync failures in the log.
type LogNotifier struct{}

func (LogNotifier) Notify(msg string) {
	log.Warn().Msg(msg)
}

// Syncer wires a syncer for cfg. Settings changes are saved to configPath
// (the XDG config home when empty).
func Syncer(cfg *config.Config, configPath string, source syncer.Source, notifier syncer.Notifier) (*syncer.Syncer, error) {
	store, daily, err := Vault(cfg)
	if err != nil {
		return nil, err
	}
	return syncer.New(syncer.Options{
		Config:   *cfg,
		Source:   source,
		Store:    store,
		Daily:    daily,
		Notifier: notifier,
		Save: func(next config.Config) error {
			path, err := config.Save(configPath, &next)
			if err != nil {
				return err
			}
			log.Debug().Str("path", path).Msg("Saved settings")
			return nil
		},
	}), nil
}
