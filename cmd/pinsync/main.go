package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bttk/pinsync/internal/setup"
	"github.com/bttk/pinsync/pkg/config"
	"github.com/bttk/pinsync/pkg/pinboard"
)

const usage = `Usage: pinsync <command> [flags]

Commands:
  sync    sync recent bookmarks into the vault once
  run     sync now and then every sync_interval seconds
  tags    list tags with their bookmark counts
  notes   list notes with their bookmarks
  accept  accept the disclaimer and enable scheduled sync
`

const disclaimer = "Enabling sync will backfill your recent Pinboard bookmarks into your vault. " +
	"This means potentially creating or modifying hundreds of notes. " +
	"Make sure to test with a test vault before continuing."

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet("pinsync "+cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to the configuration file (default: ~/.config/pinsync/config.json)")
	verbose := fs.Bool("v", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	setupLogger(os.Stderr, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	switch cmd {
	case "sync", "run":
		err = runSync(ctx, cfg, *configPath, cmd == "run")
	case "tags":
		err = listTags(ctx, cfg, os.Stdout)
	case "notes":
		err = listNotes(ctx, cfg, os.Stdout)
	case "accept":
		err = accept(cfg, *configPath)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", cmd)
	}
}

func runSync(ctx context.Context, cfg *config.Config, configPath string, schedule bool, opts ...pinboard.Option) error {
	client, err := setup.Pinboard(cfg, opts...)
	if err != nil {
		return err
	}
	s, err := setup.Syncer(cfg, configPath, client, setup.LogNotifier{})
	if err != nil {
		return err
	}
	if !schedule {
		return s.Sync(ctx)
	}
	if !cfg.SyncEnabled || cfg.SyncInterval <= 0 {
		return fmt.Errorf("scheduled sync is disabled, run 'pinsync accept' and set sync_interval")
	}
	s.Run(ctx)
	return nil
}

func listTags(ctx context.Context, cfg *config.Config, w io.Writer) error {
	client, err := setup.Pinboard(cfg)
	if err != nil {
		return err
	}
	tags, err := client.ListTags(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-30s %s\n", "TAG", "COUNT")
	fmt.Fprintf(w, "%-30s %s\n", "---", "-----")
	for _, t := range tags {
		fmt.Fprintf(w, "%-30s %d\n", t.Name, t.Count)
	}
	return nil
}

func listNotes(ctx context.Context, cfg *config.Config, w io.Writer) error {
	client, err := setup.Pinboard(cfg)
	if err != nil {
		return err
	}
	notes, err := client.ListNotePosts(ctx)
	if err != nil {
		return err
	}
	printNotes(w, notes)
	return nil
}

func printNotes(w io.Writer, notes []pinboard.NotePost) {
	for _, np := range notes {
		fmt.Fprint(w, np.String())
	}
}

func accept(cfg *config.Config, configPath string) error {
	fmt.Println(disclaimer)
	next, _ := config.Apply(*cfg, config.Diff{
		AcceptedDisclaimer: config.Ptr(true),
		SyncEnabled:        config.Ptr(true),
	})
	path, err := config.Save(configPath, &next)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Disclaimer accepted, scheduled sync enabled")
	return nil
}

func setupLogger(out io.Writer, verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Stamp,
	})
	zerolog.DefaultContextLogger = &log.Logger
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
