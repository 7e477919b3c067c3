package main

import (
	"context"
	"flag"
	"io"
	stdlog "log"
	"log/syslog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bttk/pinsync/internal/setup"
	"github.com/bttk/pinsync/pkg/config"
	"github.com/bttk/pinsync/pkg/pinboardmcp"
	"github.com/bttk/pinsync/pkg/syncer"
)

func main() {
	var configPath string
	var verbose bool
	flag.StringVar(&configPath, "config", "", "path to config file (default: ~/.config/pinsync/config.json)")
	flag.BoolVar(&verbose, "v", false, "enable verbose logging of input/output")
	flag.Parse()

	setupLogger()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msgf("failed to load %s", configPath)
	}

	client, err := setup.Pinboard(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// The sync tool needs a vault; without one only the Pinboard tools are
	// offered.
	var runner pinboardmcp.SyncRunner
	s, err := setup.Syncer(cfg, configPath, client, setup.LogNotifier{})
	if err != nil {
		log.Warn().Err(err).Msg("vault unavailable, sync tool disabled")
	} else {
		runner = s
		if cfg.SyncEnabled {
			go s.Run(ctx)
		}
	}

	// Create MCP Server
	srv := server.NewMCPServer(
		"Pinboard MCP Server",
		"1.0.0",
	)
	registerTools(srv, pinboardmcp.Registry(client, runner), cfg.MCP.Tools)

	// Start the server using Stdio
	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	if verbose {
		in = &loggingReader{os.Stdin}
		out = &loggingWriter{os.Stdout}
	}
	if err := server.NewStdioServer(srv).Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

// registerTools registers the tools enabled in config. Tools missing from
// config are skipped.
func registerTools(srv *server.MCPServer, registry map[string]func(*server.MCPServer), enabled map[string]bool) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var registered []string
	for _, name := range names {
		on, ok := enabled[name]
		switch {
		case ok && on:
			log.Info().Msgf("Registering tool %s", name)
			registry[name](srv)
			registered = append(registered, name)
		case !ok:
			log.Warn().Msgf("Tool %s not found in config, skipping", name)
		}
	}
	return registered
}

var _ pinboardmcp.SyncRunner = (*syncer.Syncer)(nil)

type loggingReader struct {
	r io.Reader
}

func (lr *loggingReader) Read(p []byte) (n int, err error) {
	n, err = lr.r.Read(p)
	if n > 0 {
		log.Info().Msgf("IN: %q", p[:n])
	}
	return n, err
}

type loggingWriter struct {
	w io.Writer
}

func (lw *loggingWriter) Write(p []byte) (n int, err error) {
	if len(p) < 50 {
		log.Info().Msgf("OUT: %q", p)
	} else {
		log.Info().Msgf("OUT: %q...", p[:50])
	}
	return lw.w.Write(p)
}

func setupLogger() {
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Stamp,
	}
	syslogger, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, "pinboardmcp")
	if err != nil {
		stdlog.Printf("syslog unavailable: %v", err)
		log.Logger = log.Output(console)
	} else {
		log.Logger = log.Output(zerolog.MultiLevelWriter(
			zerolog.SyslogLevelWriter(syslogger),
			console))
	}
	zerolog.DefaultContextLogger = &log.Logger
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
