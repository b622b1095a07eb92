package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"travelbot/internal/backend"
	"travelbot/internal/chat"
	"travelbot/internal/config"
	"travelbot/internal/location"
	"travelbot/internal/logging"
	"travelbot/internal/render"
	"travelbot/internal/terminal"
	"travelbot/internal/transcript"
	"travelbot/internal/tui"
	"travelbot/internal/ui"
)

// flagValues holds raw command-line values; only flags the user set
// override the loaded configuration
type flagValues struct {
	configPath string
	backendURL string
	location   string
	latitude   float64
	longitude  float64
	plain      bool
	noMarkdown bool
	transcript string
	logLevel   string
	logFile    string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "travelbot",
		Short: "Chat with the travel assistant from your terminal",
		Long: `travelbot is a terminal client for the travel assistant backend.

Ask about flights, hotels, tours, budgets or travel tips. Your approximate
location is looked up once at startup and sent with each message so the
assistant can make nearby recommendations.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &fv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	bindFlags(cmd, &fv)
	return cmd
}

func bindFlags(cmd *cobra.Command, fv *flagValues) {
	f := cmd.Flags()
	f.StringVar(&fv.configPath, "config", "", "config file (default ~/.travelbot/config.toml)")
	f.StringVar(&fv.backendURL, "backend-url", "", "travel assistant base URL")
	f.StringVar(&fv.location, "location", "", "location source: auto, static or none")
	f.Float64Var(&fv.latitude, "lat", 0, "latitude for --location static")
	f.Float64Var(&fv.longitude, "lon", 0, "longitude for --location static")
	f.BoolVar(&fv.plain, "plain", false, "line-oriented interface instead of the full-screen one")
	f.BoolVar(&fv.noMarkdown, "no-markdown", false, "show replies as raw text")
	f.StringVar(&fv.transcript, "transcript", "", "write a JSON transcript here on exit")
	f.StringVar(&fv.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&fv.logFile, "log-file", "", "write logs to this file")
	f.DurationVar(&fv.timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")
}

// loadConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order
func loadConfig(cmd *cobra.Command, fv *flagValues) (*config.Config, error) {
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	applyFlags(cmd, fv, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, fv *flagValues, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("backend-url") {
		cfg.BackendURL = fv.backendURL
	}
	if changed("location") {
		cfg.Location = fv.location
	}
	if changed("lat") {
		cfg.Latitude = fv.latitude
	}
	if changed("lon") {
		cfg.Longitude = fv.longitude
	}
	// Coordinates on the command line imply a fixed location.
	if (changed("lat") || changed("lon")) && !changed("location") {
		cfg.Location = config.LocationStatic
	}
	if changed("plain") {
		cfg.Plain = fv.plain
	}
	if changed("no-markdown") {
		cfg.NoMarkdown = fv.noMarkdown
	}
	if changed("transcript") {
		cfg.TranscriptPath = fv.transcript
	}
	if changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = fv.logFile
	}
	if changed("timeout") {
		cfg.RequestTimeout = config.Duration{Duration: fv.timeout}
	}
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	plain := cfg.Plain || !terminal.IsTerminal(os.Stdin) || !terminal.IsTerminal(os.Stdout)

	// The full-screen UI owns the terminal, so it only logs to a file.
	logOutput := cfg.LogFile
	if logOutput == "" && plain {
		logOutput = "stderr"
	}
	logger, err := logging.New(cfg.LogLevel, logOutput)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session := chat.NewSession()
	logger = logger.With(zap.String("session", session.ID()))

	client := backend.NewClient(cfg.BackendURL, cfg.ChatPath, cfg.RequestTimeout.Duration)
	coord := chat.NewCoordinator(session, client, logger)
	acquirer := location.NewAcquirer(newLocator(cfg), session, logger)

	logger.Info("starting",
		zap.String("endpoint", client.Endpoint()),
		zap.String("location", cfg.Location),
		zap.Bool("plain", plain))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	formatter := formatterFactory(cfg, logger)

	warn := func(msg string) { fmt.Fprintf(os.Stderr, "Warning: %s\n", msg) }
	var display *ui.Display
	if plain {
		display = newPlainDisplay(cfg, formatter)
		warn = display.PrintWarning
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		acquirer.Acquire(gctx)
		return nil
	})
	g.Go(func() error {
		// Leaving the UI ends the session, including a pending lookup.
		defer cancel()
		if plain {
			return ui.NewREPL(coord, display, os.Stdin, client.Endpoint(), logger).Run(gctx)
		}
		return tui.Run(gctx, coord, tui.Options{
			Endpoint:  client.Endpoint(),
			Formatter: formatter,
			Logger:    logger,
		})
	})
	runErr := g.Wait()

	exportTranscript(cfg.TranscriptPath, session.Snapshot(), logger, warn)

	return runErr
}

// exportTranscript writes the session to path when one is configured.
// Failures are reported through warn and never fail the run.
func exportTranscript(path string, state chat.State, logger *zap.Logger, warn func(string)) {
	if path == "" {
		return
	}
	if err := transcript.Write(path, state); err != nil {
		logger.Error("failed to write transcript", zap.Error(err))
		warn(fmt.Sprintf("transcript not saved: %v", err))
		return
	}
	logger.Info("transcript written", zap.String("path", path))
}

func newPlainDisplay(cfg *config.Config, formatter func(int) render.Formatter) *ui.Display {
	width := cfg.WordWrap
	animate := terminal.IsTerminal(os.Stdout)
	if animate {
		if w, _ := terminal.Size(os.Stdout); w > 0 && w < width {
			width = w
		}
	}

	return ui.NewDisplay(os.Stdout, render.NewCache(formatter(width)), width, animate)
}

// newLocator picks the position source for the configured mode
func newLocator(cfg *config.Config) location.Locator {
	switch strings.ToLower(cfg.Location) {
	case config.LocationStatic:
		return location.Static{Latitude: cfg.Latitude, Longitude: cfg.Longitude}
	case config.LocationNone:
		return location.Disabled{}
	default:
		return location.NewIPLocator(cfg.GeoIPURL, cfg.LocationTimeout.Duration)
	}
}

// formatterFactory returns a constructor for reply formatters at a given
// width. Glamour failures fall back to raw text.
func formatterFactory(cfg *config.Config, logger *zap.Logger) func(int) render.Formatter {
	return func(width int) render.Formatter {
		if cfg.NoMarkdown {
			return render.Plain{}
		}
		wrap := cfg.WordWrap
		if width > 0 && width < wrap {
			wrap = width
		}
		g, err := render.NewGlamour(cfg.MarkdownStyle, wrap)
		if err != nil {
			logger.Warn("markdown rendering disabled", zap.Error(err))
			return render.Plain{}
		}
		return g
	}
}
