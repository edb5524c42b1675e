package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/steve-z-wang/webtask-sub000/internal/config"
	"github.com/steve-z-wang/webtask-sub000/internal/crawler"
	"github.com/steve-z-wang/webtask-sub000/internal/filter"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

var (
	cfgPath string
	width   int
	height  int
	profile string
	headful bool
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pagectx",
		Short: "Compact page outlines for LLM browser agents",
		Long: `pagectx opens a page in Chrome, reduces its DOM or accessibility tree to a
compact outline with stable identifiers, and resolves those identifiers back
to elements so actions can be run against them.

Examples:
  pagectx outline https://example.com
  pagectx annotate https://example.com -o boxes.png
  pagectx act https://myapp.com "log in as test@example.com"`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().IntVar(&width, "width", 0, "Viewport width (default from config: 1280)")
	rootCmd.PersistentFlags().IntVar(&height, "height", 0, "Viewport height (default from config: 720)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	rootCmd.PersistentFlags().BoolVar(&headful, "headful", false, "Show the browser window")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	rootCmd.AddCommand(outlineCmd(), annotateCmd(), actCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads the config and applies global flag overrides
func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var err error
	if cfg, err = config.Load(cfgPath); err != nil {
		return err
	}
	if width > 0 {
		cfg.Browser.Width = width
	}
	if height > 0 {
		cfg.Browser.Height = height
	}
	if profile != "" {
		cfg.Browser.ProfileDir = profile
	}
	if headful {
		cfg.Browser.Headful = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("config loaded", "path", cfgPath, "mode", cfg.Mode, "provider", cfg.AI.Provider)
	return nil
}

func newBuilder() *pagemap.Builder {
	return pagemap.NewBuilder(
		pagemap.WithRules(filter.NewRules(cfg.Filter)),
		pagemap.WithMaxValueLength(cfg.Outline.MaxValueLength),
		pagemap.WithLogger(logger),
	)
}

// openPage launches the browser and loads url, reporting progress on stderr
func openPage(ctx context.Context, url string) (*crawler.Browser, error) {
	fmt.Fprintf(os.Stderr, "→ Loading %s... ", url)
	b, err := crawler.Open(ctx, url, crawler.Options{
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
		Timeout:    cfg.Browser.Timeout,
		Settle:     cfg.Browser.Settle,
		Bin:        cfg.Browser.Bin,
		Headful:    cfg.Browser.Headful,
		ProfileDir: cfg.Browser.ProfileDir,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed")
		return nil, fmt.Errorf("load failed: %w", err)
	}
	fmt.Fprintln(os.Stderr, "done")
	return b, nil
}

// modeFlag resolves a --mode value, falling back to the configured mode
func modeFlag(v string) (pagemap.Mode, error) {
	if v == "" {
		v = cfg.Mode
	}
	return pagemap.ParseMode(v)
}
