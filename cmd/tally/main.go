package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pevans/tally/config"
	"github.com/pevans/tally/scan"
	"github.com/pevans/tally/scraper"
	"github.com/spf13/cobra"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	configPath string
	logLevel   string
	format     string
	pagesDir   string

	cfg    *config.FileConfig
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tally",
		Short: "Count dated work items per person, folder and month",
		Long: `tally reads a folder listing, each folder's monthly pages and the
dated items on them, and turns them into per-person daily counts that can be
rolled up by month, person and folder.

Pages are fetched over HTTP, or read from saved HTML files with --pages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", getEnv("TALLY_CONFIG", ""), "config file (default ~/.tally/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", getEnv("TALLY_LOG_LEVEL", "info"), "log level: debug, info, warn or error")
	flags.StringVar(&a.format, "format", "table", "output format: table or json")
	flags.StringVar(&a.pagesDir, "pages", "", "read saved HTML pages from this directory instead of fetching")

	rootCmd.AddCommand(
		newFoldersCmd(a),
		newMonthsCmd(a),
		newExtractCmd(a),
		newScanCmd(a),
		newReportCmd(a),
		newRunsCmd(a),
		newMessagesCmd(a),
	)
	return rootCmd
}

func (a *app) init(logOut io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	switch a.format {
	case "table", "json":
	default:
		return fmt.Errorf("invalid format %q: must be table or json", a.format)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.pagesDir != "" {
		cfg.Fetch.PagesDir = a.pagesDir
	}
	a.cfg = cfg
	return nil
}

// pages returns the configured page source: saved pages when a pages
// directory is set, HTTP otherwise.
func (a *app) pages() scan.PageSource {
	if a.cfg.Fetch.PagesDir != "" {
		return scraper.NewDirSource(a.cfg.Fetch.PagesDir)
	}

	source := scraper.NewHTTPSource(a.cfg.Fetch.Timeout, a.cfg.Fetch.RatePerSecond)
	if a.cfg.Fetch.UserAgent != "" {
		source.UserAgent = a.cfg.Fetch.UserAgent
	}
	return source
}

// rootURL returns the URL argument, falling back to the configured root.
func (a *app) rootURL(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if a.cfg.RootURL == "" {
		return "", fmt.Errorf("no URL given and root_url is not configured")
	}
	return a.cfg.RootURL, nil
}

func (a *app) json() bool {
	return a.format == "json"
}
