package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// httpClientTimeout bounds every outbound call to Microsoft Graph and
// the Google review APIs. Prevents hung upstreams from pinning request
// handlers indefinitely.
const httpClientTimeout = 30 * time.Second

// defaultHTTPClient returns an HTTP client with a sensible timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds the root command. Running the binary with no
// subcommand starts the server, which keeps the container entrypoint a
// bare image reference.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mmigration-backend",
		Short:   "Form intake and review proxy backend",
		Long:    "Backend service that relays form submissions to SharePoint and proxies Google business reviews.",
		Version: version,
		// Silence Cobra's default error/usage printing - we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runServe,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "force JSON log output")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newServeCmd())

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// buildLogger creates an slog.Logger. Config-file log level provides
// the baseline; --verbose and --quiet override it because CLI flags
// always win. Output is human-readable text on a terminal and JSON
// otherwise, unless --json forces JSON.
func buildLogger(configLevel string) *slog.Logger {
	level := slog.LevelInfo

	switch configLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if !flagJSON && isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
