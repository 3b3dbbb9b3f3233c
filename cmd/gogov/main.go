package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		errors.Print(stderr, err)
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "gogov",
		Short: "Search the go.gov.sg public link directory",
		Long: `gogov serves and searches the public directory of go.gov.sg short links.

The search state (query, sort order, page size and page) lives in the URL,
so every result page can be bookmarked and shared.

Examples:
  gogov serve
  gogov search vaccination --sort popularity
  gogov browse
  gogov import s3://gogov-dumps/links.json.gz
  gogov keygen https://www.gov.sg`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default gogov.json or gogov.toml in the working directory)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	root.AddCommand(
		serveCmd(flags),
		searchCmd(flags),
		browseCmd(flags),
		importCmd(flags),
		keygenCmd(),
		versionCmd(),
	)
	return root
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg and installs it as the
// slog default.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
