package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/internal/directory"
	"github.com/xming13/GoGovSG/internal/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the directory search server.

Serves the search page on /search, the JSON API on /api/search, live
sessions on /live, health on /healthz and Prometheus metrics on the
configured metrics path.

Examples:
  gogov serve
  gogov serve --addr :9000
  GOGOV_DIRECTORY_DRIVER=sqlite GOGOV_DIRECTORY_PATH=links.db gogov serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logger := newLogger(cfg, cmd.ErrOrStderr())
	if p := cfg.Path(); p != "" {
		logger.Info("config loaded", "path", p)
	}

	dir, err := directory.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer dir.Close()

	if r, ok := dir.(directory.Replacer); ok && watchable(cfg) {
		go func() {
			err := directory.Watch(ctx, cfg.Directory.Path, r, directory.WatchOptions{Logger: logger})
			if err != nil && ctx.Err() == nil {
				logger.Error("directory watch stopped", "error", err)
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "gogov %s serving %s directory on %s\n", version, cfg.Directory.Driver, cfg.Server.Addr)
	return server.New(cfg, dir, server.WithLogger(logger)).ListenAndServe(ctx)
}

// watchable reports whether the memory directory's dump is a local file
// that can be watched for changes.
func watchable(cfg *config.Config) bool {
	dc := cfg.Directory
	return dc.Watch &&
		dc.Driver == config.DriverMemory &&
		dc.Path != "" &&
		!strings.HasPrefix(dc.Path, "s3://")
}
