package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xming13/GoGovSG/internal/directory"
	"github.com/xming13/GoGovSG/internal/tui"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

func browseCmd(flags *globalFlags) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse [QUERY...]",
		Short: "Browse the directory in the terminal",
		Long: `Open an interactive terminal browser over the directory.

Results follow the query as you type. Back and forward (ctrl+b, ctrl+f)
walk the search history the way a browser's buttons do.

Examples:
  gogov browse
  gogov browse health
  gogov browse --log-file gogov.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			// The terminal belongs to the browser; logs go to a file or nowhere.
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			logger := newLogger(cfg, out)

			dir, err := directory.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer dir.Close()

			p := searchparam.Default().
				WithRowsPerPage(cfg.Search.DefaultRows).
				WithQuery(strings.Join(args, " "))
			mode := navigator.ModePush
			if cfg.Search.DebounceMode == navigator.ModeReplace.String() {
				mode = navigator.ModeReplace
			}
			return tui.Run(cmd.Context(), tui.Config{
				Service:      dir,
				RawQuery:     searchparam.Encode(p),
				Window:       cfg.Search.Debounce.Std(),
				Mode:         mode,
				FetchTimeout: cfg.Search.FetchTimeout.Std(),
				Logger:       logger,
			})
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	return cmd
}

