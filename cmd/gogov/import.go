package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/internal/directory"
	"github.com/xming13/GoGovSG/internal/errors"
)

func importCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import SOURCE",
		Short: "Load a directory dump into the configured database",
		Long: `Replace the contents of the configured sqlite or postgres directory
with a JSON dump. SOURCE is a file path or an s3://bucket/key URL; a .gz
suffix means the dump is gzipped.

Examples:
  gogov import links.json
  gogov import s3://gogov-dumps/links.json.gz`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New(errors.CodeCLIArgs).
					WithDetail(fmt.Sprintf("import takes one source, got %d.", len(args))).
					WithSuggestion("Run: gogov import SOURCE")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			ctx := cmd.Context()

			dir, err := directory.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer dir.Close()

			dst, ok := dir.(directory.Replacer)
			if !ok || cfg.Directory.Driver == config.DriverMemory {
				return errors.New(errors.CodeDirectoryImport).
					WithField(cfg.Directory.Driver).
					WithDetail("Only sqlite and postgres directories keep imported links.").
					WithSuggestion("Set directory.driver to sqlite or postgres")
			}

			items, err := directory.Load(ctx, args[0], cfg.Import)
			if err != nil {
				return errors.FromError(err, errors.CodeDirectoryImport).WithField(args[0])
			}
			if err := dst.Replace(ctx, items); err != nil {
				return errors.New(errors.CodeDirectoryImport).WithField(args[0]).Wrap(err)
			}

			logger.Info("import complete", "source", args[0], "links", len(items))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d links into the %s directory\n", len(items), cfg.Directory.Driver)
			return nil
		},
	}
	return cmd
}
