package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/internal/directory"
	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
	"github.com/xming13/GoGovSG/pkg/searchstate"
)

type searchFlags struct {
	sort   string
	rows   int
	page   int
	asJSON bool
}

func searchCmd(flags *globalFlags) *cobra.Command {
	var sf searchFlags

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search the directory once and print the results",
		Long: `Search the directory and print one page of results.

Pages are numbered from 1.

Examples:
  gogov search vaccination
  gogov search tax --sort popularity --rows 25 --page 2
  gogov search tax --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.CodeCLIArgs).
					WithDetail("search needs a query.").
					WithSuggestion("Run: gogov search QUERY")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rows") {
				sf.rows = cfg.Search.DefaultRows
			}
			p, err := sf.params(strings.Join(args, " "))
			if err != nil {
				return err
			}

			newLogger(cfg, cmd.ErrOrStderr())
			dir, err := directory.Open(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer dir.Close()

			view, err := searchOnce(cmd.Context(), cfg, dir, p)
			if err != nil {
				return err
			}
			if sf.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view.Results)
			}
			printResults(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sf.sort, "sort", "s", string(searchparam.DefaultSortOrder), "Sort order: relevance, recency or popularity")
	cmd.Flags().IntVarP(&sf.rows, "rows", "r", config.DefaultRows, "Results per page (default from config)")
	cmd.Flags().IntVarP(&sf.page, "page", "p", 1, "Page number, from 1")
	cmd.Flags().BoolVar(&sf.asJSON, "json", false, "Print the result set as JSON")

	return cmd
}

// params validates the flags and builds the search parameters.
func (sf searchFlags) params(query string) (searchparam.Params, error) {
	order, ok := searchparam.ParseSortOrder(sf.sort)
	if !ok {
		return searchparam.Params{}, errors.New(errors.CodeCLIFlag).
			WithField("--sort").
			WithDetail(fmt.Sprintf("%q is not a sort order.", sf.sort)).
			WithSuggestion("Use relevance, recency or popularity")
	}
	if sf.rows <= 0 || sf.rows > searchparam.MaxRowsPerPage {
		return searchparam.Params{}, errors.New(errors.CodeCLIFlag).
			WithField("--rows").
			WithDetail(fmt.Sprintf("Rows per page must be between 1 and %d.", searchparam.MaxRowsPerPage))
	}
	if sf.page < 1 {
		return searchparam.Params{}, errors.New(errors.CodeCLIFlag).
			WithField("--page").
			WithDetail("Pages are numbered from 1.")
	}
	return searchparam.Params{
		Query:       strings.TrimSpace(query),
		SortOrder:   order,
		RowsPerPage: sf.rows,
		CurrentPage: sf.page - 1,
	}, nil
}

// searchOnce runs a controller on a private loop until the search for p
// has settled or failed.
func searchOnce(ctx context.Context, cfg *config.Config, svc searchstate.Service, p searchparam.Params) (searchstate.View, error) {
	raw := searchparam.Encode(p)
	loop := searchstate.NewLoop(4)
	store, writer := resultstore.New()
	history := navigator.NewMemoryHistory(navigator.Location{Path: navigator.DefaultPath, RawQuery: raw})

	ctrl := searchstate.New(searchstate.Config{
		Service:      svc,
		Navigator:    navigator.New(history),
		Store:        store,
		Writer:       writer,
		Dispatch:     loop.Dispatch,
		Context:      ctx,
		FetchTimeout: cfg.Search.FetchTimeout.Std(),
	})
	defer ctrl.Close()

	ctrl.Sync(raw)
	if err := loop.RunUntil(ctx, func() bool { return ctrl.State() != searchstate.Fetching }); err != nil {
		return searchstate.View{}, errors.New(errors.CodeSearchTimeout).Wrap(err)
	}
	if ctrl.State() == searchstate.Failed {
		return searchstate.View{}, errors.FromError(ctrl.Err(), errors.CodeSearchFailed).WithField(p.Query)
	}
	return ctrl.View(), nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func printResults(w io.Writer, v searchstate.View) {
	if !v.ShowResults {
		fmt.Fprintln(w, "No search performed.")
		return
	}
	fmt.Fprintln(w, v.Header)
	if len(v.Results.Items) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LINK", "DESCRIPTION", "CLICKS", "DESTINATION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, item := range v.Results.Items {
		t.Row(item.Path(), item.Description, strconv.FormatInt(item.Clicks, 10), item.LongURL)
	}
	fmt.Fprintln(w, t.Render())
	if v.PageCount > 1 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Page %d of %d", v.Params.CurrentPage+1, v.PageCount)))
	}
}
