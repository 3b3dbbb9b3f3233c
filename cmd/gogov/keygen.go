package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/linkstate"
)

const maxKeygenCount = 100

func keygenCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "keygen [long-url]",
		Short: "Draft random short link keys",
		Long: `Generate random short link keys the way the create-link form does.

With a long URL, each key is printed next to it as a draft link.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > maxKeygenCount {
				return errors.New(errors.CodeCLIFlag).
					WithField("--count").
					WithDetail(fmt.Sprintf("Count must be between 1 and %d.", maxKeygenCount))
			}

			form := linkstate.NewContainer()
			if len(args) == 1 {
				form.Dispatch(linkstate.SetLongURL(args[0]))
			}

			out := cmd.OutOrStdout()
			seen := make(map[string]bool, count)
			unsubscribe := form.Subscribe(func(s linkstate.State) {
				if s.ShortURL == "" || seen[s.ShortURL] {
					return
				}
				seen[s.ShortURL] = true
				if s.LongURL != "" {
					fmt.Fprintf(out, "/%s\t%s\n", s.ShortURL, s.LongURL)
					return
				}
				fmt.Fprintln(out, s.ShortURL)
			})
			defer unsubscribe()

			for len(seen) < count {
				form.Dispatch(linkstate.SetRandomShortURL(linkstate.RandomShortURL()))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of keys to generate")

	return cmd
}
