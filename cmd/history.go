package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davidbz/promptician/internal/domain"
)

func newHistoryCmd() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "history [keywords...]",
		Aliases: []string{"ls"},
		Short:   "Search saved completions",
		Long:    "Lists saved completions, newest first. Every keyword must appear in the prompt or the completion (case sensitive).",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := setup()
			if err != nil {
				return err
			}

			return container.Invoke(func(history *domain.HistoryService) error {
				records := history.Search(cmd.Context(), strings.Join(args, " "))
				if limit > 0 && len(records) > limit {
					records = records[:limit]
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(records)
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, record := range records {
					fmt.Fprintf(w, "%s\t%s\n", record.ID, domain.Summary(record))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print full records as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "show at most this many records")

	return cmd
}
