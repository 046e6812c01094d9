package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db",
		Short: "Show the database file and the documents stored in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.leads.Flush(ctx); err != nil {
					return fmt.Errorf("db: %w", err)
				}
				docs, err := a.gateway.Documents(ctx)
				if err != nil {
					return fmt.Errorf("db: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n\n", a.dbPath)
				if len(docs) == 0 {
					fmt.Fprintln(out, "No stored documents.")
					return nil
				}
				fmt.Fprintf(out, "%-28s %10s\n", "KEY", "SIZE")
				for _, d := range docs {
					fmt.Fprintf(out, "%-28s %10s\n", d.Key, humanize.Bytes(uint64(d.Size)))
				}
				return nil
			})
		},
	}
}
