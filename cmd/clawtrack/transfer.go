package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/divijg19/clawtrack/internal/core"
	"github.com/divijg19/clawtrack/internal/csvio"
)

func addTransferCommands(root *cobra.Command) {
	root.AddCommand(newImportCmd(), newExportCmd())
}

func newImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append leads from a CSV file",
		Long: `Append leads from a CSV file. Headers are matched loosely
("Company", "company_name" and "Business" all map to the company name).
Rows without a company or contact name are skipped. Use "-" for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				defer f.Close()
				in = f
			}
			drafts, err := csvio.Read(in)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "%d lead(s) would be imported\n", len(drafts))
				return nil
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				created := a.leads.Import(drafts, a.actor(ctx))
				fmt.Fprintf(out, "Imported %d lead(s)\n", len(created))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file and report without saving")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		filter core.Filter
		stage  string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write leads matching a filter as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stage != "" {
				s, ok := core.ParseStage(stage)
				if !ok {
					return fmt.Errorf("export: unknown stage %q", stage)
				}
				filter.Stage = s
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				leads := a.leads.Filter(filter)
				if out == "" {
					return csvio.Write(cmd.OutOrStdout(), leads)
				}
				if out == "." {
					out = fmt.Sprintf("clawtrack-leads-%s.csv", time.Now().Format(core.DateLayout))
				}
				if err := writeFileAtomic(out, func(w io.Writer) error { return csvio.Write(w, leads) }); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d lead(s) to %s\n", len(leads), out)
				return nil
			})
		},
	}
	bindFilterFlags(cmd, &filter)
	cmd.Flags().StringVar(&stage, "stage", "", "pipeline stage key or label")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file ("." for a dated name, default stdout)`)
	return cmd
}

// writeFileAtomic writes through a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".clawtrack-export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
