package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divijg19/clawtrack/internal/core"
)

func addPresetCommands(root *cobra.Command) {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved filter presets",
	}
	presetCmd.AddCommand(newPresetSaveCmd(), newPresetListCmd(), newPresetDeleteCmd())
	root.AddCommand(presetCmd, newSettingsCmd())
}

func newPresetSaveCmd() *cobra.Command {
	var (
		filter core.Filter
		stage  string
	)
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the given filter flags under a name (replaces a preset with the same name)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("preset save: name is empty")
			}
			if stage != "" {
				s, ok := core.ParseStage(stage)
				if !ok {
					return fmt.Errorf("preset save: unknown stage %q", stage)
				}
				filter.Stage = s
			}
			if filter.Normalize().IsEmpty() {
				return fmt.Errorf("preset save: give at least one filter flag")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p := core.FilterPreset{Name: name, Filters: filter}
				if existing, ok := a.leads.FindPreset(name); ok {
					p.ID = existing.ID
				}
				saved := a.leads.SavePreset(p)
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %q (%s)\n", saved.Name, shortID(saved.ID))
				return nil
			})
		},
	}
	bindFilterFlags(cmd, &filter)
	cmd.Flags().StringVar(&stage, "stage", "", "pipeline stage key or label")
	return cmd
}

func newPresetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved presets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				presets := a.leads.Presets()
				if len(presets) == 0 {
					fmt.Fprintln(out, "No presets saved.")
					return nil
				}
				fmt.Fprintf(out, "%-8s  %-20s %s\n", "ID", "NAME", "FILTERS")
				for _, p := range presets {
					fmt.Fprintf(out, "%-8s  %-20s %s\n", shortID(p.ID), truncate(p.Name, 20), describeFilter(p.Filters))
				}
				return nil
			})
		},
	}
}

func newPresetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a preset",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, ok := a.leads.FindPreset(ref)
				if !ok {
					return fmt.Errorf("preset delete: %q not found", ref)
				}
				a.leads.DeletePreset(p.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %q\n", p.Name)
				return nil
			})
		},
	}
}

// describeFilter renders the non-empty predicates of f as key=value pairs.
func describeFilter(f core.Filter) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("search", f.Search)
	add("stage", string(f.Stage))
	add("industry", f.Industry)
	add("city", f.City)
	add("source", f.LeadSource)
	add("assigned", f.AssignedTo)
	add("status", f.Status)
	add("tags", strings.Join(f.Tags, ","))
	add("from", f.DateFrom)
	add("to", f.DateTo)
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

func newSettingsCmd() *cobra.Command {
	var staleDays int
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change pipeline settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s := a.leads.Settings()
				if cmd.Flags().Changed("stale-days") {
					if staleDays <= 0 {
						return fmt.Errorf("settings: --stale-days must be positive")
					}
					s.StaleThresholdDays = staleDays
					s = a.leads.SetSettings(s)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stale threshold: %d days\n", s.StaleThresholdDays)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&staleDays, "stale-days", 0, "days in one stage before a lead counts as stale")
	return cmd
}
