package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/divijg19/clawtrack/internal/config"
	"github.com/divijg19/clawtrack/internal/logging"
)

var (
	configEditor    bool
	configLogLevel  string
	configLogFormat string
	configPageSize  int
	configStaleDays int
	configDBPath    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration file",
	Long: `Show the effective configuration. With flags, update the
configuration file and print the result.

Examples:
  clawtrack config
  clawtrack config --editor
  clawtrack config --log-level debug --page-size 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		out := cmd.OutOrStdout()
		flags := cmd.Flags()
		changed := configEditor
		for _, name := range []string{"log-level", "log-format", "page-size", "stale-days", "db-path"} {
			changed = changed || flags.Changed(name)
		}
		if !changed {
			printConfig(out, cfg)
			return nil
		}

		if configEditor {
			if cfg, err = chooseEditor(cmd, cfg); err != nil {
				return fmt.Errorf("config: %w", err)
			}
		}
		if flags.Changed("log-level") {
			if _, err := logging.ParseLevel(configLogLevel); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg.Log.Level = configLogLevel
		}
		if flags.Changed("log-format") {
			if configLogFormat != "json" && configLogFormat != "console" {
				return fmt.Errorf("config: log format must be json or console")
			}
			cfg.Log.Format = configLogFormat
		}
		if flags.Changed("page-size") {
			if configPageSize <= 0 {
				return fmt.Errorf("config: page size must be positive")
			}
			cfg.Display.PageSize = configPageSize
		}
		if flags.Changed("stale-days") {
			if configStaleDays <= 0 {
				return fmt.Errorf("config: stale days must be positive")
			}
			cfg.Defaults.StaleThresholdDays = configStaleDays
		}
		if flags.Changed("db-path") {
			cfg.DBPath = configDBPath
		}

		if err := config.Save(configPath, cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		printConfig(out, config.Normalize(cfg))
		return nil
	},
}

func init() {
	f := configCmd.Flags()
	f.BoolVar(&configEditor, "editor", false, "pick an editor from the ones found on PATH")
	f.StringVar(&configLogLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&configLogFormat, "log-format", "", "console or json")
	f.IntVar(&configPageSize, "page-size", 0, "rows printed by list")
	f.IntVar(&configStaleDays, "stale-days", 0, "stale threshold seeded into a new database")
	f.StringVar(&configDBPath, "db-path", "", "database file")
}

// printConfig renders cfg in the order the file stores it.
func printConfig(w io.Writer, cfg config.Config) {
	path := configPath
	if path == "" {
		path, _ = config.Path()
	}
	if path != "" {
		fmt.Fprintf(w, "Config file: %s\n\n", path)
	}
	fmt.Fprintln(w, "Current configuration")
	fmt.Fprintf(w, "DB path:     %s\n", valueOr(cfg.DBPath, "(default)"))
	fmt.Fprintf(w, "Editor:      %s\n", valueOr(cfg.Editor, "(unset)"))
	fmt.Fprintf(w, "Log:         %s, %s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Fprintf(w, "Page size:   %d\n", cfg.Display.PageSize)
	fmt.Fprintf(w, "Stale after: %d days\n", cfg.Defaults.StaleThresholdDays)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// chooseEditor lists the editors on PATH and stores the one picked by index.
func chooseEditor(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	editors := availableEditors()
	if len(editors) == 0 {
		return cfg, fmt.Errorf("no editors found on PATH")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available editors:")
	for idx, editor := range editors {
		fmt.Fprintf(out, "[%d] %s\n", idx, editor)
	}

	line, err := readLine(cmd, "Select editor by index: ")
	if err != nil {
		return cfg, err
	}
	if line == "" {
		return cfg, fmt.Errorf("no selection provided")
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 0 || idx >= len(editors) {
		return cfg, fmt.Errorf("invalid editor index %q", line)
	}
	cfg.Editor = editors[idx]
	return cfg, nil
}
