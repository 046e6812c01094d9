// Package config loads clawtrack settings from a YAML file and CLAWTRACK_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/divijg19/clawtrack/internal/core"
	"github.com/divijg19/clawtrack/internal/logging"
)

const (
	envPrefix         = "CLAWTRACK_"
	maxConfigFileSize = 1024 * 1024

	// DefaultPageSize is the number of rows `list` prints.
	DefaultPageSize = 50
)

// Config holds user-configurable settings.
type Config struct {
	DBPath   string         `koanf:"db_path"`
	Editor   string         `koanf:"editor"`
	Log      logging.Config `koanf:"log"`
	Display  Display        `koanf:"display"`
	Defaults Defaults       `koanf:"defaults"`
}

// Display controls terminal output.
type Display struct {
	PageSize int `koanf:"page_size"`
}

// Defaults seeds application settings on first run.
type Defaults struct {
	StaleThresholdDays int `koanf:"stale_threshold_days"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log:      logging.DefaultConfig(),
		Display:  Display{PageSize: DefaultPageSize},
		Defaults: Defaults{StaleThresholdDays: core.DefaultStaleThresholdDays},
	}
}

// Path returns the location of the config file.
func Path() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "clawtrack", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config path: %w", err)
	}
	return filepath.Join(home, ".config", "clawtrack", "config.yaml"), nil
}

// sections are the nested config groups an environment key may address.
var sections = []string{"log", "display", "defaults"}

// envKey maps CLAWTRACK_LOG_LEVEL to log.level and CLAWTRACK_DB_PATH to db_path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// Load reads configuration with precedence env > file > defaults. An empty
// path selects Path(). A missing file is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), err
		}
		path = p
	}

	k := koanf.New(".")

	content, err := readFile(path)
	if err != nil {
		return Default(), err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Default(), fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Default(), fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Default(), fmt.Errorf("unmarshal config: %w", err)
	}
	return Normalize(cfg), nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return content, nil
}

// Save writes cfg as YAML to path, or to Path() when path is empty.
func Save(path string, cfg Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	cfg = Normalize(cfg)

	k := koanf.New(".")
	for key, val := range map[string]any{
		"db_path":                       cfg.DBPath,
		"editor":                        cfg.Editor,
		"log.level":                     cfg.Log.Level,
		"log.format":                    cfg.Log.Format,
		"display.page_size":             cfg.Display.PageSize,
		"defaults.stale_threshold_days": cfg.Defaults.StaleThresholdDays,
	} {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Normalize trims values and replaces invalid ones with defaults.
func Normalize(cfg Config) Config {
	def := Default()
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.Editor = strings.TrimSpace(cfg.Editor)

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil || cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		cfg.Log.Format = def.Log.Format
	}

	if cfg.Display.PageSize <= 0 {
		cfg.Display.PageSize = def.Display.PageSize
	}
	if cfg.Defaults.StaleThresholdDays <= 0 {
		cfg.Defaults.StaleThresholdDays = def.Defaults.StaleThresholdDays
	}
	return cfg
}
