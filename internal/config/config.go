// Package config loads and validates the autosync-voice configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Storage StorageConfig           `mapstructure:"storage" yaml:"storage"`
	Devices map[string]DeviceConfig `mapstructure:"devices" yaml:"devices"`
	Sync    SyncConfig              `mapstructure:"sync" yaml:"sync"`
	Watch   WatchConfig             `mapstructure:"watch" yaml:"watch"`
}

// StorageConfig names the directory trees the pipeline operates on.
type StorageConfig struct {
	Raw          string `mapstructure:"raw" yaml:"raw"`
	Meta         string `mapstructure:"meta" yaml:"meta"`
	Processed    string `mapstructure:"processed" yaml:"processed"`
	ExportedList string `mapstructure:"exported_list" yaml:"exported_list"`
	EnhancedList string `mapstructure:"enhanced_list" yaml:"enhanced_list"`
}

// DeviceConfig describes one recorder to import from.
type DeviceConfig struct {
	Glob          string            `mapstructure:"glob" yaml:"glob"`
	PreferChannel string            `mapstructure:"prefer_channel" yaml:"prefer_channel"`
	Drive         map[string]string `mapstructure:"drive" yaml:"drive"`
}

type SyncConfig struct {
	ToleranceMinutes int `mapstructure:"tolerance_minutes" yaml:"tolerance_minutes"`
	WindowSeconds    int `mapstructure:"window_seconds" yaml:"window_seconds"`
}

type WatchConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" yaml:"interval_seconds"`
}

// Load reads the config file, applies defaults and validates the result.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("AUTOSYNC_VOICE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	cfg.Storage.Raw = expandPath(cfg.Storage.Raw)
	cfg.Storage.Meta = expandPath(cfg.Storage.Meta)
	cfg.Storage.Processed = expandPath(cfg.Storage.Processed)
	cfg.Storage.ExportedList = expandPath(cfg.Storage.ExportedList)
	cfg.Storage.EnhancedList = expandPath(cfg.Storage.EnhancedList)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Meta == "" && cfg.Storage.Raw != "" {
		cfg.Storage.Meta = filepath.Join(filepath.Dir(cfg.Storage.Raw), "meta")
	}
	if cfg.Storage.ExportedList == "" && cfg.Storage.Meta != "" {
		cfg.Storage.ExportedList = filepath.Join(cfg.Storage.Meta, "exported.list")
	}
	if cfg.Storage.EnhancedList == "" && cfg.Storage.Meta != "" {
		cfg.Storage.EnhancedList = filepath.Join(cfg.Storage.Meta, "enhanced.list")
	}
	if cfg.Sync.ToleranceMinutes == 0 {
		cfg.Sync.ToleranceMinutes = 1
	}
	if cfg.Sync.WindowSeconds == 0 {
		cfg.Sync.WindowSeconds = 30
	}
	if cfg.Watch.IntervalSeconds == 0 {
		cfg.Watch.IntervalSeconds = 60
	}
}

func validate(cfg *Config) error {
	if cfg.Storage.Raw == "" {
		return fmt.Errorf("storage.raw is required")
	}
	if cfg.Storage.Processed == "" {
		return fmt.Errorf("storage.processed is required")
	}
	if len(cfg.Devices) == 0 {
		return fmt.Errorf("at least one device must be configured")
	}
	for name, dev := range cfg.Devices {
		if err := validateDevice(name, dev); err != nil {
			return err
		}
	}
	if cfg.Sync.ToleranceMinutes < 0 {
		return fmt.Errorf("sync.tolerance_minutes must be >= 0, got %d", cfg.Sync.ToleranceMinutes)
	}
	if cfg.Sync.WindowSeconds <= 0 {
		return fmt.Errorf("sync.window_seconds must be > 0, got %d", cfg.Sync.WindowSeconds)
	}
	return nil
}

func validateDevice(name string, dev DeviceConfig) error {
	if dev.Glob == "" {
		return fmt.Errorf("device '%s': 'glob' is required", name)
	}
	if !strings.ContainsAny(dev.Glob, "*?") {
		return fmt.Errorf("device '%s': glob '%s' must contain a wildcard", name, dev.Glob)
	}
	switch dev.PreferChannel {
	case "", "left", "right", "no_preference":
	default:
		return fmt.Errorf("device '%s': prefer_channel must be 'left', 'right' or 'no_preference', got '%s'",
			name, dev.PreferChannel)
	}
	if len(dev.Drive) == 0 {
		return fmt.Errorf("device '%s': 'drive' match criteria are required", name)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
