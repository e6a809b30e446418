// Package project persists the engine configuration and the JSON snapshots
// (orders, offcut inventories, backups, scenario sets) the CLI works on.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// envPrefix is the environment variable prefix for every engine setting,
// e.g. OFFCUT_COMPATIBILITY_THRESHOLD.
const envPrefix = "OFFCUT"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.offcutopt/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".offcutopt")
}

// DefaultConfigPath returns the default path for the engine config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Every key needs a default so AutomaticEnv can resolve it on Unmarshal.
	d := model.DefaultEngineConfig()
	v.SetDefault("compatibility_threshold", d.CompatibilityThreshold)
	v.SetDefault("feature_length", d.FeatureLength)
	v.SetDefault("min_useful_area", d.MinUsefulArea)
	v.SetDefault("material_codes", d.MaterialCodes)
	v.SetDefault("thickness_tolerance", d.ThicknessTolerance)
	v.SetDefault("suitability_cutoff", d.SuitabilityCutoff)
	v.SetDefault("recency_half_life_days", d.RecencyHalfLifeDays)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("allow_offcut_sharing", d.AllowOffcutSharing)
	v.SetDefault("rectangular_remainders", d.RectangularRemainders)
	return v
}

// LoadConfig reads the engine configuration from path (YAML or JSON, chosen
// by extension), applies OFFCUT_* environment overrides and validates the
// result. A missing file or an empty path yields the defaults plus any
// environment overrides.
func LoadConfig(path string) (model.EngineConfig, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
			case "json", "yaml", "yml", "toml":
				v.SetConfigType(ext)
			}
			if err := v.ReadInConfig(); err != nil {
				return model.EngineConfig{}, fmt.Errorf("config: failed to read %q: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return model.EngineConfig{}, fmt.Errorf("config: %w", err)
		}
	}

	var cfg model.EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return model.EngineConfig{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return model.EngineConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SaveConfig persists the configuration to path as JSON.
// It creates any missing parent directories automatically.
func SaveConfig(path string, cfg model.EngineConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
