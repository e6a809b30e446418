package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by EngineConfig.Validate.
var ErrInvalidConfig = errors.New("invalid engine config")

// SemanticFeatureCount is the number of meaningful leading entries in every
// feature vector before the material slice begins.
const SemanticFeatureCount = 6

// EngineConfig holds every tunable of the reuse engine. It is supplied once,
// at engine construction.
type EngineConfig struct {
	CompatibilityThreshold float64  `json:"compatibility_threshold" yaml:"compatibility_threshold" mapstructure:"compatibility_threshold"`
	FeatureLength          int      `json:"feature_length" yaml:"feature_length" mapstructure:"feature_length"`
	MinUsefulArea          float64  `json:"min_useful_area" yaml:"min_useful_area" mapstructure:"min_useful_area"` // sq mm
	MaterialCodes          []string `json:"material_codes" yaml:"material_codes" mapstructure:"material_codes"`   // One-hot vocabulary
	ThicknessTolerance     float64  `json:"thickness_tolerance" yaml:"thickness_tolerance" mapstructure:"thickness_tolerance"`
	SuitabilityCutoff      float64  `json:"suitability_cutoff" yaml:"suitability_cutoff" mapstructure:"suitability_cutoff"`
	RecencyHalfLifeDays    float64  `json:"recency_half_life_days" yaml:"recency_half_life_days" mapstructure:"recency_half_life_days"`
	Workers                int      `json:"workers" yaml:"workers" mapstructure:"workers"` // 0 = GOMAXPROCS

	// AllowOffcutSharing lets several pieces share one offcut while its
	// remaining area suffices. Off by default: one piece per offcut per run.
	AllowOffcutSharing bool `json:"allow_offcut_sharing" yaml:"allow_offcut_sharing" mapstructure:"allow_offcut_sharing"`

	// RectangularRemainders approximates predicted remnants as rectangles
	// instead of classifying them as irregular.
	RectangularRemainders bool `json:"rectangular_remainders" yaml:"rectangular_remainders" mapstructure:"rectangular_remainders"`
}

// DefaultEngineConfig returns the stock configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CompatibilityThreshold: 0.5,
		FeatureLength:          256,
		MinUsefulArea:          5000,
		MaterialCodes:          []string{"MDF", "Chipboard", "Plywood"},
		ThicknessTolerance:     0.1,
		SuitabilityCutoff:      0.3,
		RecencyHalfLifeDays:    30,
		Workers:                0,
		AllowOffcutSharing:     false,
		RectangularRemainders:  false,
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c EngineConfig) Validate() error {
	if c.CompatibilityThreshold < 0 || c.CompatibilityThreshold >= 1 {
		return fmt.Errorf("%w: compatibility threshold %.3f outside [0, 1)", ErrInvalidConfig, c.CompatibilityThreshold)
	}
	if c.FeatureLength <= 0 {
		return fmt.Errorf("%w: feature length must be positive, got %d", ErrInvalidConfig, c.FeatureLength)
	}
	if need := SemanticFeatureCount + len(c.MaterialCodes); c.FeatureLength < need {
		return fmt.Errorf("%w: feature length %d cannot hold %d semantic entries", ErrInvalidConfig, c.FeatureLength, need)
	}
	if c.MinUsefulArea < 0 {
		return fmt.Errorf("%w: min useful area must not be negative", ErrInvalidConfig)
	}
	if c.ThicknessTolerance < 0 {
		return fmt.Errorf("%w: thickness tolerance must not be negative", ErrInvalidConfig)
	}
	if c.SuitabilityCutoff < 0 || c.SuitabilityCutoff > 1 {
		return fmt.Errorf("%w: suitability cutoff %.3f outside [0, 1]", ErrInvalidConfig, c.SuitabilityCutoff)
	}
	if c.RecencyHalfLifeDays <= 0 {
		return fmt.Errorf("%w: recency half-life must be positive", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.MaterialCodes))
	for _, code := range c.MaterialCodes {
		if code == "" {
			return fmt.Errorf("%w: empty material code", ErrInvalidConfig)
		}
		if seen[code] {
			return fmt.Errorf("%w: duplicate material code %q", ErrInvalidConfig, code)
		}
		seen[code] = true
	}
	return nil
}
