package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/OffcutReuse/internal/engine"
	"github.com/piwi3910/OffcutReuse/internal/model"
)

// scenarioRecord is one entry of a scenario set file. Config holds only the
// settings that differ from the base configuration.
type scenarioRecord struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config,omitempty"`
}

// SaveScenarios writes a scenario set to a JSON file.
func SaveScenarios(path string, scenarios []engine.ComparisonScenario) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	records := make([]scenarioRecord, 0, len(scenarios))
	for _, s := range scenarios {
		cfg, err := json.Marshal(s.Config)
		if err != nil {
			return err
		}
		records = append(records, scenarioRecord{Name: s.Name, Config: cfg})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadScenarios reads a scenario set. Each scenario starts from base and
// overrides the settings it names. Returns an empty slice if the file does
// not exist.
func LoadScenarios(path string, base model.EngineConfig) ([]engine.ComparisonScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []engine.ComparisonScenario{}, nil
		}
		return nil, err
	}

	var records []scenarioRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios %q: %w", path, err)
	}

	scenarios := make([]engine.ComparisonScenario, 0, len(records))
	for i, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("scenario #%d has no name", i+1)
		}
		cfg := base
		cfg.MaterialCodes = append([]string(nil), base.MaterialCodes...)
		if len(r.Config) > 0 {
			if err := json.Unmarshal(r.Config, &cfg); err != nil {
				return nil, fmt.Errorf("scenario %q: %w", r.Name, err)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", r.Name, err)
		}
		scenarios = append(scenarios, engine.ComparisonScenario{Name: r.Name, Config: cfg})
	}
	return scenarios, nil
}
