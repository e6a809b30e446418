package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/scoring"
)

// ComparisonScenario defines a named configuration to compare.
type ComparisonScenario struct {
	Name   string
	Config model.EngineConfig
}

// ComparisonResult holds the run result and headline numbers for a single
// scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        model.Result
	Assigned      int
	Unassigned    int
	PredictedArea float64
	OverallScore  float64
	Strategy      model.Strategy
}

// CompareScenarios runs the engine once per scenario over the same order and
// inventory snapshot and returns the results in scenario order.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, scorer scoring.Scorer, order model.Order, inv model.Inventory, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		opt, err := New(scenario.Config, scorer, opts...)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		res := opt.Run(ctx, order, inv)

		var predicted float64
		for _, p := range res.PredictedOffcuts {
			predicted += p.RemainingArea
		}

		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Result:        res,
			Assigned:      len(res.Assignments),
			Unassigned:    len(res.Unassigned),
			PredictedArea: predicted,
			OverallScore:  res.Metrics.OverallScore,
			Strategy:      res.Strategy,
		})
	}

	return results, nil
}

// BuildDefaultScenarios derives what-if alternatives from the current
// configuration: a stricter and a looser compatibility threshold, and the
// opposite offcut sharing policy.
func BuildDefaultScenarios(base model.EngineConfig) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:   "Current Settings",
			Config: base,
		},
	}

	if strict := math.Min(base.CompatibilityThreshold+0.2, 0.95); strict > base.CompatibilityThreshold {
		cfg := base
		cfg.CompatibilityThreshold = strict
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Threshold %.2f (stricter)", strict),
			Config: cfg,
		})
	}

	if loose := math.Max(base.CompatibilityThreshold-0.2, 0); loose < base.CompatibilityThreshold {
		cfg := base
		cfg.CompatibilityThreshold = loose
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Threshold %.2f (looser)", loose),
			Config: cfg,
		})
	}

	shared := base
	shared.AllowOffcutSharing = !base.AllowOffcutSharing
	name := "Shared Offcuts"
	if !shared.AllowOffcutSharing {
		name = "One Piece Per Offcut"
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:   name,
		Config: shared,
	})

	return scenarios
}
