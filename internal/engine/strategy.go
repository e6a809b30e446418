package engine

import "github.com/piwi3910/OffcutReuse/internal/model"

// Classify maps efficiency metrics to a strategy label. Rows are checked top
// to bottom and the first match wins.
func Classify(m model.EfficiencyMetrics) model.Strategy {
	switch {
	case m.MaterialEfficiency > 0.7 && m.LeftoverUtilizationRate > 0.8:
		return model.StrategyHighEfficiency
	case m.MaterialEfficiency > 0.5:
		return model.StrategyModerate
	case m.LeftoverUtilizationRate > 0.3:
		return model.StrategyBasic
	default:
		return model.StrategyNewSheets
	}
}
