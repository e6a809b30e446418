package engine

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// Evaluate computes the efficiency metrics of a run. Every ratio with an
// empty denominator resolves to 0.
func Evaluate(pieces []model.Piece, assignments []model.Assignment, predicted []model.PredictedOffcut) model.EfficiencyMetrics {
	m := model.EfficiencyMetrics{
		PiecesAssigned: len(assignments),
		TotalPieces:    len(pieces),
	}

	areas := make([]float64, len(pieces))
	byID := make(map[string]float64, len(pieces))
	for i, p := range pieces {
		areas[i] = pieceArea(p)
		byID[p.ID] = areas[i]
	}

	covered := make([]float64, len(assignments))
	utilization := make([]float64, len(assignments))
	for i, a := range assignments {
		covered[i] = byID[a.PieceID] * a.AreaUtilization
		utilization[i] = a.AreaUtilization
	}

	if total := floats.Sum(areas); total > 0 {
		m.MaterialEfficiency = floats.Sum(covered) / total
	}
	if len(pieces) > 0 {
		m.LeftoverUtilizationRate = float64(len(assignments)) / float64(len(pieces))
	}
	if len(predicted) > 0 {
		priorities := make([]float64, len(predicted))
		for i, p := range predicted {
			priorities[i] = p.ReusePriority
		}
		m.NewLeftoversQuality = stat.Mean(priorities, nil)
	}
	if len(utilization) > 0 {
		m.AssignmentEfficiency = stat.Mean(utilization, nil)
	}
	m.OverallScore = (m.MaterialEfficiency + m.NewLeftoversQuality + m.AssignmentEfficiency) / 3
	return m
}
