package model

import "time"

// Assignment binds one piece to the offcut it will be cut from.
type Assignment struct {
	PieceID         string  `json:"piece_id"`
	OffcutID        string  `json:"offcut_id"`
	X               float64 `json:"x"`        // Placement offset on the offcut (mm)
	Y               float64 `json:"y"`        // Placement offset on the offcut (mm)
	Rotation        float64 `json:"rotation"` // Degrees, normalised to [0, 360)
	Confidence      float64 `json:"confidence"`
	AreaUtilization float64 `json:"area_utilization"`
	Score           float64 `json:"score"` // Combined score that won the selection
}

// EfficiencyMetrics aggregates one run. All fractional fields lie in [0, 1].
type EfficiencyMetrics struct {
	MaterialEfficiency      float64 `json:"material_efficiency"`
	LeftoverUtilizationRate float64 `json:"leftover_utilization_rate"`
	NewLeftoversQuality     float64 `json:"new_leftovers_quality"`
	AssignmentEfficiency    float64 `json:"assignment_efficiency"`
	OverallScore            float64 `json:"overall_score"`
	PiecesAssigned          int     `json:"pieces_assigned"`
	TotalPieces             int     `json:"total_pieces"`
}

// Strategy is the discrete label derived from a run's efficiency metrics.
type Strategy string

const (
	StrategyHighEfficiency Strategy = "high_efficiency_leftover_optimization"
	StrategyModerate       Strategy = "moderate_leftover_optimization"
	StrategyBasic          Strategy = "basic_leftover_usage"
	StrategyNewSheets      Strategy = "new_sheets_required"
	StrategyFallback       Strategy = "fallback" // Only used on failed runs
)

// RunStatus tags a Result as a normal outcome or a structural failure.
type RunStatus string

const (
	StatusOK     RunStatus = "ok"
	StatusFailed RunStatus = "failed"
)

// EntityKind names the kind of input record an Exclusion refers to.
type EntityKind string

const (
	EntityPiece  EntityKind = "piece"
	EntityOffcut EntityKind = "offcut"
)

// Exclusion records an input entity that could not be normalised and was
// left out of the run.
type Exclusion struct {
	ID     string     `json:"id"`
	Kind   EntityKind `json:"kind"`
	Reason string     `json:"reason"`
}

// UsageUpdate reports the usage count an offcut should carry after the run.
type UsageUpdate struct {
	OffcutID   string `json:"offcut_id"`
	UsageCount int    `json:"usage_count"`
}

// Layout summarises where pieces went.
type Layout struct {
	TotalAreaUtilized float64  `json:"total_area_utilized"`
	OffcutsUsed       []string `json:"offcuts_used"`
	PiecesPlaced      []string `json:"pieces_placed"`
}

// Result is the outcome of one engine run. Callers always receive a
// well-formed Result; a structural failure is signalled by StatusFailed.
type Result struct {
	RunID            string            `json:"run_id"`
	Status           RunStatus         `json:"status"`
	Error            string            `json:"error,omitempty"`
	Assignments      []Assignment      `json:"assignments"`
	Unassigned       []string          `json:"unassigned"`
	Exclusions       []Exclusion       `json:"exclusions"`
	PredictedOffcuts []PredictedOffcut `json:"predicted_offcuts"`
	UsageUpdates     []UsageUpdate     `json:"usage_updates"`
	Metrics          EfficiencyMetrics `json:"metrics"`
	Strategy         Strategy          `json:"strategy"`
	Layout           Layout            `json:"layout"`
	Evaluations      int               `json:"evaluations"` // Scorer calls performed
	Duration         time.Duration     `json:"duration_ns"`
}

// OK reports whether the run completed without a structural failure.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// FailedResult returns the empty result structure used for run-level faults:
// zeroed metrics, no assignments, the fallback strategy and the error text.
func FailedResult(runID string, err error) Result {
	msg := "unknown failure"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		RunID:            runID,
		Status:           StatusFailed,
		Error:            msg,
		Assignments:      []Assignment{},
		Unassigned:       []string{},
		Exclusions:       []Exclusion{},
		PredictedOffcuts: []PredictedOffcut{},
		UsageUpdates:     []UsageUpdate{},
		Strategy:         StrategyFallback,
		Layout:           Layout{OffcutsUsed: []string{}, PiecesPlaced: []string{}},
	}
}
