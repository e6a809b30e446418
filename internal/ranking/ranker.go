// Package ranking produces the advisory suitability ranking of offcuts for an
// order, together with a coverage estimate and a cutting plan hint. None of
// it feeds the assignment engine.
package ranking

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// Suitability weights.
const (
	weightGeometric = 0.6
	weightRecency   = 0.2
	weightUsage     = 0.2

	// partialCoverPenalty scales the geometric score of an offcut smaller
	// than the order.
	partialCoverPenalty = 0.7

	undatedRecency = 0.5
)

// Plan thresholds (sq mm).
const (
	largePieceArea  = 100000
	smallPieceArea  = 10000
	largeOffcutArea = 50000

	// newSheetsCoverage is the coverage ratio below which fresh sheets are
	// still needed.
	newSheetsCoverage = 0.8
)

// PlanStrategy is the primary cutting approach suggested for an order.
type PlanStrategy string

const (
	PlanMixed             PlanStrategy = "mixed"
	PlanNewSheets         PlanStrategy = "new_sheets"
	PlanLeftoverEfficient PlanStrategy = "leftover_efficient"
)

// Entry is one ranked offcut.
type Entry struct {
	OffcutID              string  `json:"offcut_id"`
	SuitabilityScore      float64 `json:"suitability_score"`
	GeometricScore        float64 `json:"geometric_score"`
	RecencyScore          float64 `json:"recency_score"`
	UsageScore            float64 `json:"usage_score"`
	OptimizationPotential float64 `json:"optimization_potential"`
	Area                  float64 `json:"area"`
	MaterialCode          string  `json:"material_code"`
}

// Coverage estimates how much of the order the matching offcuts could cover.
type Coverage struct {
	TotalAvailableArea float64 `json:"total_available_area"`
	SuitableCount      int     `json:"suitable_count"`
	CoverageRatio      float64 `json:"coverage_ratio"`
	SavingsPercent     float64 `json:"savings_percent"`
	NewSheetsRequired  bool    `json:"new_sheets_required"`
}

// Plan is the suggested cutting approach.
type Plan struct {
	PrimaryStrategy    PlanStrategy `json:"primary_strategy"`
	LeftoverFirst      bool         `json:"leftover_first"`
	LargePiecesPresent bool         `json:"large_pieces_present"`
	SmallPiecesPresent bool         `json:"small_pieces_present"`
}

// Analysis bundles the ranking with the coverage estimate and plan.
type Analysis struct {
	Entries    []Entry  `json:"entries"`
	Candidates int      `json:"candidates"`
	Coverage   Coverage `json:"coverage"`
	Plan       Plan     `json:"plan"`
}

// Ranker scores offcuts against an order.
type Ranker struct {
	Config model.EngineConfig
	now    func() time.Time
}

// Option customises a Ranker.
type Option func(*Ranker)

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRanker validates cfg and returns a Ranker.
func NewRanker(cfg model.EngineConfig, opts ...Option) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Ranker{Config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rank returns the offcuts matching the order's material and thickness whose
// suitability exceeds the configured cutoff, best first. Offcuts of another
// material are dropped rather than scored.
func (r *Ranker) Rank(order model.Order, offcuts []model.Offcut) []Entry {
	return r.rank(order, r.candidates(order, offcuts))
}

// Analyze ranks the offcuts and adds the coverage estimate and plan.
func (r *Ranker) Analyze(order model.Order, offcuts []model.Offcut) Analysis {
	candidates := r.candidates(order, offcuts)
	return Analysis{
		Entries:    r.rank(order, candidates),
		Candidates: len(candidates),
		Coverage:   r.coverage(order, candidates),
		Plan:       plan(order, candidates),
	}
}

func (r *Ranker) candidates(order model.Order, offcuts []model.Offcut) []model.Offcut {
	out := make([]model.Offcut, 0, len(offcuts))
	for _, o := range offcuts {
		if o.MatchesMaterial(order.MaterialCode, order.Thickness, r.Config.ThicknessTolerance) {
			out = append(out, o)
		}
	}
	return out
}

func (r *Ranker) rank(order model.Order, candidates []model.Offcut) []Entry {
	total := order.TotalArea()
	now := r.now()

	entries := []Entry{}
	for _, o := range candidates {
		e := Entry{
			OffcutID:              o.ID,
			GeometricScore:        GeometricScore(nonNeg(o.Area), total),
			RecencyScore:          RecencyScore(o.CreatedAt, now, r.Config.RecencyHalfLifeDays),
			UsageScore:            UsageScore(o.UsageCount),
			OptimizationPotential: OptimizationPotential(o, total),
			Area:                  o.Area,
			MaterialCode:          o.MaterialCode,
		}
		e.SuitabilityScore = weightGeometric*e.GeometricScore + weightRecency*e.RecencyScore + weightUsage*e.UsageScore
		if e.SuitabilityScore > r.Config.SuitabilityCutoff {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SuitabilityScore > entries[j].SuitabilityScore
	})
	return entries
}

// GeometricScore is 1 when the offcut alone covers the order's total piece
// area and a penalised coverage ratio otherwise.
func GeometricScore(offcutArea, totalPieceArea float64) float64 {
	if offcutArea >= totalPieceArea {
		return 1.0
	}
	return offcutArea / totalPieceArea * partialCoverPenalty
}

// RecencyScore decays exponentially with the offcut's age in whole days.
// Offcuts dated in the future count as new; undated offcuts score 0.5.
func RecencyScore(created, now time.Time, halfLifeDays float64) float64 {
	if created.IsZero() || halfLifeDays <= 0 {
		return undatedRecency
	}
	days := math.Floor(now.Sub(created).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / halfLifeDays)
}

// UsageScore prefers offcuts that have been reused less often.
func UsageScore(usage int) float64 {
	if usage < 0 {
		usage = 0
	}
	return 1 / (1 + float64(usage))
}

// OptimizationPotential combines the area ratio with a squareness factor,
// capped at 1.
func OptimizationPotential(o model.Offcut, totalPieceArea float64) float64 {
	if totalPieceArea <= 0 {
		return 0
	}
	ratio := nonNeg(o.Area) / totalPieceArea
	form := 1 - math.Abs(1-o.AspectRatio())*0.3
	return math.Max(0, math.Min(ratio*form, 1))
}

func (r *Ranker) coverage(order model.Order, candidates []model.Offcut) Coverage {
	var c Coverage
	if len(candidates) == 0 {
		c.NewSheetsRequired = true
		return c
	}

	maxW, maxH := maxPieceDims(order)
	areas := make([]float64, len(candidates))
	var suitable []float64
	for i, o := range candidates {
		areas[i] = nonNeg(o.Area)
		if len(order.Pieces) > 0 && spatialFit(o, maxW, maxH) > r.Config.CompatibilityThreshold {
			suitable = append(suitable, areas[i])
		}
	}

	c.TotalAvailableArea = floats.Sum(areas)
	c.SuitableCount = len(suitable)
	if total := order.TotalArea(); total > 0 {
		c.CoverageRatio = floats.Sum(suitable) / total
	}
	c.SavingsPercent = c.CoverageRatio * 100
	c.NewSheetsRequired = c.CoverageRatio < newSheetsCoverage
	return c
}

// spatialFit is how well the offcut frames the order's largest piece
// dimensions, capped at 1. A zero piece dimension does not constrain the fit.
func spatialFit(o model.Offcut, maxW, maxH float64) float64 {
	fitW, fitH := 1.0, 1.0
	if maxW > 0 {
		fitW = nonNeg(o.Width) / maxW
	}
	if maxH > 0 {
		fitH = nonNeg(o.Height) / maxH
	}
	return math.Min(math.Min(fitW, fitH), 1)
}

func plan(order model.Order, candidates []model.Offcut) Plan {
	var p Plan
	for _, pc := range order.Pieces {
		switch a := nonNeg(pc.Area); {
		case a > largePieceArea:
			p.LargePiecesPresent = true
		case a < smallPieceArea:
			p.SmallPiecesPresent = true
		}
	}

	var large, small int
	for _, o := range candidates {
		if nonNeg(o.Area) > largeOffcutArea {
			large++
		} else {
			small++
		}
	}
	p.LeftoverFirst = large > 0

	switch {
	case p.LargePiecesPresent && large == 0:
		p.PrimaryStrategy = PlanNewSheets
	case p.SmallPiecesPresent && small > 3:
		p.PrimaryStrategy = PlanLeftoverEfficient
	default:
		p.PrimaryStrategy = PlanMixed
	}
	return p
}

func maxPieceDims(order model.Order) (w, h float64) {
	for _, p := range order.Pieces {
		w = math.Max(w, nonNeg(p.Width))
		h = math.Max(h, nonNeg(p.Height))
	}
	return w, h
}

func nonNeg(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}
