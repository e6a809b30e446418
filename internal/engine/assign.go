package engine

import (
	"context"
	"math"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/scoring"
)

// Combined score weights.
const (
	weightCompatibility = 0.6
	weightEfficiency    = 0.3
	weightPriority      = 0.1
)

type pieceEntry struct {
	piece model.Piece
	vec   []float64
}

type offcutEntry struct {
	offcut model.Offcut
	vec    []float64
}

type pairResult struct {
	score scoring.Score
	err   error
}

type assignOutcome struct {
	assignments []model.Assignment
	unassigned  []string
	evaluations int
}

// CombinedScore ranks eligible offcuts for a piece.
func CombinedScore(compatibility, efficiency, priority float64) float64 {
	return weightCompatibility*compatibility + weightEfficiency*efficiency + weightPriority*priority
}

// assign greedily matches pieces to offcuts, largest piece first. For each
// piece every open offcut is scored concurrently; the offcut with the highest
// combined score among those whose compatibility exceeds the threshold wins.
// Ties keep the offcut that comes first in the inventory.
//
// Without sharing, a consumed offcut leaves the pool for the rest of the run.
// With sharing, an offcut stays open while its remaining area covers the
// next piece.
func (o *Optimizer) assign(ctx context.Context, log *zap.Logger, pieces []pieceEntry, offcuts []offcutEntry) (assignOutcome, error) {
	out := assignOutcome{assignments: []model.Assignment{}, unassigned: []string{}}

	ordered := make([]pieceEntry, len(pieces))
	copy(ordered, pieces)
	sort.SliceStable(ordered, func(i, j int) bool {
		return pieceArea(ordered[i].piece) > pieceArea(ordered[j].piece)
	})

	consumed := make([]bool, len(offcuts))
	remaining := make([]float64, len(offcuts))
	for i, c := range offcuts {
		remaining[i] = clean(c.offcut.Area)
	}

	workers := o.Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	for _, p := range ordered {
		if err := ctx.Err(); err != nil {
			return assignOutcome{}, err
		}

		area := pieceArea(p.piece)
		open := make([]int, 0, len(offcuts))
		for i := range offcuts {
			if consumed[i] {
				continue
			}
			if o.Config.AllowOffcutSharing && remaining[i] < area {
				continue
			}
			open = append(open, i)
		}

		results := make([]pairResult, len(open))
		var g errgroup.Group
		g.SetLimit(workers)
		for k, idx := range open {
			k, idx := k, idx
			g.Go(func() error {
				sc, err := scoring.Safe(o.scorer, offcuts[idx].vec, p.vec)
				results[k] = pairResult{score: sc, err: err}
				return nil
			})
		}
		_ = g.Wait()
		out.evaluations += len(open)

		best := -1
		bestScore := math.Inf(-1)
		var bestPair scoring.Score
		for k, idx := range open {
			r := results[k]
			if r.err != nil {
				o.metrics.ScorerFault()
				log.Warn("scorer fault, pair treated as incompatible",
					zap.String("piece_id", p.piece.ID),
					zap.String("offcut_id", offcuts[idx].offcut.ID),
					zap.Error(r.err),
				)
				continue
			}
			if r.score.Compatibility <= o.Config.CompatibilityThreshold {
				continue
			}
			combined := CombinedScore(r.score.Compatibility, r.score.Efficiency, clean(offcuts[idx].offcut.Priority))
			if combined > bestScore {
				best = idx
				bestScore = combined
				bestPair = r.score
			}
		}

		if best < 0 {
			log.Debug("no compatible offcut", zap.String("piece_id", p.piece.ID), zap.Int("candidates", len(open)))
			out.unassigned = append(out.unassigned, p.piece.ID)
			continue
		}

		out.assignments = append(out.assignments, model.Assignment{
			PieceID:         p.piece.ID,
			OffcutID:        offcuts[best].offcut.ID,
			X:               bestPair.Placement.DX,
			Y:               bestPair.Placement.DY,
			Rotation:        scoring.NormalizeRotation(bestPair.Placement.Rotation),
			Confidence:      bestPair.Compatibility,
			AreaUtilization: bestPair.Efficiency,
			Score:           bestScore,
		})
		if o.Config.AllowOffcutSharing {
			remaining[best] = math.Max(0, remaining[best]-area)
		} else {
			consumed[best] = true
		}
		log.Debug("piece assigned",
			zap.String("piece_id", p.piece.ID),
			zap.String("offcut_id", offcuts[best].offcut.ID),
			zap.Float64("score", bestScore),
		)
	}
	return out, nil
}

// pieceArea returns the piece area with invalid values treated as 0.
func pieceArea(p model.Piece) float64 {
	return clean(p.Area)
}

func clean(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}
