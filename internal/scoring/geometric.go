package scoring

import (
	"errors"
	"math"

	"github.com/piwi3910/OffcutReuse/internal/features"
	"github.com/piwi3910/OffcutReuse/internal/model"
)

// ErrShortVector is returned when a vector lacks the semantic prefix.
var ErrShortVector = errors.New("feature vector too short")

// GeometricScorer is a deterministic bounding-box heuristic. A piece that
// fits the offcut in either orientation scores at least FitFloor, rising
// towards 1 as the piece fills the offcut. A piece that does not fit scores
// MissCeiling scaled by how close the tighter dimension comes.
type GeometricScorer struct {
	FitFloor    float64
	MissCeiling float64
}

// NewGeometricScorer returns a GeometricScorer with the stock weights.
func NewGeometricScorer() GeometricScorer {
	return GeometricScorer{FitFloor: 0.6, MissCeiling: 0.4}
}

// Score implements Scorer. The piece is placed at the offcut origin and
// rotated 90 degrees only when the unrotated orientation does not fit.
func (g GeometricScorer) Score(offcut, piece []float64) (Score, error) {
	if len(offcut) < model.SemanticFeatureCount || len(piece) < model.SemanticFeatureCount {
		return Score{}, ErrShortVector
	}

	ow := offcut[features.IdxWidth] * features.LengthScale
	oh := offcut[features.IdxHeight] * features.LengthScale
	pw := piece[features.IdxWidth] * features.LengthScale
	ph := piece[features.IdxHeight] * features.LengthScale
	if ow <= 0 || oh <= 0 || pw <= 0 || ph <= 0 {
		return Score{}, nil
	}

	oa := offcut[features.IdxArea] * features.AreaScale
	if oa <= 0 {
		oa = ow * oh
	}
	pa := piece[features.IdxArea] * features.AreaScale
	if pa <= 0 {
		pa = pw * ph
	}

	normal := pw <= ow && ph <= oh
	rotated := ph <= ow && pw <= oh

	if !normal && !rotated {
		reach := math.Max(math.Min(ow/pw, oh/ph), math.Min(ow/ph, oh/pw))
		return Score{Compatibility: g.MissCeiling * math.Min(reach, 1)}, nil
	}

	fill := math.Min(1, pa/oa)
	sc := Score{
		Compatibility: g.FitFloor + (1-g.FitFloor)*fill,
		Efficiency:    fill,
	}
	if !normal {
		sc.Placement.Rotation = 90
	}
	return sc, nil
}
