// Package features turns piece and offcut records into fixed-length numeric
// vectors for the compatibility scorer.
//
// Every vector shares the same leading layout: normalised area, width and
// height. Piece vectors continue with perimeter, aspect ratio and complexity;
// offcut vectors with usage, priority, thickness and a one-hot material slice.
// The remaining entries are zero padding.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// Normalisation divisors.
const (
	AreaScale      = 100000.0
	LengthScale    = 1000.0
	ThicknessScale = 20.0
	UsageScale     = 10.0
)

// Shared vector positions.
const (
	IdxArea   = 0
	IdxWidth  = 1
	IdxHeight = 2
)

// Piece vector positions.
const (
	IdxPerimeter  = 3
	IdxAspect     = 4
	IdxComplexity = 5
)

// Offcut vector positions. The material one-hot slice starts at IdxMaterial.
const (
	IdxUsage     = 3
	IdxPriority  = 4
	IdxThickness = 5
	IdxMaterial  = model.SemanticFeatureCount
)

var (
	// ErrMissingID is returned for records that cannot be tracked through a run.
	ErrMissingID = errors.New("record has no id")
)

// Normalizer builds feature vectors. It holds no mutable state and is safe
// for concurrent use.
type Normalizer struct {
	length    int
	materials map[string]int
}

// NewNormalizer returns a Normalizer for the given vector length and material
// vocabulary. The config is expected to have been validated.
func NewNormalizer(cfg model.EngineConfig) *Normalizer {
	materials := make(map[string]int, len(cfg.MaterialCodes))
	for i, code := range cfg.MaterialCodes {
		materials[code] = i
	}
	return &Normalizer{length: cfg.FeatureLength, materials: materials}
}

// Piece returns the feature vector of a piece. Invalid numeric fields
// (NaN, infinite, negative) are treated as missing and become 0.
func (n *Normalizer) Piece(p model.Piece) ([]float64, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("piece: %w", ErrMissingID)
	}
	v := make([]float64, n.length)
	v[IdxArea] = clean(p.Area) / AreaScale
	v[IdxWidth] = clean(p.Width) / LengthScale
	v[IdxHeight] = clean(p.Height) / LengthScale
	v[IdxPerimeter] = clean(p.Perimeter) / LengthScale
	v[IdxAspect] = clean(p.AspectRatio)
	v[IdxComplexity] = clean(p.Complexity)
	return v, nil
}

// Offcut returns the feature vector of an offcut. Unknown material codes
// leave the material slice all zero.
func (n *Normalizer) Offcut(o model.Offcut) ([]float64, error) {
	if o.ID == "" {
		return nil, fmt.Errorf("offcut: %w", ErrMissingID)
	}
	v := make([]float64, n.length)
	v[IdxArea] = clean(o.Area) / AreaScale
	v[IdxWidth] = clean(o.Width) / LengthScale
	v[IdxHeight] = clean(o.Height) / LengthScale
	v[IdxUsage] = clean(float64(o.UsageCount)) / UsageScale
	v[IdxPriority] = clean(o.Priority)
	v[IdxThickness] = clean(o.Thickness) / ThicknessScale
	if i, ok := n.materials[o.MaterialCode]; ok {
		v[IdxMaterial+i] = 1.0
	}
	return v, nil
}

// clean maps values that cannot be meaningful measurements to 0.
func clean(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}
