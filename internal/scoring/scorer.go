// Package scoring defines the compatibility scorer used by the assignment
// engine and ships a geometric heuristic implementation.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Placement is the scorer's proposed position of a piece on an offcut.
// DX and DY use the input length unit; Rotation is in degrees and may fall
// outside [0, 360).
type Placement struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Rotation float64 `json:"rotation"`
}

// Score is the outcome of evaluating one (offcut, piece) pair.
type Score struct {
	Compatibility float64   `json:"compatibility"` // 0-1
	Placement     Placement `json:"placement"`
	Efficiency    float64   `json:"efficiency"` // 0-1
}

// Scorer evaluates how well a piece fits on an offcut. Implementations must
// be free of side effects: the engine calls Score concurrently for many
// pairs.
type Scorer interface {
	Score(offcut, piece []float64) (Score, error)
}

// Func adapts an ordinary function to the Scorer interface.
type Func func(offcut, piece []float64) (Score, error)

// Score calls f(offcut, piece).
func (f Func) Score(offcut, piece []float64) (Score, error) {
	return f(offcut, piece)
}

var (
	ErrScorerPanic  = errors.New("scorer panicked")
	ErrInvalidScore = errors.New("scorer returned a non-finite value")
)

// Safe calls s and converts panics and non-finite outputs into errors.
// Compatibility and efficiency are clamped to [0, 1].
func Safe(s Scorer, offcut, piece []float64) (sc Score, err error) {
	defer func() {
		if r := recover(); r != nil {
			sc = Score{}
			err = fmt.Errorf("%w: %v", ErrScorerPanic, r)
		}
	}()

	sc, err = s.Score(offcut, piece)
	if err != nil {
		return Score{}, err
	}
	if !finite(sc.Compatibility) || !finite(sc.Efficiency) ||
		!finite(sc.Placement.DX) || !finite(sc.Placement.DY) || !finite(sc.Placement.Rotation) {
		return Score{}, ErrInvalidScore
	}
	sc.Compatibility = clamp01(sc.Compatibility)
	sc.Efficiency = clamp01(sc.Efficiency)
	return sc, nil
}

// NormalizeRotation maps an angle in degrees to [0, 360).
func NormalizeRotation(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
