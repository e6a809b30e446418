package model

import "math"

// Piece represents a single part of the current order to be cut.
// Pieces are expanded by quantity before they reach the engine, so every
// Piece stands for exactly one physical part.
type Piece struct {
	ID          string  `json:"id"`
	Label       string  `json:"label,omitempty"`
	Area        float64 `json:"area"`         // sq mm
	Width       float64 `json:"width"`        // mm (bounding box for non-rectangular parts)
	Height      float64 `json:"height"`       // mm
	Perimeter   float64 `json:"perimeter"`    // mm
	AspectRatio float64 `json:"aspect_ratio"` // width / height
	Complexity  float64 `json:"complexity"`   // scalar shape complexity, 1 = plain rectangle
}

// NewRectPiece builds a rectangular Piece, deriving area, perimeter and
// aspect ratio from the given dimensions.
func NewRectPiece(id string, w, h float64) Piece {
	p := Piece{
		ID:         id,
		Label:      id,
		Width:      w,
		Height:     h,
		Area:       w * h,
		Perimeter:  2 * (w + h),
		Complexity: 1.0,
	}
	if h > 0 {
		p.AspectRatio = w / h
	}
	return p
}

// Order is one cutting order: a material specification plus its pieces.
type Order struct {
	ID           string  `json:"id"`
	MaterialCode string  `json:"material_code"`
	Thickness    float64 `json:"thickness"` // mm
	Pieces       []Piece `json:"pieces"`
}

// TotalArea returns the summed area of all pieces in the order. Negative
// and NaN areas count as 0.
func (o Order) TotalArea() float64 {
	var total float64
	for _, p := range o.Pieces {
		if p.Area > 0 && !math.IsInf(p.Area, 1) {
			total += p.Area
		}
	}
	return total
}
