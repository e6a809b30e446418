package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Offcut represents a reusable remnant left over from a previous cutting run.
// Offcuts are owned by the inventory; the engine only reads them.
type Offcut struct {
	ID           string    `json:"id"`
	Geometry     string    `json:"geometry,omitempty"` // Opaque reference to the remnant outline
	MaterialCode string    `json:"material_code"`
	Thickness    float64   `json:"thickness"` // mm
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source,omitempty"` // Drawing or run the offcut came from
	UsageCount   int       `json:"usage_count"`      // Times previously consumed
	Priority     float64   `json:"priority"`         // Externally assigned weight, 0-1
	Area         float64   `json:"area"`             // sq mm
	Width        float64   `json:"width"`            // mm
	Height       float64   `json:"height"`           // mm
}

// AspectRatio returns width / height, or 1 when the height is unknown.
func (o Offcut) AspectRatio() float64 {
	if o.Height <= 0 {
		return 1.0
	}
	return o.Width / o.Height
}

// MatchesMaterial reports whether the offcut has the given material code and
// a thickness within tolerance (absolute difference, exclusive).
func (o Offcut) MatchesMaterial(code string, thickness, tolerance float64) bool {
	return o.MaterialCode == code && math.Abs(o.Thickness-thickness) < tolerance
}

// TotalOffcutArea returns the total area of all offcuts in square mm.
func TotalOffcutArea(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Area
	}
	return total
}

// GeometryKind is the coarse shape classification of a predicted offcut.
type GeometryKind string

const (
	GeometryIrregular GeometryKind = "irregular"
	GeometryRectangle GeometryKind = "rectangle"
)

// SourceKind tells whether a predicted offcut comes from a reused offcut or
// from a fresh stock sheet.
type SourceKind string

const (
	SourceOffcut SourceKind = "offcut"
	SourceSheet  SourceKind = "sheet"
)

// PredictedOffcut is a forecast of a new remnant that the current order will
// leave behind. It is handed to the inventory, never persisted here.
type PredictedOffcut struct {
	ID                string       `json:"id"`
	SourceID          string       `json:"source_id"`
	SourceKind        SourceKind   `json:"source_kind"`
	RemainingArea     float64      `json:"remaining_area"`
	Geometry          GeometryKind `json:"geometry"`
	Width             float64      `json:"width,omitempty"`  // Only set for rectangle approximations
	Height            float64      `json:"height,omitempty"` // Only set for rectangle approximations
	ReusePriority     float64      `json:"reuse_priority"`
	StorageEfficiency float64      `json:"storage_efficiency"`
	MaterialCode      string       `json:"material_code"`
	Thickness         float64      `json:"thickness"`
	CreatedAt         time.Time    `json:"created_at"`
}

// ToOffcut converts a predicted remnant into an inventory record that keeps
// the remnant's id. usage is the usage count the remnant inherits from its
// origin. A remnant without an id gets a fresh one.
func (p PredictedOffcut) ToOffcut(usage int) Offcut {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	return Offcut{
		ID:           id,
		Geometry:     string(p.Geometry),
		MaterialCode: p.MaterialCode,
		Thickness:    p.Thickness,
		CreatedAt:    p.CreatedAt,
		Source:       p.SourceID,
		UsageCount:   usage,
		Priority:     p.ReusePriority,
		Area:         p.RemainingArea,
		Width:        p.Width,
		Height:       p.Height,
	}
}
