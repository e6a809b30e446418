package engine

import (
	"math"

	"github.com/google/uuid"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// SheetUsage describes a fresh stock sheet consumed by the sheet layout
// process, as reported back to the engine for remainder prediction.
type SheetUsage struct {
	ID           string  `json:"id"`
	Width        float64 `json:"width"`  // mm, optional
	Height       float64 `json:"height"` // mm, optional
	Area         float64 `json:"area"`   // sq mm
	UsedArea     float64 `json:"used_area"`
	MaterialCode string  `json:"material_code"`
	Thickness    float64 `json:"thickness"`
}

// ReusePriority tiers a remnant by area: larger remnants are more likely to
// serve a future order.
func ReusePriority(area float64) float64 {
	switch {
	case area > 50000:
		return 0.9
	case area > 20000:
		return 0.7
	case area > 10000:
		return 0.5
	default:
		return 0.3
	}
}

// StorageEfficiency rates how easily a remnant can be racked. Rectangles
// close to square store best.
func StorageEfficiency(kind model.GeometryKind, width, height float64) float64 {
	if kind != model.GeometryRectangle {
		return 0.5
	}
	aspect := 1.0
	if height > 0 {
		aspect = width / height
	}
	if aspect >= 0.5 && aspect <= 2.0 {
		return 0.9
	}
	return 0.6
}

// predictOffcutRemainders forecasts the remnant of every consumed offcut.
// Offcuts are visited in order of first assignment.
func (o *Optimizer) predictOffcutRemainders(assignments []model.Assignment, pieces map[string]model.Piece, offcuts map[string]model.Offcut) []model.PredictedOffcut {
	var order []string
	used := make(map[string]float64)
	for _, a := range assignments {
		if _, ok := used[a.OffcutID]; !ok {
			order = append(order, a.OffcutID)
		}
		used[a.OffcutID] += pieceArea(pieces[a.PieceID])
	}

	out := []model.PredictedOffcut{}
	for _, id := range order {
		src, ok := offcuts[id]
		if !ok {
			continue
		}
		remaining := math.Max(0, clean(src.Area)-used[id])
		if remaining <= o.Config.MinUsefulArea {
			continue
		}
		out = append(out, o.remnant(id, model.SourceOffcut, remaining, clean(src.Width), src.MaterialCode, src.Thickness))
	}
	return out
}

// PredictSheetRemainders applies the same remainder rule to fresh sheets
// consumed outside the engine.
func (o *Optimizer) PredictSheetRemainders(sheets []SheetUsage) []model.PredictedOffcut {
	out := []model.PredictedOffcut{}
	for _, s := range sheets {
		area := clean(s.Area)
		if area == 0 {
			area = clean(s.Width) * clean(s.Height)
		}
		remaining := math.Max(0, area-clean(s.UsedArea))
		if remaining <= o.Config.MinUsefulArea {
			continue
		}
		out = append(out, o.remnant(s.ID, model.SourceSheet, remaining, clean(s.Width), s.MaterialCode, s.Thickness))
	}
	return out
}

func (o *Optimizer) remnant(sourceID string, kind model.SourceKind, remaining, sourceWidth float64, material string, thickness float64) model.PredictedOffcut {
	p := model.PredictedOffcut{
		ID:            uuid.New().String(),
		SourceID:      sourceID,
		SourceKind:    kind,
		RemainingArea: remaining,
		Geometry:      model.GeometryIrregular,
		ReusePriority: ReusePriority(remaining),
		MaterialCode:  material,
		Thickness:     thickness,
		CreatedAt:     o.now().UTC(),
	}
	if o.Config.RectangularRemainders {
		w := math.Sqrt(remaining * 2)
		if sourceWidth > 0 {
			w = math.Min(sourceWidth, w)
		}
		p.Geometry = model.GeometryRectangle
		p.Width = w
		p.Height = remaining / w
	}
	p.StorageEfficiency = StorageEfficiency(p.Geometry, p.Width, p.Height)
	return p
}
