package model

import "github.com/google/uuid"

// Inventory is a read-only snapshot of the offcuts available to one run.
type Inventory struct {
	Offcuts []Offcut `json:"offcuts"`
}

// FindOffcutByID returns a pointer to the offcut with the given ID, or nil.
func (inv *Inventory) FindOffcutByID(id string) *Offcut {
	for i := range inv.Offcuts {
		if inv.Offcuts[i].ID == id {
			return &inv.Offcuts[i]
		}
	}
	return nil
}

// ForMaterial returns the offcuts matching the material code and thickness
// within tolerance, in inventory order.
func (inv *Inventory) ForMaterial(code string, thickness, tolerance float64) []Offcut {
	var out []Offcut
	for _, o := range inv.Offcuts {
		if o.MatchesMaterial(code, thickness, tolerance) {
			out = append(out, o)
		}
	}
	return out
}

// TotalArea returns the summed area of every offcut in the snapshot.
func (inv *Inventory) TotalArea() float64 {
	return TotalOffcutArea(inv.Offcuts)
}

// Apply returns the snapshot that follows a successful run: consumed offcuts
// are removed and predicted remnants are appended as new records under their
// predicted ids. Remnants inherit their origin's usage count plus one. A
// remnant whose id is already taken is stored under a fresh id. The receiver
// is not modified. Failed results leave the snapshot unchanged.
func (inv Inventory) Apply(res Result) Inventory {
	out := Inventory{Offcuts: make([]Offcut, 0, len(inv.Offcuts)+len(res.PredictedOffcuts))}
	if !res.OK() {
		out.Offcuts = append(out.Offcuts, inv.Offcuts...)
		return out
	}

	usage := make(map[string]int, len(res.UsageUpdates))
	for _, u := range res.UsageUpdates {
		usage[u.OffcutID] = u.UsageCount
	}

	for _, o := range inv.Offcuts {
		if _, consumed := usage[o.ID]; consumed {
			continue
		}
		out.Offcuts = append(out.Offcuts, o)
	}

	for _, p := range res.PredictedOffcuts {
		n := 0
		if p.SourceKind == SourceOffcut {
			n = usage[p.SourceID]
		}
		rec := p.ToOffcut(n)
		if out.FindOffcutByID(rec.ID) != nil {
			rec.ID = uuid.New().String()
		}
		out.Offcuts = append(out.Offcuts, rec)
	}
	return out
}
