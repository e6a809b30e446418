package model

import (
	"testing"
	"time"
)

func TestOffcutAspectRatio(t *testing.T) {
	o := Offcut{Width: 600, Height: 300}
	if o.AspectRatio() != 2.0 {
		t.Errorf("expected aspect ratio 2.0, got %.2f", o.AspectRatio())
	}
	if (Offcut{Width: 600}).AspectRatio() != 1.0 {
		t.Error("expected aspect ratio 1.0 when height is unknown")
	}
}

func TestOffcutMatchesMaterial(t *testing.T) {
	o := Offcut{MaterialCode: "MDF", Thickness: 16.0}
	if !o.MatchesMaterial("MDF", 16.05, 0.1) {
		t.Error("expected match within tolerance")
	}
	if o.MatchesMaterial("MDF", 16.2, 0.1) {
		t.Error("expected no match outside tolerance")
	}
	if o.MatchesMaterial("Plywood", 16.0, 0.1) {
		t.Error("expected no match for a different material")
	}
}

func TestTotalOffcutArea(t *testing.T) {
	offcuts := []Offcut{
		{Area: 150000},
		{Area: 20000},
	}
	if total := TotalOffcutArea(offcuts); total != 170000 {
		t.Errorf("expected total area 170000, got %.0f", total)
	}
}

func TestPredictedOffcutToOffcut(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := PredictedOffcut{
		SourceID:      "src-1",
		SourceKind:    SourceOffcut,
		RemainingArea: 25000,
		Geometry:      GeometryIrregular,
		ReusePriority: 0.7,
		MaterialCode:  "MDF",
		Thickness:     16,
		CreatedAt:     created,
	}
	o := p.ToOffcut(3)
	if o.ID == "" {
		t.Error("expected a generated ID")
	}

	p.ID = "remnant-7"
	if got := p.ToOffcut(3).ID; got != "remnant-7" {
		t.Errorf("expected the predicted id to carry over, got %q", got)
	}
	if o.Source != "src-1" {
		t.Errorf("expected source src-1, got %s", o.Source)
	}
	if o.Area != 25000 || o.Priority != 0.7 || o.UsageCount != 3 {
		t.Errorf("unexpected record %+v", o)
	}
	if !o.CreatedAt.Equal(created) {
		t.Errorf("expected creation time to carry over, got %v", o.CreatedAt)
	}
}
