package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

func testInventory() model.Inventory {
	created := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	return model.Inventory{Offcuts: []model.Offcut{
		{ID: "o1", MaterialCode: "MDF", Thickness: 16, Width: 500, Height: 300, Area: 150000, CreatedAt: created, Source: "job-17.dxf", Priority: 0.9},
		{ID: "o2", MaterialCode: "Plywood", Thickness: 18, Width: 200, Height: 200, Area: 40000, CreatedAt: created, UsageCount: 2},
	}}
}

func TestDefaultInventoryPath(t *testing.T) {
	path := DefaultInventoryPath()
	if filepath.Base(path) != "inventory.json" {
		t.Errorf("expected filename inventory.json, got %s", filepath.Base(path))
	}
}

func TestSaveAndLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop", "inventory.json")
	inv := testInventory()

	if err := SaveInventory(path, inv); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("inventory file was not created")
	}

	loaded, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(loaded.Offcuts) != 2 {
		t.Fatalf("expected 2 offcuts, got %d", len(loaded.Offcuts))
	}
	o := loaded.Offcuts[0]
	if o.ID != "o1" || o.Area != 150000 || o.Source != "job-17.dxf" {
		t.Errorf("unexpected offcut %+v", o)
	}
	if !o.CreatedAt.Equal(inv.Offcuts[0].CreatedAt) {
		t.Errorf("expected created at %v, got %v", inv.Offcuts[0].CreatedAt, o.CreatedAt)
	}
	if loaded.Offcuts[1].UsageCount != 2 {
		t.Errorf("expected usage count 2, got %d", loaded.Offcuts[1].UsageCount)
	}
}

func TestLoadInventory_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Offcuts == nil || len(inv.Offcuts) != 0 {
		t.Errorf("expected empty non-nil offcut list, got %v", inv.Offcuts)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("loading a missing inventory must not create it")
	}
}

func TestLoadInventory_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadInventory(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestImportInventory_Merge(t *testing.T) {
	dir := t.TempDir()
	importPath := filepath.Join(dir, "import.json")

	incoming := model.Inventory{Offcuts: []model.Offcut{
		{ID: "o2", MaterialCode: "MDF", Area: 1},
		{ID: "o3", MaterialCode: "MDF", Thickness: 16, Area: 60000},
	}}
	if err := SaveInventory(importPath, incoming); err != nil {
		t.Fatal(err)
	}

	existing := testInventory()
	merged, skipped, err := ImportInventory(importPath, existing)
	if err != nil {
		t.Fatalf("ImportInventory failed: %v", err)
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped duplicate, got %d", skipped)
	}
	if len(merged.Offcuts) != 3 {
		t.Fatalf("expected 3 offcuts, got %d", len(merged.Offcuts))
	}
	if merged.Offcuts[1].MaterialCode != "Plywood" {
		t.Error("existing offcut must win over the imported duplicate")
	}
	if merged.Offcuts[2].ID != "o3" {
		t.Errorf("expected o3 appended, got %s", merged.Offcuts[2].ID)
	}
	if len(existing.Offcuts) != 2 {
		t.Error("existing inventory must not be modified")
	}
}

func TestImportInventory_MissingFile(t *testing.T) {
	existing := testInventory()

	got, _, err := ImportInventory(filepath.Join(t.TempDir(), "nope.json"), existing)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(got.Offcuts) != len(existing.Offcuts) {
		t.Error("expected the existing inventory back on error")
	}
}

func TestSaveAndLoadOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders", "ord-7.json")
	order := model.Order{
		ID:           "ord-7",
		MaterialCode: "MDF",
		Thickness:    16,
		Pieces:       []model.Piece{model.NewRectPiece("door", 400, 700), model.NewRectPiece("shelf", 560, 300)},
	}

	if err := SaveOrder(path, order); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}
	loaded, err := LoadOrder(path)
	if err != nil {
		t.Fatalf("LoadOrder failed: %v", err)
	}
	if loaded.ID != "ord-7" || len(loaded.Pieces) != 2 {
		t.Fatalf("unexpected order %+v", loaded)
	}
	if loaded.Pieces[0].Area != 280000 {
		t.Errorf("expected area 280000, got %f", loaded.Pieces[0].Area)
	}
}

func TestLoadOrder_Errors(t *testing.T) {
	if _, err := LoadOrder(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing order")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("[1,2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrder(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
