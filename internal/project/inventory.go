package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// DefaultInventoryPath returns the default file path for the offcut inventory.
// This is located at ~/.offcutopt/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if inv.Offcuts == nil {
		inv.Offcuts = []model.Offcut{}
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns an empty inventory.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Inventory{Offcuts: []model.Offcut{}}, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, fmt.Errorf("failed to parse inventory %q: %w", path, err)
	}
	if inv.Offcuts == nil {
		inv.Offcuts = []model.Offcut{}
	}
	return inv, nil
}

// ImportInventory imports offcuts from a JSON inventory file, merging them
// into the existing inventory. Offcuts whose ID is already present are
// skipped; the number of skipped records is returned.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, 0, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, 0, fmt.Errorf("failed to parse inventory %q: %w", path, err)
	}

	merged := model.Inventory{Offcuts: make([]model.Offcut, 0, len(existing.Offcuts)+len(imported.Offcuts))}
	ids := make(map[string]bool, len(existing.Offcuts))
	for _, o := range existing.Offcuts {
		merged.Offcuts = append(merged.Offcuts, o)
		ids[o.ID] = true
	}

	skipped := 0
	for _, o := range imported.Offcuts {
		if ids[o.ID] {
			skipped++
			continue
		}
		merged.Offcuts = append(merged.Offcuts, o)
		ids[o.ID] = true
	}

	return merged, skipped, nil
}

// LoadOrder reads an order from a JSON file.
func LoadOrder(path string) (model.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Order{}, err
	}
	var order model.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return model.Order{}, fmt.Errorf("failed to parse order %q: %w", path, err)
	}
	return order, nil
}

// SaveOrder writes an order to a JSON file, creating parent directories.
func SaveOrder(path string, order model.Order) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
