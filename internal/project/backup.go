package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// backupVersion is the snapshot format written by BackupInventory.
const backupVersion = "1.0.0"

// BackupData is the on-disk form of an inventory backup.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	RunID     string          `json:"run_id,omitempty"`
	Inventory model.Inventory `json:"inventory"`
}

// BackupPath returns the backup file name used for the inventory at path,
// stamped with t and the run that triggered it:
// <dir>/backups/<name>-20060102T150405.000000000Z-<runID>.json.
func BackupPath(path, runID string, t time.Time) string {
	base := filepath.Base(path)
	name := base[:len(base)-len(filepath.Ext(base))]
	stamp := t.UTC().Format("20060102T150405.000000000Z")
	if runID == "" {
		return filepath.Join(filepath.Dir(path), "backups", fmt.Sprintf("%s-%s.json", name, stamp))
	}
	return filepath.Join(filepath.Dir(path), "backups", fmt.Sprintf("%s-%s-%s.json", name, stamp, runID))
}

// BackupInventory writes inv to backupPath before it is replaced. runID ties
// the backup to the run whose result triggered the rewrite.
func BackupInventory(backupPath string, inv model.Inventory, runID string, now time.Time) error {
	backup := BackupData{
		Version:   backupVersion,
		CreatedAt: now.UTC().Format(time.RFC3339),
		RunID:     runID,
		Inventory: inv,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(backupPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// RestoreBackup reads a backup file and returns the contained data.
// The caller is responsible for saving the restored inventory.
func RestoreBackup(backupPath string) (BackupData, error) {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Inventory.Offcuts == nil {
		backup.Inventory.Offcuts = []model.Offcut{}
	}
	return backup, nil
}
