package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/project"
)

type fixture struct {
	dir       string
	config    string
	order     string
	inventory string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:       dir,
		config:    filepath.Join(dir, "config.json"),
		order:     filepath.Join(dir, "order.json"),
		inventory: filepath.Join(dir, "inventory.json"),
	}

	order := model.Order{
		ID:           "kitchen",
		MaterialCode: "MDF",
		Thickness:    16,
		Pieces:       []model.Piece{model.NewRectPiece("door", 400, 300)},
	}
	require.NoError(t, project.SaveOrder(f.order, order))

	inv := model.Inventory{Offcuts: []model.Offcut{
		{ID: "o1", MaterialCode: "MDF", Thickness: 16, Width: 600, Height: 500, Area: 300000, Priority: 0.5},
		{ID: "o2", MaterialCode: "Plywood", Thickness: 18, Width: 900, Height: 900, Area: 810000, Priority: 0.5},
	}}
	require.NoError(t, project.SaveInventory(f.inventory, inv))
	return f
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "rank", "compare", "config", "inventory"})

	for _, flag := range []string{"config", "log-level", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := newLogger("debug", format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}

	_, err := newLogger("loud", "console")
	assert.Error(t, err)

	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}

func TestExecute_InvalidLogLevel(t *testing.T) {
	f := newFixture(t)
	_, err := execute(t, "--config", f.config, "--log-level", "loud", "config", "show")
	assert.Error(t, err)
}

func TestRun_WritesResult(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "run", "--order", f.order, "--inventory", f.inventory)
	require.NoError(t, err)

	var res model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, model.StatusOK, res.Status)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "door", res.Assignments[0].PieceID)
	assert.Equal(t, "o1", res.Assignments[0].OffcutID)
	assert.Empty(t, res.Unassigned)

	// Without --update-inventory the file is untouched.
	inv, err := project.LoadInventory(f.inventory)
	require.NoError(t, err)
	assert.Len(t, inv.Offcuts, 2)
	_, err = os.Stat(filepath.Join(f.dir, "backups"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_OutputFileAndMetrics(t *testing.T) {
	f := newFixture(t)
	resultPath := filepath.Join(f.dir, "out", "result.json")
	metricsPath := filepath.Join(f.dir, "offcut.prom")

	out, err := execute(t, "--config", f.config, "run",
		"--order", f.order,
		"--inventory", f.inventory,
		"-o", resultPath,
		"--metrics-file", metricsPath,
	)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(resultPath)
	require.NoError(t, err)
	var res model.Result
	require.NoError(t, json.Unmarshal(data, &res))
	assert.True(t, res.OK())

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "offcut_reuse_runs_total")
	assert.Contains(t, string(prom), "offcut_reuse_assignments_total 1")
}

func TestRun_UpdateInventory(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "run",
		"--order", f.order,
		"--inventory", f.inventory,
		"--update-inventory",
	)
	require.NoError(t, err)

	var res model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.PredictedOffcuts, 1)

	inv, err := project.LoadInventory(f.inventory)
	require.NoError(t, err)
	assert.Nil(t, inv.FindOffcutByID("o1"), "consumed offcut must be removed")
	assert.NotNil(t, inv.FindOffcutByID("o2"))
	require.Len(t, inv.Offcuts, 2, "o2 plus the predicted remnant of o1")

	remnant := inv.Offcuts[1]
	assert.Equal(t, "MDF", remnant.MaterialCode)
	assert.Equal(t, "o1", remnant.Source)
	assert.Equal(t, 1, remnant.UsageCount)
	assert.InDelta(t, 180000, remnant.Area, 1e-6)
	assert.Equal(t, res.PredictedOffcuts[0].ID, remnant.ID, "inventory keeps the id published in the result")

	backups, err := filepath.Glob(filepath.Join(f.dir, "backups", "inventory-*.json"))
	require.NoError(t, err)
	require.Len(t, backups, 1)

	restored, err := project.RestoreBackup(backups[0])
	require.NoError(t, err)
	assert.Len(t, restored.Inventory.Offcuts, 2)
	assert.NotNil(t, restored.Inventory.FindOffcutByID("o1"))
}

func TestRun_UpdateInventoryTwiceKeepsBothBackups(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		_, err := execute(t, "--config", f.config, "run",
			"--order", f.order,
			"--inventory", f.inventory,
			"--update-inventory",
		)
		require.NoError(t, err)
	}

	backups, err := filepath.Glob(filepath.Join(f.dir, "backups", "inventory-*.json"))
	require.NoError(t, err)
	require.Len(t, backups, 2)

	first, err := project.RestoreBackup(backups[0])
	require.NoError(t, err)
	second, err := project.RestoreBackup(backups[1])
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_CSVOrderWithMaterialFlags(t *testing.T) {
	f := newFixture(t)
	csvPath := filepath.Join(f.dir, "cabinet.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,width,height,quantity\nshelf,300,200,2\n"), 0644))

	out, err := execute(t, "--config", f.config, "run",
		"--order", csvPath,
		"--inventory", f.inventory,
		"--material", "MDF",
		"--thickness", "16",
	)
	require.NoError(t, err)

	var res model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, 2, res.Metrics.TotalPieces)
	assert.Len(t, res.Assignments, 1, "one offcut, no sharing")
	assert.Len(t, res.Unassigned, 1)
}

func TestRun_FailedResultReturnsError(t *testing.T) {
	f := newFixture(t)
	order := model.Order{
		ID:           "dup",
		MaterialCode: "MDF",
		Thickness:    16,
		Pieces: []model.Piece{
			model.NewRectPiece("a", 100, 100),
			model.NewRectPiece("a", 200, 100),
		},
	}
	require.NoError(t, project.SaveOrder(f.order, order))

	out, err := execute(t, "--config", f.config, "run",
		"--order", f.order,
		"--inventory", f.inventory,
		"--update-inventory",
	)
	require.Error(t, err)

	var res model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Equal(t, model.StrategyFallback, res.Strategy)

	inv, err := project.LoadInventory(f.inventory)
	require.NoError(t, err)
	assert.NotNil(t, inv.FindOffcutByID("o1"), "failed run must not touch the inventory")
}

func TestRun_RequiresOrder(t *testing.T) {
	f := newFixture(t)
	_, err := execute(t, "--config", f.config, "run", "--inventory", f.inventory)
	assert.Error(t, err)
}

func TestRun_EmptyCSVOrder(t *testing.T) {
	f := newFixture(t)
	csvPath := filepath.Join(f.dir, "empty.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,width,height\n"), 0644))

	_, err := execute(t, "--config", f.config, "run", "--order", csvPath, "--inventory", f.inventory)
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "rank", "--order", f.order, "--inventory", f.inventory)
	require.NoError(t, err)

	var analysis struct {
		Entries []struct {
			OffcutID string `json:"offcut_id"`
		} `json:"entries"`
		Candidates int `json:"candidates"`
		Coverage   struct {
			TotalAvailableArea float64 `json:"total_available_area"`
		} `json:"coverage"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, 1, analysis.Candidates, "plywood offcut is filtered out")
	require.Len(t, analysis.Entries, 1)
	assert.Equal(t, "o1", analysis.Entries[0].OffcutID)
	assert.InDelta(t, 300000, analysis.Coverage.TotalAvailableArea, 1e-6)
}

func TestCompare_Table(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "compare", "--order", f.order, "--inventory", f.inventory)
	require.NoError(t, err)
	assert.Contains(t, out, "SCENARIO")
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "(stricter)")
	assert.Contains(t, out, "(looser)")
}

func TestCompare_ScenarioFileJSON(t *testing.T) {
	f := newFixture(t)
	scenarios := filepath.Join(f.dir, "scenarios.json")
	require.NoError(t, os.WriteFile(scenarios, []byte(`[
  {"name": "strict", "config": {"compatibility_threshold": 0.95}},
  {"name": "default"}
]`), 0644))

	out, err := execute(t, "--config", f.config, "compare",
		"--order", f.order,
		"--inventory", f.inventory,
		"--scenarios", scenarios,
		"--json",
	)
	require.NoError(t, err)

	var rows []comparisonRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "strict", rows[0].Name)
	assert.Equal(t, 0, rows[0].Assigned)
	assert.Equal(t, "default", rows[1].Name)
	assert.Equal(t, 1, rows[1].Assigned)
}

func TestCompare_EmptyScenarioFile(t *testing.T) {
	f := newFixture(t)
	_, err := execute(t, "--config", f.config, "compare",
		"--order", f.order,
		"--inventory", f.inventory,
		"--scenarios", filepath.Join(f.dir, "missing.json"),
	)
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	out, err := execute(t, "--config", path, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := project.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultEngineConfig(), cfg)

	_, err = execute(t, "--config", path, "config", "init", path)
	assert.Error(t, err, "existing file needs --force")

	_, err = execute(t, "--config", path, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestConfigShow_AppliesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compatibility_threshold: 0.7\nallow_offcut_sharing: true\n"), 0644))

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)

	var cfg model.EngineConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.InDelta(t, 0.7, cfg.CompatibilityThreshold, 1e-9)
	assert.True(t, cfg.AllowOffcutSharing)
	assert.Equal(t, model.DefaultEngineConfig().FeatureLength, cfg.FeatureLength)
}

func TestConfigShow_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"compatibility_threshold": 1.5}`), 0644))

	_, err := execute(t, "--config", path, "config", "show")
	assert.Error(t, err)
}

func TestConfigScenarios_RoundTripsThroughCompare(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "scenarios.json")

	_, err := execute(t, "--config", f.config, "config", "scenarios", path)
	require.NoError(t, err)

	_, err = execute(t, "--config", f.config, "config", "scenarios", path)
	assert.Error(t, err, "existing file needs --force")

	out, err := execute(t, "--config", f.config, "compare",
		"--order", f.order,
		"--inventory", f.inventory,
		"--scenarios", path,
		"--json",
	)
	require.NoError(t, err)

	var rows []comparisonRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "Current Settings", rows[0].Name)
	assert.Equal(t, 1, rows[0].Assigned)
}

func TestInventoryShow(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "inventory", "show", "--inventory", f.inventory)
	require.NoError(t, err)
	assert.Contains(t, out, "MATERIAL")
	assert.Contains(t, out, "o1")
	assert.Contains(t, out, "Plywood")
	assert.Contains(t, out, "1110000")

	out, err = execute(t, "--config", f.config, "inventory", "show", "--inventory", f.inventory, "--json")
	require.NoError(t, err)
	var inv model.Inventory
	require.NoError(t, json.Unmarshal([]byte(out), &inv))
	assert.Len(t, inv.Offcuts, 2)
}

func TestInventoryImport(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(f.dir, "workshop.json")
	require.NoError(t, project.SaveInventory(other, model.Inventory{Offcuts: []model.Offcut{
		{ID: "o1", MaterialCode: "MDF", Thickness: 16, Area: 1000},
		{ID: "o3", MaterialCode: "Chipboard", Thickness: 18, Width: 400, Height: 400, Area: 160000},
	}}))

	out, err := execute(t, "--config", f.config, "inventory", "import", other, "--inventory", f.inventory)
	require.NoError(t, err)
	assert.Contains(t, out, "added 1, skipped 1")

	inv, err := project.LoadInventory(f.inventory)
	require.NoError(t, err)
	require.Len(t, inv.Offcuts, 3)
	assert.InDelta(t, 300000, inv.FindOffcutByID("o1").Area, 1e-6, "existing record wins")
	assert.NotNil(t, inv.FindOffcutByID("o3"))
}

func TestInventoryRestore(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--config", f.config, "run",
		"--order", f.order,
		"--inventory", f.inventory,
		"--update-inventory",
	)
	require.NoError(t, err)

	backups, err := filepath.Glob(filepath.Join(f.dir, "backups", "*.json"))
	require.NoError(t, err)
	require.Len(t, backups, 1)

	out, err := execute(t, "--config", f.config, "inventory", "restore", backups[0], "--inventory", f.inventory)
	require.NoError(t, err)
	assert.Contains(t, out, "restored 2 offcuts")

	inv, err := project.LoadInventory(f.inventory)
	require.NoError(t, err)
	assert.NotNil(t, inv.FindOffcutByID("o1"))
}
