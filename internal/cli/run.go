package cli

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/OffcutReuse/internal/engine"
	"github.com/piwi3910/OffcutReuse/internal/metrics"
	"github.com/piwi3910/OffcutReuse/internal/project"
	"github.com/piwi3910/OffcutReuse/internal/scoring"
)

type runOptions struct {
	orderPath       string
	inventoryPath   string
	material        string
	thickness       float64
	outputPath      string
	updateInventory bool
	metricsFile     string
}

func addSnapshotFlags(cmd *cobra.Command, orderPath, inventoryPath, material *string, thickness *float64) {
	f := cmd.Flags()
	f.StringVar(orderPath, "order", "", "order file (.json, .csv, .xlsx)")
	f.StringVar(inventoryPath, "inventory", project.DefaultInventoryPath(), "offcut inventory snapshot (.json)")
	f.StringVar(material, "material", "", "material code, overrides the order file")
	f.Float64Var(thickness, "thickness", 0, "material thickness in mm, overrides the order file")
	_ = cmd.MarkFlagRequired("order")
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Assign order pieces to reusable offcuts",
		Long: "Runs the reuse engine for one order against the inventory snapshot and prints\n" +
			"the result as JSON. With --update-inventory the consumed offcuts are removed\n" +
			"from the inventory file and the predicted remnants are added; the previous\n" +
			"inventory is kept under backups/ next to it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts)
		},
	}

	addSnapshotFlags(cmd, &opts.orderPath, &opts.inventoryPath, &opts.material, &opts.thickness)
	f := cmd.Flags()
	f.StringVarP(&opts.outputPath, "output", "o", "", "write the result JSON to this file instead of stdout")
	f.BoolVar(&opts.updateInventory, "update-inventory", false, "apply the result to the inventory file")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	order, err := a.loadOrder(opts.orderPath, opts.material, opts.thickness)
	if err != nil {
		return err
	}
	inv, err := project.LoadInventory(opts.inventoryPath)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}

	opt, err := engine.New(a.cfg, scoring.NewGeometricScorer(),
		engine.WithLogger(a.logger),
		engine.WithMetrics(rec),
	)
	if err != nil {
		return err
	}

	snap := a.snapshot(order, inv)
	a.logger.Debug("inventory snapshot",
		zap.Int("offcuts", len(inv.Offcuts)),
		zap.Int("matching", len(snap.Offcuts)),
	)

	res := opt.Run(cmd.Context(), order, snap)

	if err := writeJSON(cmd.OutOrStdout(), opts.outputPath, res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if !res.OK() {
		return fmt.Errorf("run %s failed: %s", res.RunID, res.Error)
	}

	if opts.updateInventory {
		now := time.Now()
		backup := project.BackupPath(opts.inventoryPath, res.RunID, now)
		if err := project.BackupInventory(backup, inv, res.RunID, now); err != nil {
			return err
		}
		updated := inv.Apply(res)
		if err := project.SaveInventory(opts.inventoryPath, updated); err != nil {
			return fmt.Errorf("save inventory: %w", err)
		}
		a.logger.Info("inventory updated",
			zap.String("path", opts.inventoryPath),
			zap.String("backup", backup),
			zap.Int("offcuts_before", len(inv.Offcuts)),
			zap.Int("offcuts_after", len(updated.Offcuts)),
		)
	}
	return nil
}
