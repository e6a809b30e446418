package cli

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/piwi3910/OffcutReuse/internal/engine"
	"github.com/piwi3910/OffcutReuse/internal/project"
	"github.com/piwi3910/OffcutReuse/internal/scoring"
)

type compareOptions struct {
	orderPath     string
	inventoryPath string
	material      string
	thickness     float64
	scenariosPath string
	asJSON        bool
}

// comparisonRow is the JSON form of one compared scenario.
type comparisonRow struct {
	Name          string  `json:"name"`
	Threshold     float64 `json:"compatibility_threshold"`
	Sharing       bool    `json:"allow_offcut_sharing"`
	Status        string  `json:"status"`
	Assigned      int     `json:"assigned"`
	Unassigned    int     `json:"unassigned"`
	PredictedArea float64 `json:"predicted_area"`
	OverallScore  float64 `json:"overall_score"`
	Strategy      string  `json:"strategy"`
}

func newCompareCmd(a *app) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare engine settings on the same order and inventory",
		Long: "Runs the engine once per scenario over the same snapshot. Without --scenarios\n" +
			"the current settings are compared with a stricter and a looser compatibility\n" +
			"threshold and with the opposite offcut sharing policy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := a.loadOrder(opts.orderPath, opts.material, opts.thickness)
			if err != nil {
				return err
			}
			inv, err := project.LoadInventory(opts.inventoryPath)
			if err != nil {
				return fmt.Errorf("load inventory: %w", err)
			}

			scenarios := engine.BuildDefaultScenarios(a.cfg)
			if opts.scenariosPath != "" {
				scenarios, err = project.LoadScenarios(opts.scenariosPath, a.cfg)
				if err != nil {
					return err
				}
				if len(scenarios) == 0 {
					return fmt.Errorf("no scenarios in %s", opts.scenariosPath)
				}
			}

			results, err := engine.CompareScenarios(cmd.Context(), scenarios, scoring.NewGeometricScorer(),
				order, a.snapshot(order, inv), engine.WithLogger(a.logger))
			if err != nil {
				return err
			}

			rows := make([]comparisonRow, 0, len(results))
			for _, r := range results {
				rows = append(rows, comparisonRow{
					Name:          r.Scenario.Name,
					Threshold:     r.Scenario.Config.CompatibilityThreshold,
					Sharing:       r.Scenario.Config.AllowOffcutSharing,
					Status:        string(r.Result.Status),
					Assigned:      r.Assigned,
					Unassigned:    r.Unassigned,
					PredictedArea: r.PredictedArea,
					OverallScore:  r.OverallScore,
					Strategy:      string(r.Strategy),
				})
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), "", rows)
			}
			return writeComparisonTable(cmd.OutOrStdout(), rows)
		},
	}

	addSnapshotFlags(cmd, &opts.orderPath, &opts.inventoryPath, &opts.material, &opts.thickness)
	f := cmd.Flags()
	f.StringVar(&opts.scenariosPath, "scenarios", "", "scenario set file (.json)")
	f.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeComparisonTable(w io.Writer, rows []comparisonRow) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"SCENARIO", "THRESHOLD", "SHARING", "ASSIGNED", "UNASSIGNED", "REMNANT AREA", "SCORE", "STRATEGY"})
	for _, r := range rows {
		strategy := r.Strategy
		if r.Status != "ok" {
			strategy = r.Status
		}
		table.Append([]string{
			r.Name,
			fmt.Sprintf("%.2f", r.Threshold),
			fmt.Sprintf("%t", r.Sharing),
			fmt.Sprintf("%d", r.Assigned),
			fmt.Sprintf("%d", r.Unassigned),
			fmt.Sprintf("%.0f", r.PredictedArea),
			fmt.Sprintf("%.3f", r.OverallScore),
			strategy,
		})
	}
	return table.Render()
}
