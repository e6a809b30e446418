package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/OffcutReuse/internal/project"
	"github.com/piwi3910/OffcutReuse/internal/ranking"
)

type rankOptions struct {
	orderPath     string
	inventoryPath string
	material      string
	thickness     float64
	outputPath    string
}

func newRankCmd(a *app) *cobra.Command {
	opts := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank offcuts by suitability for an order",
		Long: "Prints the advisory suitability ranking of the inventory for one order, with\n" +
			"a coverage estimate and a suggested cutting plan. Nothing is assigned.",
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

			r, err := ranking.NewRanker(a.cfg)
			if err != nil {
				return err
			}
			analysis := r.Analyze(order, inv.Offcuts)
			a.logger.Info("ranking finished",
				zap.String("order_id", order.ID),
				zap.Int("candidates", analysis.Candidates),
				zap.Int("ranked", len(analysis.Entries)),
				zap.String("plan", string(analysis.Plan.PrimaryStrategy)),
			)
			return writeJSON(cmd.OutOrStdout(), opts.outputPath, analysis)
		},
	}

	addSnapshotFlags(cmd, &opts.orderPath, &opts.inventoryPath, &opts.material, &opts.thickness)
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "write the analysis JSON to this file instead of stdout")
	return cmd
}
