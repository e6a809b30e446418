package cli

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/project"
)

func newInventoryCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inspect and maintain the offcut inventory file",
	}
	cmd.PersistentFlags().StringVar(&path, "inventory", project.DefaultInventoryPath(), "offcut inventory snapshot (.json)")
	cmd.AddCommand(
		newInventoryShowCmd(a, &path),
		newInventoryImportCmd(a, &path),
		newInventoryRestoreCmd(a, &path),
	)
	return cmd
}

func newInventoryShowCmd(a *app, path *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the offcuts in the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(*path)
			if err != nil {
				return fmt.Errorf("load inventory: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), "", inv)
			}

			offcuts := append([]model.Offcut(nil), inv.Offcuts...)
			sort.SliceStable(offcuts, func(i, j int) bool {
				if offcuts[i].MaterialCode != offcuts[j].MaterialCode {
					return offcuts[i].MaterialCode < offcuts[j].MaterialCode
				}
				return offcuts[i].Area > offcuts[j].Area
			})

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"ID", "MATERIAL", "THICKNESS", "WIDTH", "HEIGHT", "AREA", "USED", "PRIORITY"})
			for _, o := range offcuts {
				table.Append([]string{
					o.ID,
					o.MaterialCode,
					fmt.Sprintf("%.1f", o.Thickness),
					fmt.Sprintf("%.0f", o.Width),
					fmt.Sprintf("%.0f", o.Height),
					fmt.Sprintf("%.0f", o.Area),
					fmt.Sprintf("%d", o.UsageCount),
					fmt.Sprintf("%.2f", o.Priority),
				})
			}
			table.Append([]string{"", "", "", "", "TOTAL", fmt.Sprintf("%.0f", inv.TotalArea()), "", ""})
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newInventoryImportCmd(a *app, path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge offcuts from another inventory file",
		Long: "Adds the offcuts of another inventory snapshot to the inventory file.\n" +
			"Offcuts whose id is already present are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(*path)
			if err != nil {
				return fmt.Errorf("load inventory: %w", err)
			}
			merged, skipped, err := project.ImportInventory(args[0], inv)
			if err != nil {
				return err
			}
			if err := project.SaveInventory(*path, merged); err != nil {
				return fmt.Errorf("save inventory: %w", err)
			}
			added := len(merged.Offcuts) - len(inv.Offcuts)
			a.logger.Info("inventory imported",
				zap.String("from", args[0]),
				zap.Int("added", added),
				zap.Int("skipped", skipped),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "added %d, skipped %d\n", added, skipped)
			return nil
		},
	}
}

func newInventoryRestoreCmd(a *app, path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the inventory with a backup taken before a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := project.RestoreBackup(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveInventory(*path, data.Inventory); err != nil {
				return fmt.Errorf("save inventory: %w", err)
			}
			a.logger.Info("inventory restored",
				zap.String("backup", args[0]),
				zap.String("run_id", data.RunID),
				zap.Int("offcuts", len(data.Inventory.Offcuts)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d offcuts from run %s\n", len(data.Inventory.Offcuts), data.RunID)
			return nil
		},
	}
}
