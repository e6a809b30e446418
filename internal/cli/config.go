package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/OffcutReuse/internal/engine"
	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/project"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the engine configuration",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigScenariosCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := project.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := project.SaveConfig(path, model.DefaultEngineConfig()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			a.logger.Info("configuration written", zap.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), "", a.cfg)
		},
	}
}

func newConfigScenariosCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "scenarios <path>",
		Short: "Write the default comparison scenarios as an editable set",
		Long: "Writes the scenarios compare uses by default, derived from the effective\n" +
			"configuration. Edit the file and pass it to compare --scenarios.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			scenarios := engine.BuildDefaultScenarios(a.cfg)
			if err := project.SaveScenarios(path, scenarios); err != nil {
				return fmt.Errorf("write scenarios: %w", err)
			}
			a.logger.Info("scenarios written", zap.String("path", path), zap.Int("count", len(scenarios)))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
