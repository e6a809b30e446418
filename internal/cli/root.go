// Package cli implements the offcutopt command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/piwi3910/OffcutReuse/internal/importer"
	"github.com/piwi3910/OffcutReuse/internal/model"
	"github.com/piwi3910/OffcutReuse/internal/project"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// app carries the state initialised by the root command to its subcommands.
type app struct {
	opts   RootOptions
	cfg    model.EngineConfig
	logger *zap.Logger
}

// NewRootCommand creates the root command with its global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "offcutopt",
		Short: "Offcut reuse optimizer for sheet-material cutting",
		Long: "offcutopt matches the pieces of a cutting order against the offcut inventory,\n" +
			"forecasts the remnants the order leaves behind and reports how efficiently\n" +
			"leftover material is being reused.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.opts.ConfigPath, "config", "c", "", "config file path (default: ~/.offcutopt/config.json)")
	pf.StringVar(&a.opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&a.opts.LogFormat, "log-format", "console", "log format (console, json)")

	cmd.AddCommand(
		newRunCmd(a),
		newRankCmd(a),
		newCompareCmd(a),
		newConfigCmd(a),
		newInventoryCmd(a),
	)
	return cmd
}

// Execute runs the root command. Cancelling ctx aborts a running engine
// between pieces.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init() error {
	logger, err := newLogger(a.opts.LogLevel, a.opts.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger

	path := a.opts.ConfigPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	cfg, err := project.LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", zap.String("path", path))
	return nil
}

// newLogger builds the zap logger. Logs go to stderr so command output on
// stdout stays machine readable.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var encCfg zapcore.EncoderConfig
	switch format {
	case "console":
		encCfg = zap.NewDevelopmentEncoderConfig()
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (want console or json)", format)
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      format == "console",
		Encoding:         format,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// loadOrder reads an order from JSON, or imports its pieces from CSV/XLSX.
// Non-empty material and thickness override the values in the file.
func (a *app) loadOrder(path, material string, thickness float64) (model.Order, error) {
	var order model.Order

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		o, err := project.LoadOrder(path)
		if err != nil {
			return model.Order{}, err
		}
		order = o
	default:
		res := importer.Import(path)
		for _, w := range res.Warnings {
			a.logger.Warn("order import", zap.String("file", path), zap.String("warning", w))
		}
		for _, e := range res.Errors {
			a.logger.Error("order import", zap.String("file", path), zap.String("error", e))
		}
		if len(res.Pieces) == 0 {
			return model.Order{}, fmt.Errorf("no pieces imported from %s", path)
		}
		base := filepath.Base(path)
		order = model.Order{
			ID:     strings.TrimSuffix(base, filepath.Ext(base)),
			Pieces: res.Pieces,
		}
	}

	if material != "" {
		order.MaterialCode = material
	}
	if thickness > 0 {
		order.Thickness = thickness
	}
	return order, nil
}

// snapshot narrows the inventory to the order's material. Orders without a
// material code see the whole inventory.
func (a *app) snapshot(order model.Order, inv model.Inventory) model.Inventory {
	if order.MaterialCode == "" {
		return inv
	}
	return model.Inventory{Offcuts: inv.ForMaterial(order.MaterialCode, order.Thickness, a.cfg.ThicknessTolerance)}
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
