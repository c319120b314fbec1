package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robert-malhotra/phicore"
	"github.com/robert-malhotra/phicore/internal/config"
)

// app carries the state shared by the subcommands.
type app struct {
	configFile string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "phicore",
		Short: "Inspect and validate phicore beam data containers.",
		Long: `phicore reads HDF5 containers holding spatio-temporal laser beam
metrology data. It validates their layout, lists the stored variables and
summarizes their contents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.startup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "configuration file location")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.validateCmd(),
		a.lsCmd(),
		a.attrsCmd(),
		a.showCmd(),
		a.treeCmd(),
	)
	return root
}

// startup loads the configuration and builds the logger.
func (a *app) startup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	level, err := cfg.ZapLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	log, err := zc.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	a.log.Debug("configuration loaded", zap.String("config", a.configFile), zap.Stringer("level", level))
	return nil
}

func (a *app) open(path string) (*phicore.File, error) {
	return phicore.Open(path, phicore.ModeRead, phicore.WithLogger(a.log))
}
