package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/analysis"
	"github.com/menmos/blockranges/config"
)

// app carries the settings shared by all subcommands.
type app struct {
	cfg *config.Config

	configPath string
	logLevel   string
	file       string
	blockSize  int64
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "blockranges",
		Short: "analyse the byte ranges a delta download needs",
		Long: `
Analyse the block analysis file written by the delta-download client when
ZSYNC2_ANALYZE_BLOCKS is set. The file starts with a "<label>:<size>" header
followed by one "<start> <end>" byte range per line.
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (default: user config dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&a.file, "file", "f", "", "analysis log to read")
	flags.Int64Var(&a.blockSize, "block-size", 0, "block size in bytes")

	root.AddCommand(
		newOptimizeCmd(a),
		newPlotCmd(a),
		newReplayCmd(a),
		newStatsCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.LoadDefault()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if cmd.Flags().Changed("log-level") {
		a.cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("file") {
		a.cfg.AnalysisFile = a.file
	}
	if cmd.Flags().Changed("block-size") {
		a.cfg.BlockSize = a.blockSize
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level '%s'", level)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	return logger, errors.Wrap(err, "failed to build logger")
}

// load reads the analysis log and converts it to blocks.
func (a *app) load() (*analysis.Log, int64, []blockranges.Range, error) {
	log, err := analysis.Load(a.cfg.AnalysisFile)
	if err != nil {
		return nil, 0, nil, err
	}

	totalBlocks, blocks, err := log.Blocks(a.cfg.BlockSize)
	if err != nil {
		return nil, 0, nil, err
	}

	return log, totalBlocks, blocks, nil
}
