package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/heatmap"
)

type plotOptions struct {
	output   string
	columns  int
	cellSize int
}

func newPlotCmd(a *app) *cobra.Command {
	opts := &plotOptions{}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "render a heatmap of the downloaded blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("columns") {
				opts.columns = a.cfg.Heatmap.Columns
			}
			if !cmd.Flags().Changed("cell-size") {
				opts.cellSize = a.cfg.Heatmap.CellSize
			}

			_, totalBlocks, blocks, err := a.load()
			if err != nil {
				return err
			}

			if err := a.renderHeatmap(opts.output, totalBlocks, blocks, opts.columns, opts.cellSize); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote heatmap to %s\n", opts.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "heatmap.png", "PNG file to write")
	cmd.Flags().IntVar(&opts.columns, "columns", 0, "blocks per row (default from config)")
	cmd.Flags().IntVar(&opts.cellSize, "cell-size", 0, "pixels per block (default from config)")

	return cmd
}

func (a *app) renderHeatmap(path string, totalBlocks int64, blocks []blockranges.Range, columns, cellSize int) error {
	grid, err := heatmap.NewGrid(totalBlocks, blocks, columns)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create heatmap file")
	}

	if err := heatmap.Render(file, grid, cellSize); err != nil {
		file.Close()
		return err
	}

	counts := grid.Counts()
	zap.L().Sugar().With("service", "plot").Debugf("Rendered %dx%d grid: %d downloaded, %d present, %d outside",
		grid.Columns(), grid.Rows(), counts[heatmap.Downloaded], counts[heatmap.Present], counts[heatmap.Outside])

	return errors.Wrap(file.Close(), "failed to close heatmap file")
}
