package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/analysis"
)

type optimizeOptions struct {
	threshold int64
	output    string
	plot      string
}

func newOptimizeCmd(a *app) *cobra.Command {
	opts := &optimizeOptions{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "merge ranges separated by small gaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = a.cfg.GapThreshold
			}
			return a.optimize(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Int64VarP(&opts.threshold, "threshold", "t", 0, "maximum gap in blocks to merge over (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the merged byte ranges to this analysis file")
	cmd.Flags().StringVar(&opts.plot, "plot", "", "render a heatmap of the merged ranges to this PNG")

	return cmd
}

func (a *app) optimize(out io.Writer, opts *optimizeOptions) error {
	log, totalBlocks, blocks, err := a.load()
	if err != nil {
		return err
	}

	merged, err := blockranges.Merge(blocks, opts.threshold)
	if err != nil {
		return err
	}

	summary := blockranges.Summarize(blocks, merged)
	zap.L().Sugar().With("service", "optimize").Infof(
		"optimized ranges, old requests count %d, new requests count %d", summary.Before.Count, summary.After.Count)

	for _, r := range merged {
		fmt.Fprintf(out, "%s %d\n", r, r.Len())
	}
	printSummary(out, summary, a.cfg.BlockSize)

	if opts.output != "" {
		byteRanges, err := blockranges.ToBytes(merged, a.cfg.BlockSize)
		if err != nil {
			return err
		}
		clampEnd(byteRanges, log.TotalSize)

		mergedLog := &analysis.Log{Label: log.Label, TotalSize: log.TotalSize, Ranges: byteRanges}
		if err := analysis.Save(opts.output, mergedLog); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d ranges to %s\n", len(byteRanges), opts.output)
	}

	if opts.plot != "" {
		if err := a.renderHeatmap(opts.plot, totalBlocks, merged, a.cfg.Heatmap.Columns, a.cfg.Heatmap.CellSize); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote heatmap to %s\n", opts.plot)
	}

	return nil
}

func printSummary(out io.Writer, s blockranges.Summary, blockSize int64) {
	fmt.Fprintf(out, "to_download vs optimized_to_download: %s vs. %s blocks\n",
		humanize.Comma(s.Before.Total), humanize.Comma(s.After.Total))
	fmt.Fprintf(out, "requests: %s -> %s (saved %s)\n",
		humanize.Comma(int64(s.Before.Count)), humanize.Comma(int64(s.After.Count)), humanize.Comma(int64(s.Saved())))
	fmt.Fprintf(out, "overhead: %s\n", humanize.IBytes(uint64(s.Overhead()*blockSize)))
}

// clampEnd keeps byte ranges within a file of the given size. Whole-block
// conversion can otherwise reach past the last byte.
func clampEnd(ranges []blockranges.Range, size int64) {
	if size <= 0 {
		return
	}
	for i := range ranges {
		if ranges[i].End > size-1 {
			ranges[i].End = size - 1
		}
	}
}
