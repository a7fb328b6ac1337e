package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/menmos/blockranges"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print range counts and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, totalBlocks, blocks, err := a.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file: %s (%s blocks)\n", humanize.IBytes(uint64(log.TotalSize)), humanize.Comma(totalBlocks))
			fmt.Fprintf(out, "ranges: %s\n", humanize.Comma(int64(len(log.Ranges))))
			fmt.Fprintf(out, "bytes to download: %s\n", humanize.IBytes(uint64(blockranges.Total(log.Ranges))))
			fmt.Fprintf(out, "blocks to download: %s\n", humanize.Comma(blockranges.Total(blocks)))
			return nil
		},
	}
}
