package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/analysis"
	"github.com/menmos/blockranges/replay"
)

type replayOptions struct {
	profile   string
	threshold int64
}

func newReplayCmd(a *app) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay [URL]",
		Short: "request every range from a server, one request per range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.replayClient(args, opts.profile)
			if err != nil {
				return err
			}

			log, err := analysis.Load(a.cfg.AnalysisFile)
			if err != nil {
				return err
			}

			ranges := log.Ranges
			if opts.threshold >= 0 {
				ranges, err = blockranges.Merge(ranges, opts.threshold*a.cfg.BlockSize)
				if err != nil {
					return err
				}
			}

			result, err := client.Replay(cmd.Context(), ranges)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "done!")
			fmt.Fprintf(out, "%d requests, %s in %s\n", result.Requests, humanize.IBytes(uint64(result.Bytes)), result.Elapsed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "replay against a configured profile")
	cmd.Flags().Int64VarP(&opts.threshold, "threshold", "t", -1, "merge ranges separated by at most this many blocks first (negative disables)")

	return cmd
}

func (a *app) replayClient(args []string, profileName string) (*replay.Client, error) {
	switch {
	case len(args) == 1 && profileName != "":
		return nil, errors.New("pass either a URL or --profile, not both")
	case len(args) == 1:
		return replay.New(args[0])
	case profileName != "":
		profile, err := a.cfg.Profile(profileName)
		if err != nil {
			return nil, err
		}
		return replay.NewFromProfile(profile)
	}
	return nil, errors.New("a URL or --profile is required")
}
