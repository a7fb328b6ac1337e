// Command blockranges inspects the block analysis file written by the
// delta-download client: it merges nearby ranges, plots which blocks were
// needed and replays the ranges against an HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockranges: %v\n", err)
		stop()
		os.Exit(1)
	}
}
