package replay

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/menmos/blockranges"
)

// Result summarizes a replay.
type Result struct {
	// Requests is the number of ranges fetched completely.
	Requests int

	// Bytes is the number of body bytes received.
	Bytes int64

	Elapsed time.Duration
}

// Replay resolves redirects and then fetches every range in order, discarding
// the data. It stops at the first failed range.
func (c *Client) Replay(ctx context.Context, ranges []blockranges.Range) (Result, error) {
	var result Result
	started := time.Now()

	if err := c.Resolve(ctx); err != nil {
		return result, err
	}

	for i, r := range ranges {
		c.log.Infof("Requesting range %d %s", i, r)

		reader := c.Open(ctx, r)
		n, err := io.Copy(io.Discard, reader)
		reader.Close()

		result.Bytes += n
		if err != nil {
			result.Elapsed = time.Since(started)
			return result, errors.Wrapf(err, "range %d %s", i, r)
		}
		result.Requests++
	}

	result.Elapsed = time.Since(started)
	c.log.Infof("Replayed %d ranges (%d bytes) in %s", result.Requests, result.Bytes, result.Elapsed)
	return result, nil
}
