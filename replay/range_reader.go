package replay

import (
	"context"
	"io"

	"github.com/menmos/blockranges"
)

// rangeReader fetches a single range lazily on the first Read and yields
// exactly Range.Len() bytes.
type rangeReader struct {
	ctx    context.Context
	client *Client
	rng    blockranges.Range

	body      io.ReadCloser
	remaining int64
}

// Open returns a reader over the given byte range of the target.
func (c *Client) Open(ctx context.Context, r blockranges.Range) io.ReadCloser {
	return &rangeReader{ctx: ctx, client: c, rng: r, remaining: r.Len()}
}

func (r *rangeReader) Read(buf []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	if r.body == nil {
		body, err := r.client.readRange(r.ctx, r.rng.Start, r.rng.End)
		if err != nil {
			return 0, err
		}
		r.body = body
	}

	if int64(len(buf)) > r.remaining {
		buf = buf[:r.remaining]
	}

	readCount, err := r.body.Read(buf)
	r.remaining -= int64(readCount)

	if err == io.EOF && r.remaining > 0 {
		return readCount, io.ErrUnexpectedEOF
	}
	if err == io.EOF && readCount > 0 {
		return readCount, nil
	}
	return readCount, err
}

func (r *rangeReader) Close() error {
	if r.body == nil {
		return nil
	}
	return r.body.Close()
}
