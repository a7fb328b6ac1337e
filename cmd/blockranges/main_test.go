package main

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/analysis"
)

const fileSize = 1 << 20

const analysisLog = `new file size: 1048576
0 4095
40960 49151
1040384 1044479
`

type fixture struct {
	dir     string
	config  string
	logFile string
}

func newFixture(t *testing.T, log string) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		config:  filepath.Join(dir, "config.toml"),
		logFile: filepath.Join(dir, analysis.DefaultFileName),
	}
	require.NoError(t, os.WriteFile(f.config, []byte("log_level = \"error\"\n"), 0o644))
	require.NoError(t, os.WriteFile(f.logFile, []byte(log), 0o644))
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", f.config, "--file", f.logFile}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestOptimize(t *testing.T) {
	f := newFixture(t, analysisLog)

	out, err := f.run(t, "optimize")
	require.NoError(t, err)
	require.Contains(t, out, "[0-11] 12\n[254-254] 1\n")
	require.Contains(t, out, "to_download vs optimized_to_download: 4 vs. 13 blocks")
	require.Contains(t, out, "requests: 3 -> 2 (saved 1)")
}

func TestOptimizeZeroThreshold(t *testing.T) {
	f := newFixture(t, analysisLog)

	out, err := f.run(t, "optimize", "--threshold", "0")
	require.NoError(t, err)
	require.Contains(t, out, "[0-0] 1\n[10-11] 2\n[254-254] 1\n")
	require.Contains(t, out, "requests: 3 -> 3 (saved 0)")
}

func TestOptimizeWritesLogAndPlot(t *testing.T) {
	f := newFixture(t, analysisLog)
	output := filepath.Join(f.dir, "optimized.txt")
	plot := filepath.Join(f.dir, "optimized.png")

	_, err := f.run(t, "optimize", "--output", output, "--plot", plot)
	require.NoError(t, err)

	log, err := analysis.Load(output)
	require.NoError(t, err)
	require.Equal(t, int64(fileSize), log.TotalSize)
	require.Equal(t, []blockranges.Range{{Start: 0, End: 49151}, {Start: 1040384, End: 1044479}}, log.Ranges)

	file, err := os.Open(plot)
	require.NoError(t, err)
	defer file.Close()
	_, err = png.Decode(file)
	require.NoError(t, err)
}

func TestPlot(t *testing.T) {
	f := newFixture(t, analysisLog)
	output := filepath.Join(f.dir, "heatmap.png")

	out, err := f.run(t, "plot", "--output", output, "--columns", "16", "--cell-size", "2")
	require.NoError(t, err)
	require.Contains(t, out, "wrote heatmap to "+output)

	file, err := os.Open(output)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)

	// 256 blocks over 16 columns plus the spare row.
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 34, img.Bounds().Dy())
}

func TestPlotRejectsRangesPastEnd(t *testing.T) {
	f := newFixture(t, "new file size: 10\n0 9223372036854775000\n")

	_, err := f.run(t, "plot", "--output", filepath.Join(f.dir, "heatmap.png"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "past the end of the file")
}

func TestStats(t *testing.T) {
	f := newFixture(t, analysisLog)

	out, err := f.run(t, "stats")
	require.NoError(t, err)
	require.Contains(t, out, "file: 1.0 MiB (256 blocks)")
	require.Contains(t, out, "ranges: 3")
	require.Contains(t, out, "blocks to download: 4")
}

func TestReplay(t *testing.T) {
	f := newFixture(t, analysisLog)
	data := make([]byte, fileSize)

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			requests.Add(1)
		}
		http.ServeContent(w, req, "file.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer srv.Close()

	out, err := f.run(t, "replay", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, "done!")
	require.Contains(t, out, "3 requests")
	require.Equal(t, int32(3), requests.Load())

	requests.Store(0)
	out, err = f.run(t, "replay", srv.URL, "--threshold", "64")
	require.NoError(t, err)
	require.Contains(t, out, "2 requests")
	require.Equal(t, int32(2), requests.Load())
}

func TestReplayNeedsTarget(t *testing.T) {
	f := newFixture(t, analysisLog)

	_, err := f.run(t, "replay")
	require.Error(t, err)

	_, err = f.run(t, "replay", "--profile", "missing")
	require.EqualError(t, err, "profile 'missing' not found")
}

func TestErrorsAreSurfaced(t *testing.T) {
	f := newFixture(t, "new file size: 10\n0 4095\nnot a range\n")

	_, err := f.run(t, "optimize")
	require.ErrorIs(t, err, analysis.ErrMalformedLog)

	empty := newFixture(t, "new file size: 10\n")
	_, err = empty.run(t, "optimize")
	require.ErrorIs(t, err, blockranges.ErrInvalidInput)

	missing := newFixture(t, analysisLog)
	require.NoError(t, os.Remove(missing.logFile))
	_, err = missing.run(t, "stats")
	require.Error(t, err)

	_, err = f.run(t, "optimize", "--block-size", "0")
	require.Error(t, err)
}
