package analysis_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/analysis"
)

const sampleLog = `new file size: 105234432
0 4095
81920 90111
409600 413695
`

func Test_Parse(t *testing.T) {

	type testCase struct {
		name     string
		src      string
		expected *analysis.Log
		wantErr  bool
		errLine  int
	}

	cases := []testCase{
		{
			"client output",
			sampleLog,
			&analysis.Log{
				Label:     "new file size",
				TotalSize: 105234432,
				Ranges: []blockranges.Range{
					{Start: 0, End: 4095},
					{Start: 81920, End: 90111},
					{Start: 409600, End: 413695},
				},
			},
			false,
			0,
		},
		{"header only", "size:10\n", &analysis.Log{Label: "size", TotalSize: 10}, false, 0},
		{
			"blank lines and extra spacing",
			"size : 10\n\n  1\t2  \n\n",
			&analysis.Log{Label: "size", TotalSize: 10, Ranges: []blockranges.Range{{Start: 1, End: 2}}},
			false,
			0,
		},
		{"empty input", "", nil, true, 0},
		{"header without colon", "size 10\n", nil, true, 1},
		{"header size not a number", "size: ten\n", nil, true, 1},
		{"range with one field", "size: 10\n1\n", nil, true, 2},
		{"range with three fields", "size: 10\n1 2 3\n", nil, true, 2},
		{"range not a number", "size: 10\n0 1\nfoo 2\n", nil, true, 3},
		{"inverted range", "size: 10\n5 1\n", nil, true, 2},
		{"negative range", "size: 10\n-5 1\n", nil, true, 2},
	}

	for _, tCase := range cases {
		t.Run(tCase.name, func(t *testing.T) {
			actual, err := analysis.Parse(strings.NewReader(tCase.src))
			if (err != nil) != tCase.wantErr {
				t.Errorf("expectedErr=%v, gotErr=%v", tCase.wantErr, err)
				return
			}

			if err != nil {
				require.True(t, errors.Is(err, analysis.ErrMalformedLog))

				var parseErr *analysis.ParseError
				require.True(t, errors.As(err, &parseErr))
				require.Equal(t, tCase.errLine, parseErr.Line)
				return
			}

			require.Equal(t, tCase.expected, actual)
		})
	}
}

func TestBlocks(t *testing.T) {
	log, err := analysis.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)

	total, blocks, err := log.Blocks(blockranges.DefaultBlockSize)
	require.NoError(t, err)
	require.Equal(t, int64(25692), total)
	require.Equal(t, []blockranges.Range{{Start: 0, End: 0}, {Start: 20, End: 21}, {Start: 100, End: 100}}, blocks)

	_, _, err = log.Blocks(0)
	require.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	original, err := analysis.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, analysis.Write(&buf, original))
	require.Equal(t, sampleLog, buf.String())

	reparsed, err := analysis.Parse(&buf)
	require.NoError(t, err)
	require.Equal(t, original, reparsed)
}

func TestWriteDefaultLabel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, analysis.Write(&buf, &analysis.Log{TotalSize: 3}))
	require.Equal(t, "new file size: 3\n", buf.String())
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, analysis.DefaultFileName)

	_, err := analysis.Load(path)
	require.Error(t, err)
	require.True(t, os.IsNotExist(errors.Cause(err)))

	log := &analysis.Log{Label: analysis.DefaultLabel, TotalSize: 8192, Ranges: []blockranges.Range{{Start: 0, End: 4095}}}
	require.NoError(t, analysis.Save(path, log))

	loaded, err := analysis.Load(path)
	require.NoError(t, err)
	require.Equal(t, log, loaded)

	require.NoError(t, os.WriteFile(path, []byte("size: 1\nbroken\n"), 0o644))
	_, err = analysis.Load(path)
	require.True(t, errors.Is(err, analysis.ErrMalformedLog))
}
