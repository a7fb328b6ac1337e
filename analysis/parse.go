package analysis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menmos/blockranges"
)

// ErrMalformedLog is matched by every parse error.
var ErrMalformedLog = errors.New("malformed analysis log")

// A ParseError reports the line that could not be parsed.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedLog) hold for every ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedLog
}

func parseHeader(line string) (string, int64, error) {
	label, size, ok := strings.Cut(line, ":")
	if !ok {
		return "", 0, errors.New("header should be '<label>:<size>'")
	}

	totalSize, err := strconv.ParseInt(strings.TrimSpace(size), 10, 64)
	if err != nil {
		return "", 0, errors.New("file size is not an integer")
	}
	if totalSize < 0 {
		return "", 0, errors.New("file size is negative")
	}

	return strings.TrimSpace(label), totalSize, nil
}

func parseRange(line string) (blockranges.Range, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return blockranges.Range{}, errors.New("range should be two integers")
	}

	start, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return blockranges.Range{}, errors.New("range start is not an integer")
	}

	end, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return blockranges.Range{}, errors.New("range end is not an integer")
	}

	if start < 0 || start > end {
		return blockranges.Range{}, errors.New("range bounds are out of order")
	}

	return blockranges.Range{Start: start, End: end}, nil
}

// Parse reads an analysis log. It stops at the first line it cannot parse.
func Parse(r io.Reader) (*Log, error) {
	scanner := bufio.NewScanner(r)
	log := &Log{}

	lineNo := 0
	sawHeader := false
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !sawHeader {
			label, size, err := parseHeader(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: err.Error()}
			}
			log.Label, log.TotalSize = label, size
			sawHeader = true
			continue
		}

		rng, err := parseRange(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: err.Error()}
		}
		log.Ranges = append(log.Ranges, rng)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read analysis log")
	}

	if !sawHeader {
		return nil, &ParseError{Line: lineNo, Reason: "missing header"}
	}

	return log, nil
}

// Load parses the analysis log stored at path.
func Load(path string) (*Log, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open analysis log")
	}
	defer file.Close()

	log, err := Parse(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	zap.L().Sugar().With("service", "analysis").Debugf("Loaded %d ranges from %s (file size %d)", len(log.Ranges), path, log.TotalSize)
	return log, nil
}

// Save writes l to path, replacing any existing file.
func Save(path string, l *Log) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create analysis log")
	}

	if err := Write(file, l); err != nil {
		file.Close()
		return err
	}

	return errors.Wrap(file.Close(), "failed to close analysis log")
}
