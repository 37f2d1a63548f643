package reader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Options control how an export file is opened
type Options struct {
	// Gzip decompresses the file while reading
	Gzip bool
}

// RowReader yields the records of a downloaded export
type RowReader interface {
	// Rows reads the file from the start on every call
	Rows() iter.Seq2[map[string]any, error]
	Close() error
}

// Open picks a reader by file extension. A trailing .gz enables Gzip.
func Open(path string, opts Options) (RowReader, error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".gz") {
		opts.Gzip = true
		name = strings.TrimSuffix(name, ".gz")
	}

	switch filepath.Ext(name) {
	case ".json", ".jsonl", ".ndjson":
		return OpenJSONLines(path, opts)
	case ".csv":
		return OpenCSV(path, opts)
	default:
		return nil, fmt.Errorf("unsupported export file %q (expected .json or .csv)", filepath.Base(path))
	}
}

// source is an open file that can be re-read from the start
type source struct {
	file *os.File
	opts Options
}

func openSource(path string, opts Options) (*source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	return &source{file: file, opts: opts}, nil
}

// rewind returns a reader positioned at the start of the decoded content
// and a function releasing the decompressor
func (s *source) rewind() (io.Reader, func(), error) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("failed to rewind export: %w", err)
	}
	if !s.opts.Gzip {
		return s.file, func() {}, nil
	}
	zr, err := gzip.NewReader(s.file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return zr, func() { zr.Close() }, nil
}

func (s *source) Close() error {
	return s.file.Close()
}

// JSONLinesReader reads newline delimited JSON records
type JSONLinesReader struct {
	*source
}

// OpenJSONLines opens a JSON lines export
func OpenJSONLines(path string, opts Options) (*JSONLinesReader, error) {
	src, err := openSource(path, opts)
	if err != nil {
		return nil, err
	}
	return &JSONLinesReader{source: src}, nil
}

// Rows yields one record per non-blank line. A line that is not a JSON
// object yields an error and ends the sequence.
func (r *JSONLinesReader) Rows() iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		in, release, err := r.rewind()
		if err != nil {
			yield(nil, err)
			return
		}
		defer release()

		br := bufio.NewReader(in)
		for lineNo := 1; ; lineNo++ {
			line, readErr := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				var record map[string]any
				if err := json.Unmarshal(line, &record); err != nil {
					yield(nil, fmt.Errorf("line %d: %w", lineNo, err))
					return
				}
				if !yield(record, nil) {
					return
				}
			}
			if errors.Is(readErr, io.EOF) {
				return
			}
			if readErr != nil {
				yield(nil, fmt.Errorf("failed to read export: %w", readErr))
				return
			}
		}
	}
}

// CSVReader reads CSV exports keyed by the header row
type CSVReader struct {
	*source
}

// OpenCSV opens a CSV export
func OpenCSV(path string, opts Options) (*CSVReader, error) {
	src, err := openSource(path, opts)
	if err != nil {
		return nil, err
	}
	return &CSVReader{source: src}, nil
}

// Rows yields one record per data row with string values
func (r *CSVReader) Rows() iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		in, release, err := r.rewind()
		if err != nil {
			yield(nil, err)
			return
		}
		defer release()

		cr := csv.NewReader(in)
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("failed to read header: %w", err))
			return
		}
		if len(header) > 0 {
			header[0] = strings.TrimPrefix(header[0], "\ufeff")
		}

		for {
			row, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}

			record := make(map[string]any, len(header))
			for i, column := range header {
				if i < len(row) {
					record[column] = row[i]
				} else {
					record[column] = ""
				}
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}
