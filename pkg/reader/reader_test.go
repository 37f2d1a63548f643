package reader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func gzipped(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func collect(t *testing.T, r RowReader) []map[string]any {
	t.Helper()
	var rows []map[string]any
	for row, err := range r.Rows() {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

const jsonLines = "{\"title\":\"Laptop\",\"price\":\"$295.99\"}\n\n{\"title\":\"Tablet\",\"price\":\"$99.99\"}\n{\"title\":\"Phone\"}"

func TestJSONLinesReader(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		opts Options
	}{
		{"plain", "export.json", []byte(jsonLines), Options{}},
		{"gzip option", "export.json", gzipped(t, jsonLines), Options{Gzip: true}},
		{"gz extension", "export.json.gz", gzipped(t, jsonLines), Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(writeFile(t, tt.file, tt.data), tt.opts)
			require.NoError(t, err)
			defer r.Close()

			rows := collect(t, r)
			require.Len(t, rows, 3)
			assert.Equal(t, "Laptop", rows[0]["title"])
			assert.Equal(t, "$99.99", rows[1]["price"])
			assert.Equal(t, map[string]any{"title": "Phone"}, rows[2])
		})
	}
}

func TestRowsIsRestartable(t *testing.T) {
	r, err := OpenJSONLines(writeFile(t, "export.json", []byte(jsonLines)), Options{})
	require.NoError(t, err)
	defer r.Close()

	first := collect(t, r)
	second := collect(t, r)
	assert.Equal(t, first, second)

	count := 0
	for range r.Rows() {
		count++
		break
	}
	assert.Equal(t, 1, count)
	assert.Len(t, collect(t, r), 3, "breaking early does not affect the next pass")
}

func TestJSONLinesReaderBadLine(t *testing.T) {
	r, err := OpenJSONLines(writeFile(t, "bad.json", []byte("{\"a\":1}\nnot json\n{\"a\":2}\n")), Options{})
	require.NoError(t, err)
	defer r.Close()

	var good int
	var lastErr error
	for _, err := range r.Rows() {
		if err != nil {
			lastErr = err
			continue
		}
		good++
	}

	assert.Equal(t, 1, good)
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "line 2")
}

func TestJSONLinesReaderNotGzip(t *testing.T) {
	r, err := OpenJSONLines(writeFile(t, "plain.json", []byte(jsonLines)), Options{Gzip: true})
	require.NoError(t, err)
	defer r.Close()

	for _, err := range r.Rows() {
		assert.Error(t, err)
	}
}

func TestCSVReader(t *testing.T) {
	data := "\ufefftitle,price,url\nLaptop,$295.99,https://example.com/1\n\"Tablet, 7\"\"\",$99.99,https://example.com/2\nShort\n"

	for name, content := range map[string][]byte{
		"export.csv":    []byte(data),
		"export.csv.gz": gzipped(t, data),
	} {
		t.Run(name, func(t *testing.T) {
			r, err := Open(writeFile(t, name, content), Options{})
			require.NoError(t, err)
			defer r.Close()

			rows := collect(t, r)
			require.Len(t, rows, 3)
			assert.Equal(t, map[string]any{"title": "Laptop", "price": "$295.99", "url": "https://example.com/1"}, rows[0])
			assert.Equal(t, "Tablet, 7\"", rows[1]["title"])
			assert.Equal(t, map[string]any{"title": "Short", "price": "", "url": ""}, rows[2])
		})
	}
}

func TestCSVReaderEmptyFile(t *testing.T) {
	r, err := OpenCSV(writeFile(t, "empty.csv", nil), Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, collect(t, r))
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(writeFile(t, "export.xlsx", []byte("PK")), Options{})
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.json"), Options{})
	assert.Error(t, err)
}
