package hmis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Reader streams the rows of one CSV file. The first row is the header.
type Reader struct {
	path   string
	file   *os.File
	csv    *csv.Reader
	header []string
	line   int
}

// Open opens path and reads its header row. An empty file yields
// io.EOF wrapped with the path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := &Reader{path: path, file: file, csv: newCSVReader(file)}
	header, err := r.csv.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	r.header = header
	return r, nil
}

func newCSVReader(src io.Reader) *csv.Reader {
	decoded := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// Path is the file being read.
func (r *Reader) Path() string { return r.path }

// Header returns the header row.
func (r *Reader) Header() []string { return r.header }

// Line is the 1-based data row number of the last row returned by Next.
func (r *Reader) Line() int { return r.line }

// Next returns the next data row, or io.EOF when the file is exhausted.
// Blank lines are skipped by the CSV decoder.
func (r *Reader) Next() ([]string, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read %s row %d: %w", r.path, r.line+1, err)
	}
	r.line++
	return row, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
