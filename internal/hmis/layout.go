package hmis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a required column is neither named in
// the header nor covered by its positional default.
var ErrMissingColumn = errors.New("missing column")

// Column describes where a field lives. Names are matched case-insensitively
// against the header; Position is the standard export position.
type Column struct {
	Names    []string
	Position int
	Optional bool
}

func col(position int, names ...string) Column {
	return Column{Names: names, Position: position}
}

func optional(position int, names ...string) Column {
	return Column{Names: names, Position: position, Optional: true}
}

// Layout maps field keys to resolved column indexes. Missing optional
// columns resolve to -1.
type Layout struct {
	index map[string]int
	width int
}

// HeaderIndex returns the index of the first header cell equal to one of
// names, ignoring case and surrounding space, or -1.
func HeaderIndex(header []string, names ...string) int {
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, name := range names {
			if normalized == strings.ToLower(name) {
				return i
			}
		}
	}
	return -1
}

// Resolve builds a Layout for header from the given columns. When at least
// one column is found by name the header is trusted and unnamed columns are
// missing. When none is, the header is treated as unrecognised and every
// column takes its standard position.
func Resolve(header []string, columns map[string]Column) (Layout, error) {
	named := make(map[string]int, len(columns))
	for key, c := range columns {
		if idx := HeaderIndex(header, c.Names...); idx >= 0 {
			named[key] = idx
		}
	}
	byPosition := len(named) == 0

	l := Layout{index: make(map[string]int, len(columns))}
	for key, c := range columns {
		idx, ok := named[key]
		if !ok {
			idx = -1
			if byPosition && c.Position >= 0 && c.Position < len(header) {
				idx = c.Position
			}
		}
		if idx < 0 && !c.Optional {
			return Layout{}, fmt.Errorf("%w: %s", ErrMissingColumn, c.Names[0])
		}
		l.index[key] = idx
		if !c.Optional && idx+1 > l.width {
			l.width = idx + 1
		}
	}
	return l, nil
}

// Fits reports whether row is wide enough to carry every required column.
func (l Layout) Fits(row []string) bool {
	return len(row) >= l.width
}

// Get returns the trimmed cell for key, or "" when the column is absent or
// the row is too short.
func (l Layout) Get(row []string, key string) string {
	idx, ok := l.index[key]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Index returns the resolved column index for key.
func (l Layout) Index(key string) int {
	idx, ok := l.index[key]
	if !ok {
		return -1
	}
	return idx
}
