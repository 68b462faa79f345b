package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// USDateLayout is the primary HMIS export layout (M/d/yyyy).
	USDateLayout = "1/2/2006"
	// ISODateLayout is the secondary layout (yyyy-M-d).
	ISODateLayout = "2006-1-2"
)

// ErrUnparsableDate reports a value matching neither accepted layout.
var ErrUnparsableDate = errors.New("unparsable date")

// ParseDate parses value as M/d/yyyy, falling back to yyyy-M-d.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if t, err := time.Parse(USDateLayout, trimmed); err == nil {
		return t, nil
	}
	if t, err := time.Parse(ISODateLayout, trimmed); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, value)
}

// FormatDate renders t in the primary M/d/yyyy layout.
func FormatDate(t time.Time) string {
	return t.Format(USDateLayout)
}
