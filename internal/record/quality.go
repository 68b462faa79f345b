package record

import "strings"

// Quality is the HMIS data-quality level reported alongside an identifying field.
type Quality int

const (
	// QualityUnset covers empty or unrecognised codes.
	QualityUnset Quality = iota
	// QualityFull is a complete, verified report (code "1").
	QualityFull
	// QualityPartial is an approximate or partial report (code "2").
	QualityPartial
	// QualityUnknown means the client doesn't know (code "8").
	QualityUnknown
	// QualityRefused means the client refused (code "9").
	QualityRefused
	// QualityMissing means the data was not collected (code "99").
	QualityMissing
)

// ParseQuality maps an HMIS quality code onto a Quality level.
func ParseQuality(code string) Quality {
	switch strings.TrimSpace(code) {
	case "1":
		return QualityFull
	case "2":
		return QualityPartial
	case "8":
		return QualityUnknown
	case "9":
		return QualityRefused
	case "99":
		return QualityMissing
	default:
		return QualityUnset
	}
}

// String returns a readable label for logs and reports.
func (q Quality) String() string {
	switch q {
	case QualityFull:
		return "full"
	case QualityPartial:
		return "partial"
	case QualityUnknown:
		return "unknown"
	case QualityRefused:
		return "refused"
	case QualityMissing:
		return "missing"
	default:
		return "unset"
	}
}
