package matching

import (
	"fmt"
	"strings"
	"time"

	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// DefaultAdultAge is the age at first enrollment from which the twin filter is trusted.
const DefaultAdultAge = 18

// TwinSSNPolicy selects how SSNs take part in the twin filter.
type TwinSSNPolicy int

const (
	// TwinSSNDiffer requires the siblings to carry different SSNs.
	TwinSSNDiffer TwinSSNPolicy = iota
	// TwinSSNMatch requires the siblings to carry the same SSN.
	TwinSSNMatch
	// TwinSSNIgnore leaves SSNs out of the filter.
	TwinSSNIgnore
)

// ParseTwinSSNPolicy converts a configuration value into a TwinSSNPolicy.
func ParseTwinSSNPolicy(value string) (TwinSSNPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "differ":
		return TwinSSNDiffer, nil
	case "match":
		return TwinSSNMatch, nil
	case "ignore":
		return TwinSSNIgnore, nil
	default:
		return TwinSSNDiffer, fmt.Errorf("unknown twin ssn policy %q", value)
	}
}

func (p TwinSSNPolicy) String() string {
	switch p {
	case TwinSSNMatch:
		return "match"
	case TwinSSNIgnore:
		return "ignore"
	default:
		return "differ"
	}
}

func (p TwinSSNPolicy) holds(a, b *record.Client) bool {
	switch p {
	case TwinSSNMatch:
		return a.SSN == b.SSN
	case TwinSSNIgnore:
		return true
	default:
		return a.SSN != b.SSN
	}
}

// TwinFilter recognises the multiple-birth signature: same last name and date
// of birth, different non-empty first names, adult at first enrollment.
type TwinFilter struct {
	AdultAge int
	SSN      TwinSSNPolicy
}

// Applies reports whether a and b look like distinct siblings. The earliest
// entry date across both profiles drives the age gate; when neither profile
// has one the gate cannot pass and the filter does not apply.
func (f TwinFilter) Applies(a, b *record.Client, pa, pb *temporal.Profile) bool {
	if a.LastName != b.LastName || !a.DOB.Equal(b.DOB) {
		return false
	}
	if a.FirstName == "" || b.FirstName == "" || a.FirstName == b.FirstName {
		return false
	}
	if !f.SSN.holds(a, b) {
		return false
	}
	entry, ok := earliestEntry(pa, pb)
	if !ok {
		return false
	}
	age := f.AdultAge
	if age <= 0 {
		age = DefaultAdultAge
	}
	return !a.DOB.After(entry.AddDate(-age, 0, 0))
}

func earliestEntry(pa, pb *temporal.Profile) (time.Time, bool) {
	ea, okA := pa.EarliestEntry()
	eb, okB := pb.EarliestEntry()
	switch {
	case okA && okB:
		if eb.Before(ea) {
			return eb, true
		}
		return ea, true
	case okA:
		return ea, true
	case okB:
		return eb, true
	default:
		return time.Time{}, false
	}
}
