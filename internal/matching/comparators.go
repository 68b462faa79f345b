package matching

import (
	"strings"

	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// DefaultInvalidSSNs lists the placeholder SSNs that never identify anyone.
var DefaultInvalidSSNs = []string{"999999999", "000000000"}

// SSNValidator checks SSN admissibility against a set of placeholder values.
type SSNValidator struct {
	invalid map[string]struct{}
}

// NewSSNValidator builds a validator rejecting the given placeholder values.
// A nil slice selects DefaultInvalidSSNs.
func NewSSNValidator(invalid []string) SSNValidator {
	if invalid == nil {
		invalid = DefaultInvalidSSNs
	}
	set := make(map[string]struct{}, len(invalid))
	for _, v := range invalid {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return SSNValidator{invalid: set}
}

var defaultSSNValidator = NewSSNValidator(nil)

// Admissible reports whether ssn is non-empty and not a placeholder.
func (v SSNValidator) Admissible(ssn string) bool {
	if ssn == "" {
		return false
	}
	_, bad := v.invalid[ssn]
	return !bad
}

// Match reports whether both records carry the same admissible SSN and both
// report it at full quality.
func (v SSNValidator) Match(a, b *record.Client) bool {
	if !v.Admissible(a.SSN) || !v.Admissible(b.SSN) {
		return false
	}
	if a.SSN != b.SSN {
		return false
	}
	return a.SSNQuality == record.QualityFull && b.SSNQuality == record.QualityFull
}

// IsAdmissibleSSN applies the default placeholder set.
func IsAdmissibleSSN(ssn string) bool {
	return defaultSSNValidator.Admissible(ssn)
}

// SSNsMatch applies the default placeholder set.
func SSNsMatch(a, b *record.Client) bool {
	return defaultSSNValidator.Match(a, b)
}

// CountEqualNonEmpty counts positions where a and b agree and a is non-empty.
func CountEqualNonEmpty(a, b []string) int {
	n := min(len(a), len(b))
	count := 0
	for i := 0; i < n; i++ {
		if a[i] != "" && a[i] == b[i] {
			count++
		}
	}
	return count
}

// CountUnequalNonEmpty counts positions where a and b disagree. An empty value
// on either side carries no information and never counts.
func CountUnequalNonEmpty(a, b []string) int {
	n := min(len(a), len(b))
	count := 0
	for i := 0; i < n; i++ {
		if a[i] != "" && b[i] != "" && a[i] != b[i] {
			count++
		}
	}
	return count
}

// HouseholdConflict reports whether both profiles name the same non-empty
// household. Members of one household enrolled together are distinct people.
func HouseholdConflict(a, b *temporal.Profile) bool {
	if a == nil || b == nil {
		return false
	}
	return a.HouseholdID != "" && a.HouseholdID == b.HouseholdID
}
