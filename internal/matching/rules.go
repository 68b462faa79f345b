package matching

import (
	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// minFieldMatches is the field agreement both rules require, and the number of
// distinguishing disagreements that rejects a soft lenient match.
const minFieldMatches = 2

// Rule identifies which heuristic accepted a pair.
type Rule int

const (
	// RuleNone means neither rule matched.
	RuleNone Rule = iota
	// RuleStrict is Rule A: verified SSN plus field agreement.
	RuleStrict
	// RuleLenient is Rule B: SSN or field agreement, screened for distinctions.
	RuleLenient
)

func (r Rule) String() string {
	switch r {
	case RuleStrict:
		return "strict"
	case RuleLenient:
		return "lenient"
	default:
		return "none"
	}
}

// Options configures a Matcher.
type Options struct {
	InvalidSSNs []string
	AdultAge    int
	TwinSSN     TwinSSNPolicy
	Strict      bool
	Lenient     bool
}

// DefaultOptions enables both rules with the standard thresholds.
func DefaultOptions() Options {
	return Options{
		InvalidSSNs: DefaultInvalidSSNs,
		AdultAge:    DefaultAdultAge,
		TwinSSN:     TwinSSNDiffer,
		Strict:      true,
		Lenient:     true,
	}
}

// Stats counts rule outcomes and vetoes. Vetoes are tallied only for pairs
// whose positive evidence already satisfied a rule, and every veto is evaluated
// so one pair may raise several counters.
type Stats struct {
	Comparisons        int64 `json:"comparisons" yaml:"comparisons"`
	StrictMatches      int64 `json:"strict_matches" yaml:"strict_matches"`
	LenientMatches     int64 `json:"lenient_matches" yaml:"lenient_matches"`
	StayConflicts      int64 `json:"stay_conflicts" yaml:"stay_conflicts"`
	HouseholdConflicts int64 `json:"household_conflicts" yaml:"household_conflicts"`
	TwinVetoes         int64 `json:"twin_vetoes" yaml:"twin_vetoes"`
	DistinctionVetoes  int64 `json:"distinction_vetoes" yaml:"distinction_vetoes"`
}

// Matcher evaluates Rule A and Rule B against a temporal index.
type Matcher struct {
	index   *temporal.Index
	ssn     SSNValidator
	twins   TwinFilter
	strict  bool
	lenient bool
	stats   Stats
}

// NewMatcher constructs a Matcher. A nil index behaves as an index with no
// enrollment history.
func NewMatcher(index *temporal.Index, opts Options) *Matcher {
	return &Matcher{
		index:   index,
		ssn:     NewSSNValidator(opts.InvalidSSNs),
		twins:   TwinFilter{AdultAge: opts.AdultAge, SSN: opts.TwinSSN},
		strict:  opts.Strict,
		lenient: opts.Lenient,
	}
}

// Stats returns a snapshot of the counters.
func (m *Matcher) Stats() Stats { return m.stats }

// SSNMatch reports whether a and b carry the same verified, admissible SSN
// under the configured placeholder list.
func (m *Matcher) SSNMatch(a, b *record.Client) bool { return m.ssn.Match(a, b) }

// Index returns the temporal index the matcher consults.
func (m *Matcher) Index() *temporal.Index { return m.index }

// TwinFilter exposes the configured twin filter.
func (m *Matcher) TwinFilter() TwinFilter { return m.twins }

// Twins reports whether the configured twin filter applies to a and b.
func (m *Matcher) Twins(a, b *record.Client) bool {
	return m.twins.Applies(a, b, m.index.Profile(a.PersonalID), m.index.Profile(b.PersonalID))
}

// Match tries Rule A, then Rule B, and reports the first rule that accepts.
func (m *Matcher) Match(incoming, anchor *record.Client) Rule {
	m.stats.Comparisons++
	if m.strict && m.MatchStrict(incoming, anchor) {
		m.stats.StrictMatches++
		return RuleStrict
	}
	if m.lenient && m.MatchLenient(incoming, anchor) {
		m.stats.LenientMatches++
		return RuleLenient
	}
	return RuleNone
}

// MatchStrict applies Rule A.
func (m *Matcher) MatchStrict(a, b *record.Client) bool {
	if !m.ssn.Match(a, b) {
		return false
	}
	fieldsA := []string{a.FirstName, a.LastName, a.Gender, a.BirthMonth()}
	fieldsB := []string{b.FirstName, b.LastName, b.Gender, b.BirthMonth()}
	if CountEqualNonEmpty(fieldsA, fieldsB) < minFieldMatches {
		return false
	}
	return !m.vetoed(a, b)
}

// MatchLenient applies Rule B. A hard match (verified SSN and field agreement)
// skips the distinction check; a soft match must survive it.
func (m *Matcher) MatchLenient(a, b *record.Client) bool {
	stepA := m.ssn.Match(a, b)
	stepB := CountEqualNonEmpty(
		[]string{a.FirstName, a.LastName, a.DOBText()},
		[]string{b.FirstName, b.LastName, b.DOBText()},
	) >= minFieldMatches
	if !stepA && !stepB {
		return false
	}
	if !(stepA && stepB) {
		distinct := CountUnequalNonEmpty(
			[]string{a.Gender, a.Suffix, a.BirthDay(), a.BirthMonth(), a.BirthYear()},
			[]string{b.Gender, b.Suffix, b.BirthDay(), b.BirthMonth(), b.BirthYear()},
		)
		if distinct >= minFieldMatches {
			m.stats.DistinctionVetoes++
			return false
		}
	}
	return !m.vetoed(a, b)
}

// vetoed evaluates every veto so each is counted, and reports whether any
// applied. Rows sharing a personal id share one profile, which cannot
// conflict with itself, so only the twin filter applies to them.
func (m *Matcher) vetoed(a, b *record.Client) bool {
	pa := m.index.Profile(a.PersonalID)
	pb := m.index.Profile(b.PersonalID)

	twin := m.twins.Applies(a, b, pa, pb)
	var stay, household bool
	if a.PersonalID != b.PersonalID {
		stay = temporal.StayConflict(pa, pb)
		household = HouseholdConflict(pa, pb)
	}

	if twin {
		m.stats.TwinVetoes++
	}
	if stay {
		m.stats.StayConflicts++
	}
	if household {
		m.stats.HouseholdConflicts++
	}
	return twin || stay || household
}
