package temporal

import "time"

// Stay is one enrollment span. Exit equals Entry when no exit was recorded.
type Stay struct {
	Entry time.Time
	Exit  time.Time
}

// Profile collects the stays and household of a single personal id.
type Profile struct {
	PersonalID  string
	Stays       []Stay
	HouseholdID string

	earliest time.Time
}

// EarliestEntry returns the first known entry date. The boolean is false when
// the profile has no stays.
func (p *Profile) EarliestEntry() (time.Time, bool) {
	if p == nil || p.earliest.IsZero() {
		return time.Time{}, false
	}
	return p.earliest, true
}

func (p *Profile) addStay(s Stay) {
	p.Stays = append(p.Stays, s)
	if p.earliest.IsZero() || s.Entry.Before(p.earliest) {
		p.earliest = s.Entry
	}
}

// StayConflict reports whether a and b hold stays that cannot belong to the
// same person: a stay of b either surrounds the start of a stay of a, or starts
// while that stay of a is open. A nil or empty profile never conflicts.
func StayConflict(a, b *Profile) bool {
	if a == nil || b == nil || len(a.Stays) == 0 || len(b.Stays) == 0 {
		return false
	}
	for _, s1 := range a.Stays {
		for _, s2 := range b.Stays {
			if s2.Entry.Before(s1.Entry) {
				if s2.Exit.After(s1.Entry) {
					return true
				}
			} else if s2.Entry.Before(s1.Exit) {
				return true
			}
		}
	}
	return false
}
