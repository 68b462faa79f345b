package temporal

import (
	"sort"
	"strings"
	"time"
)

// Enrollment is one parsed enrollment row.
type Enrollment struct {
	EnrollmentID string
	PersonalID   string
	EntryDate    time.Time
	HouseholdID  string
}

// Exit is one parsed exit row, linked to its enrollment by EnrollmentID.
type Exit struct {
	ExitID       string
	EnrollmentID string
	PersonalID   string
	ExitDate     time.Time
}

// Index maps personal ids to their temporal profiles.
type Index struct {
	profiles map[string]*Profile
}

// Builder accumulates enrollment and exit rows. Exits may be added before or
// after the enrollments they reference; linking happens in Build.
type Builder struct {
	enrollments []Enrollment
	exits       map[string]time.Time
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{exits: make(map[string]time.Time)}
}

// AddEnrollment records an enrollment row. Rows are kept in insertion order so
// the last household id seen for a person wins.
func (b *Builder) AddEnrollment(e Enrollment) {
	b.enrollments = append(b.enrollments, e)
}

// AddExit records an exit row. A later exit for the same enrollment replaces
// an earlier one.
func (b *Builder) AddExit(x Exit) {
	key := strings.TrimSpace(x.EnrollmentID)
	if key == "" {
		return
	}
	b.exits[key] = x.ExitDate
}

// Build links exits to enrollments and returns the finished index.
func (b *Builder) Build() *Index {
	idx := &Index{profiles: make(map[string]*Profile)}
	for _, e := range b.enrollments {
		id := strings.TrimSpace(e.PersonalID)
		if id == "" {
			continue
		}
		p := idx.profiles[id]
		if p == nil {
			p = &Profile{PersonalID: id}
			idx.profiles[id] = p
		}
		stay := Stay{Entry: e.EntryDate, Exit: e.EntryDate}
		if exit, ok := b.exits[strings.TrimSpace(e.EnrollmentID)]; ok {
			stay.Exit = exit
		}
		p.addStay(stay)
		p.HouseholdID = strings.TrimSpace(e.HouseholdID)
	}
	return idx
}

// Profile returns the profile for personalID, or nil when no enrollment exists.
func (idx *Index) Profile(personalID string) *Profile {
	if idx == nil {
		return nil
	}
	return idx.profiles[personalID]
}

// Len reports how many personal ids have a profile.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.profiles)
}

// PersonalIDs returns the indexed ids in sorted order.
func (idx *Index) PersonalIDs() []string {
	if idx == nil {
		return nil
	}
	ids := make([]string, 0, len(idx.profiles))
	for id := range idx.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
