package testsupport

import (
	"testing"
	"time"

	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// NewClient builds a record.Client from raw fields, failing the test on error.
// The source line is synthesised from the fields in Client.csv column order.
func NewClient(t testing.TB, f record.Fields) *record.Client {
	t.Helper()
	line := []string{
		f.PersonalID, f.FirstName, "", f.LastName, f.Suffix, f.NameQuality,
		f.SSN, f.SSNQuality, f.DOB, f.DOBQuality,
	}
	c, err := record.NewClient(f, line, record.DefaultSentinelDOB)
	if err != nil {
		t.Fatalf("NewClient(%s): %v", f.PersonalID, err)
	}
	return c
}

// Date parses an M/d/yyyy or yyyy-M-d literal, failing the test on error.
func Date(t testing.TB, value string) time.Time {
	t.Helper()
	d, err := record.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}

// Stay describes one enrollment for IndexOf.
type Stay struct {
	PersonalID string
	Entry      string
	Exit       string
	Household  string
}

// IndexOf builds a temporal index from compact stay literals. An empty Exit
// leaves the enrollment without a linked exit row.
func IndexOf(t testing.TB, stays ...Stay) *temporal.Index {
	t.Helper()
	b := temporal.NewBuilder()
	for i, s := range stays {
		enrollmentID := s.PersonalID + "-" + string(rune('a'+i))
		b.AddEnrollment(temporal.Enrollment{
			EnrollmentID: enrollmentID,
			PersonalID:   s.PersonalID,
			EntryDate:    Date(t, s.Entry),
			HouseholdID:  s.Household,
		})
		if s.Exit != "" {
			b.AddExit(temporal.Exit{
				ExitID:       "x-" + enrollmentID,
				EnrollmentID: enrollmentID,
				PersonalID:   s.PersonalID,
				ExitDate:     Date(t, s.Exit),
			})
		}
	}
	return b.Build()
}
