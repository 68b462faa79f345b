package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"clientdedup/internal/record"
)

// ClientHeader is the standard Client.csv header.
var ClientHeader = []string{
	"PersonalID", "FirstName", "MiddleName", "LastName", "NameSuffix", "NameDataQuality",
	"SSN", "SSNDataQuality", "DOB", "DOBDataQuality",
	"AmIndAKNative", "Asian", "BlackAfAmerican", "NativeHIOtherPacific", "White", "RaceNone",
	"Ethnicity", "Gender",
}

// EnrollmentHeader is the standard Enrollment.csv header prefix.
var EnrollmentHeader = []string{"EnrollmentID", "PersonalID", "ProjectID", "EntryDate", "HouseholdID"}

// ExitHeader is the standard Exit.csv header prefix.
var ExitHeader = []string{"ExitID", "EnrollmentID", "PersonalID", "ExitDate", "Destination"}

// ClientRow renders f as a full-width Client.csv row. Race holds up to five
// flag characters spread over the race columns.
func ClientRow(f record.Fields) []string {
	row := make([]string, len(ClientHeader))
	row[0] = f.PersonalID
	row[1] = f.FirstName
	row[3] = f.LastName
	row[4] = f.Suffix
	row[5] = f.NameQuality
	row[6] = f.SSN
	row[7] = f.SSNQuality
	row[8] = f.DOB
	row[9] = f.DOBQuality
	for i, r := range f.Race {
		if i >= 5 {
			break
		}
		row[10+i] = string(r)
	}
	row[15] = f.RaceQuality
	row[17] = f.Gender
	return row
}

// WriteCSV writes header and rows to dir/name and returns the path.
func WriteCSV(t testing.TB, dir, name string, header []string, rows ...[]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if header != nil {
		if err := w.Write(header); err != nil {
			t.Fatalf("write header %s: %v", path, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadCSV returns every row of path, header included.
func ReadCSV(t testing.TB, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
