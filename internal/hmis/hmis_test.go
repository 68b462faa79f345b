package hmis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clientdedup/internal/hmis"
	"clientdedup/internal/logging"
	"clientdedup/internal/record"
	"clientdedup/internal/testsupport"
)

func readAll(t *testing.T, path string) ([]*record.Client, hmis.ReadStats) {
	t.Helper()
	var got []*record.Client
	stats, err := hmis.ReadClients(context.Background(), path, hmis.ClientOptions{Logger: logging.NewNop()}, func(c *record.Client) error {
		got = append(got, c)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadClients returned error: %v", err)
	}
	return got, stats
}

func TestReadClientsParsesStandardLayout(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteCSV(t, dir, "Client.csv", testsupport.ClientHeader,
		testsupport.ClientRow(record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "1990-05-01", Gender: "0", Race: "10001", RaceQuality: "0"}),
		testsupport.ClientRow(record.Fields{PersonalID: "P2", FirstName: "Bob", LastName: "Jones", DOB: "1/1/1900"}),
		testsupport.ClientRow(record.Fields{PersonalID: "P3", FirstName: "Cy", LastName: "Young", DOB: "yesterday"}),
		[]string{"P4", "Short"},
	)

	got, stats := readAll(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 admissible client, got %d", len(got))
	}
	c := got[0]
	if c.PersonalID != "P1" || c.FirstName != "Ann" || c.LastName != "Smith" || c.Gender != "0" {
		t.Fatalf("unexpected client %+v", c)
	}
	if c.DOBText() != "5/1/1990" {
		t.Fatalf("DOBText = %q", c.DOBText())
	}
	if c.SSNQuality != record.QualityFull {
		t.Fatalf("SSNQuality = %v", c.SSNQuality)
	}
	if c.Race != "10001" {
		t.Fatalf("Race = %q", c.Race)
	}
	want := hmis.ReadStats{Rows: 4, Accepted: 1, Skipped: 2, Sentinel: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestReadClientsResolvesColumnsByHeader(t *testing.T) {
	dir := t.TempDir()
	header := []string{"dob", "SSN", "lastname", "FIRSTNAME", "personalid"}
	path := testsupport.WriteCSV(t, dir, "Client.csv", header,
		[]string{"2/3/1985", "111223333", "Lee", "Kim", "P9"},
	)
	got, _ := readAll(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 client, got %d", len(got))
	}
	if got[0].PersonalID != "P9" || got[0].FirstName != "Kim" || got[0].LastName != "Lee" || got[0].DOBText() != "2/3/1985" {
		t.Fatalf("unexpected client %+v", got[0])
	}
}

func TestReadClientsStripsByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Client.csv")
	content := "\ufeffPersonalID,FirstName,MiddleName,LastName,NameSuffix,NameDataQuality,SSN,SSNDataQuality,DOB\nP1,Ann,,Smith,,1,123456789,1,5/1/1990\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write client file: %v", err)
	}
	got, _ := readAll(t, path)
	if len(got) != 1 || got[0].PersonalID != "P1" {
		t.Fatalf("expected P1 with BOM stripped, got %+v", got)
	}
}

func TestReadClientsMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteCSV(t, dir, "Client.csv", []string{"PersonalID", "FirstName"}, []string{"P1", "Ann"})
	_, err := hmis.ReadClients(context.Background(), path, hmis.ClientOptions{}, func(*record.Client) error { return nil })
	if !errors.Is(err, hmis.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadClientsStopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteCSV(t, dir, "Client.csv", testsupport.ClientHeader,
		testsupport.ClientRow(record.Fields{PersonalID: "P1", DOB: "1/1/1980"}),
		testsupport.ClientRow(record.Fields{PersonalID: "P2", DOB: "1/1/1980"}),
	)
	stop := errors.New("stop")
	calls := 0
	_, err := hmis.ReadClients(context.Background(), path, hmis.ClientOptions{}, func(*record.Client) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected stop after first row, got err=%v calls=%d", err, calls)
	}
}

func TestReadClientsHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteCSV(t, dir, "Client.csv", testsupport.ClientHeader,
		testsupport.ClientRow(record.Fields{PersonalID: "P1", DOB: "1/1/1980"}),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := hmis.ReadClients(ctx, path, hmis.ClientOptions{}, func(*record.Client) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadIndexLinksExitsToEnrollments(t *testing.T) {
	dir := t.TempDir()
	enrollments := testsupport.WriteCSV(t, dir, "Enrollment.csv", testsupport.EnrollmentHeader,
		[]string{"E1", "P1", "X", "1/1/2020", "H1"},
		[]string{"E2", "P1", "X", "2021-06-01", "H2"},
		[]string{"E3", "P2", "X", "not a date", "H3"},
	)
	exits := testsupport.WriteCSV(t, dir, "Exit.csv", testsupport.ExitHeader,
		[]string{"X1", "E1", "P1", "3/1/2020", "1"},
	)

	idx, stats, err := hmis.LoadIndex(context.Background(), enrollments, exits, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadIndex returned error: %v", err)
	}
	p := idx.Profile("P1")
	if p == nil || len(p.Stays) != 2 {
		t.Fatalf("expected two stays for P1, got %+v", p)
	}
	if got := record.FormatDate(p.Stays[0].Exit); got != "3/1/2020" {
		t.Fatalf("first stay exit = %s", got)
	}
	if !p.Stays[1].Exit.Equal(p.Stays[1].Entry) {
		t.Fatal("stay without exit row must end on its entry date")
	}
	if p.HouseholdID != "H2" {
		t.Fatalf("HouseholdID = %q, want last seen H2", p.HouseholdID)
	}
	if idx.Profile("P2") != nil {
		t.Fatal("row with unparsable entry date must be skipped")
	}
	if stats.Enrollments.Skipped != 1 || stats.Enrollments.Accepted != 2 || stats.Exits.Accepted != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestLoadIndexToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	idx, stats, err := hmis.LoadIndex(context.Background(), filepath.Join(dir, "Enrollment.csv"), filepath.Join(dir, "Exit.csv"), logging.NewNop())
	if err != nil {
		t.Fatalf("LoadIndex returned error: %v", err)
	}
	if idx.Len() != 0 || stats.Enrollments.Rows != 0 {
		t.Fatalf("expected empty index, got len=%d stats=%+v", idx.Len(), stats)
	}
}

func TestDiscoverSkipsOutputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Client.csv", "Enrollment.CSV", "ClientOutput.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("PersonalID\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files, err := hmis.Discover(dir, "Output")
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(files) != 2 || hmis.Stem(files[0]) != "Client" || hmis.Stem(files[1]) != "Enrollment" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestHeaderIndex(t *testing.T) {
	header := []string{" PersonalID ", "ProjectEntryID"}
	if got := hmis.HeaderIndex(header, "personalid"); got != 0 {
		t.Fatalf("HeaderIndex(personalid) = %d", got)
	}
	if got := hmis.HeaderIndex(header, "EnrollmentID", "ProjectEntryID"); got != 1 {
		t.Fatalf("HeaderIndex(alias) = %d", got)
	}
	if got := hmis.HeaderIndex(header, "SSN"); got != -1 {
		t.Fatalf("HeaderIndex(SSN) = %d", got)
	}
}

func TestReadClientsFallsBackToPositions(t *testing.T) {
	dir := t.TempDir()
	header := make([]string, len(testsupport.ClientHeader))
	for i := range header {
		header[i] = "c" + string(rune('a'+i))
	}
	path := testsupport.WriteCSV(t, dir, "Client.csv", header,
		testsupport.ClientRow(record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", DOB: "5/1/1990", Gender: "1"}),
	)
	got, _ := readAll(t, path)
	if len(got) != 1 || got[0].LastName != "Smith" || got[0].Gender != "1" {
		t.Fatalf("expected positional layout, got %+v", got)
	}
}
