package hmis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"clientdedup/internal/logging"
	"clientdedup/internal/record"
)

// Client field keys.
const (
	ClientPersonalID  = "personal_id"
	ClientFirstName   = "first_name"
	ClientLastName    = "last_name"
	ClientSuffix      = "suffix"
	ClientNameQuality = "name_quality"
	ClientSSN         = "ssn"
	ClientSSNQuality  = "ssn_quality"
	ClientDOB         = "dob"
	ClientDOBQuality  = "dob_quality"
	ClientRaceNone    = "race_none"
	ClientGender      = "gender"
)

var raceKeys = []string{"race_amind", "race_asian", "race_black", "race_nhpi", "race_white"}

// ClientColumns is the Client.csv layout with standard export positions.
var ClientColumns = map[string]Column{
	ClientPersonalID:  col(0, "PersonalID"),
	ClientFirstName:   col(1, "FirstName"),
	ClientLastName:    col(3, "LastName"),
	ClientSuffix:      optional(4, "NameSuffix"),
	ClientNameQuality: optional(5, "NameDataQuality"),
	ClientSSN:         col(6, "SSN"),
	ClientSSNQuality:  optional(7, "SSNDataQuality"),
	ClientDOB:         col(8, "DOB"),
	ClientDOBQuality:  optional(9, "DOBDataQuality"),
	"race_amind":      optional(10, "AmIndAKNative"),
	"race_asian":      optional(11, "Asian"),
	"race_black":      optional(12, "BlackAfAmerican"),
	"race_nhpi":       optional(13, "NativeHIOtherPacific", "NativeHIPacific"),
	"race_white":      optional(14, "White"),
	ClientRaceNone:    optional(15, "RaceNone"),
	ClientGender:      optional(17, "Gender"),
}

// ReadStats summarises one input file.
type ReadStats struct {
	Rows     int `json:"rows" yaml:"rows"`
	Accepted int `json:"accepted" yaml:"accepted"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Sentinel int `json:"sentinel" yaml:"sentinel"`
}

// Add accumulates other into s.
func (s *ReadStats) Add(other ReadStats) {
	s.Rows += other.Rows
	s.Accepted += other.Accepted
	s.Skipped += other.Skipped
	s.Sentinel += other.Sentinel
}

// ClientOptions configures ReadClients.
type ClientOptions struct {
	SentinelDOB string
	Logger      *slog.Logger
}

// ReadClients streams the admissible rows of a Client.csv export to fn in
// file order. Rows with the sentinel DOB are dropped silently; malformed rows
// and rows with unparsable dates are skipped with a warning. An error from fn
// stops the scan and is returned.
func ReadClients(ctx context.Context, path string, opts ClientOptions, fn func(*record.Client) error) (ReadStats, error) {
	logger := logging.NewComponentLogger(opts.Logger, "ingest")
	var stats ReadStats

	r, err := Open(path)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	layout, err := Resolve(r.Header(), ClientColumns)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Rows++

		if !layout.Fits(row) {
			stats.Skipped++
			skipRow(logger, r, "client row too short", len(row))
			continue
		}
		c, err := record.NewClient(clientFields(layout, row), row, opts.SentinelDOB)
		switch {
		case errors.Is(err, record.ErrSentinelDOB):
			stats.Sentinel++
			continue
		case err != nil:
			stats.Skipped++
			logging.WarnWithContext(logger, "client row skipped", "row_skipped",
				logging.String(logging.FieldFile, r.Path()),
				logging.Int(logging.FieldLine, r.Line()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the row in the export or leave it out of matching"),
				logging.String(logging.FieldImpact, "row is not deduplicated but is still remapped"),
			)
			continue
		}
		stats.Accepted++
		if err := fn(c); err != nil {
			return stats, err
		}
	}

	logger.Info("client file read",
		logging.String(logging.FieldFile, path),
		logging.Int("rows", stats.Rows),
		logging.Int("accepted", stats.Accepted),
		logging.Int("skipped", stats.Skipped),
		logging.Int("sentinel_dob", stats.Sentinel),
	)
	return stats, nil
}

func clientFields(l Layout, row []string) record.Fields {
	race := ""
	for _, key := range raceKeys {
		race += l.Get(row, key)
	}
	return record.Fields{
		PersonalID:  l.Get(row, ClientPersonalID),
		FirstName:   l.Get(row, ClientFirstName),
		LastName:    l.Get(row, ClientLastName),
		Suffix:      l.Get(row, ClientSuffix),
		NameQuality: l.Get(row, ClientNameQuality),
		SSN:         l.Get(row, ClientSSN),
		SSNQuality:  l.Get(row, ClientSSNQuality),
		DOB:         l.Get(row, ClientDOB),
		DOBQuality:  l.Get(row, ClientDOBQuality),
		Gender:      l.Get(row, ClientGender),
		Race:        race,
		RaceQuality: l.Get(row, ClientRaceNone),
	}
}

func skipRow(logger *slog.Logger, r *Reader, msg string, width int) {
	logging.WarnWithContext(logger, msg, "row_malformed",
		logging.String(logging.FieldFile, r.Path()),
		logging.Int(logging.FieldLine, r.Line()),
		logging.Int("columns", width),
		logging.String(logging.FieldErrorHint, "check the export for truncated rows or stray delimiters"),
		logging.String(logging.FieldImpact, "row ignored for matching"),
	)
}
