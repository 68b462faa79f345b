package hmis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"clientdedup/internal/logging"
	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// EnrollmentColumns is the Enrollment.csv layout.
var EnrollmentColumns = map[string]Column{
	"enrollment_id": col(0, "EnrollmentID", "ProjectEntryID"),
	"personal_id":   col(1, "PersonalID"),
	"entry_date":    col(3, "EntryDate"),
	"household_id":  optional(4, "HouseholdID"),
}

// ExitColumns is the Exit.csv layout.
var ExitColumns = map[string]Column{
	"exit_id":       optional(0, "ExitID"),
	"enrollment_id": col(1, "EnrollmentID", "ProjectEntryID"),
	"personal_id":   col(2, "PersonalID"),
	"exit_date":     col(3, "ExitDate"),
	"destination":   optional(4, "Destination"),
}

var (
	errMissingPersonalID   = errors.New("personal id is empty")
	errMissingEnrollmentID = errors.New("enrollment id is empty")
)

// TemporalStats summarises the enrollment and exit inputs.
type TemporalStats struct {
	Enrollments ReadStats `json:"enrollments" yaml:"enrollments"`
	Exits       ReadStats `json:"exits" yaml:"exits"`
}

// LoadIndex reads Enrollment.csv and Exit.csv into a temporal index. A
// missing file is logged and treated as empty: without stay history no
// conflict or twin veto can fire, which only makes matching more permissive.
func LoadIndex(ctx context.Context, enrollmentPath, exitPath string, logger *slog.Logger) (*temporal.Index, TemporalStats, error) {
	logger = logging.NewComponentLogger(logger, "ingest")
	b := temporal.NewBuilder()
	var stats TemporalStats

	var err error
	stats.Enrollments, err = scan(ctx, enrollmentPath, EnrollmentColumns, logger, func(l Layout, row []string) error {
		if l.Get(row, "personal_id") == "" {
			return errMissingPersonalID
		}
		entry, err := record.ParseDate(l.Get(row, "entry_date"))
		if err != nil {
			return err
		}
		b.AddEnrollment(temporal.Enrollment{
			EnrollmentID: l.Get(row, "enrollment_id"),
			PersonalID:   l.Get(row, "personal_id"),
			EntryDate:    entry,
			HouseholdID:  l.Get(row, "household_id"),
		})
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	stats.Exits, err = scan(ctx, exitPath, ExitColumns, logger, func(l Layout, row []string) error {
		if l.Get(row, "enrollment_id") == "" {
			return errMissingEnrollmentID
		}
		exit, err := record.ParseDate(l.Get(row, "exit_date"))
		if err != nil {
			return err
		}
		b.AddExit(temporal.Exit{
			ExitID:       l.Get(row, "exit_id"),
			EnrollmentID: l.Get(row, "enrollment_id"),
			PersonalID:   l.Get(row, "personal_id"),
			ExitDate:     exit,
		})
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	idx := b.Build()
	logger.Info("stay history indexed",
		logging.Int("profiles", idx.Len()),
		logging.Int("enrollments", stats.Enrollments.Accepted),
		logging.Int("exits", stats.Exits.Accepted),
	)
	return idx, stats, nil
}

// scan applies fn to every row of path. Row-level errors from fn skip the
// row; a missing file yields empty stats.
func scan(ctx context.Context, path string, columns map[string]Column, logger *slog.Logger, fn func(Layout, []string) error) (ReadStats, error) {
	var stats ReadStats
	r, err := Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "stay history file missing", "input_missing",
			logging.String(logging.FieldFile, path),
			logging.String(logging.FieldErrorHint, "place the export next to Client.csv or set inputs in the config"),
			logging.String(logging.FieldImpact, "stay and household conflicts cannot veto matches"),
		)
		return stats, nil
	}
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	defer r.Close()

	layout, err := Resolve(r.Header(), columns)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.Rows++
		if !layout.Fits(row) {
			stats.Skipped++
			skipRow(logger, r, "row too short", len(row))
			continue
		}
		if err := fn(layout, row); err != nil {
			stats.Skipped++
			logging.WarnWithContext(logger, "row skipped", "row_skipped",
				logging.String(logging.FieldFile, r.Path()),
				logging.Int(logging.FieldLine, r.Line()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stay is left out of conflict checks"),
			)
			continue
		}
		stats.Accepted++
	}
}
