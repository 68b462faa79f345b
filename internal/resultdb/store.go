package resultdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clientdedup/internal/cluster"
)

// Store is the results database of a single run.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Run summarises one resolution run.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	InputDir    string
	Records     int
	Anchors     int
	Groups      int
	SkippedRows int
}

// OutputFile describes a file written by the run.
type OutputFile struct {
	Path   string
	Rows   int
	Size   int64
	SHA256 string
}

// Member is one stored group member.
type Member struct {
	PersonalID       string
	DOB              string
	Rule             string
	IsRepresentative bool
}

// Group is one stored duplicate group. Members[0] is the anchor.
type Group struct {
	Index       int
	CanonicalID string
	AnchorID    string
	Members     []Member
}

// Open creates a fresh results database at path, replacing any existing file.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("results db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create results db dir: %w", err)
	}
	for _, stale := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale results db: %w", err)
		}
	}
	return connect(ctx, path, true)
}

// Reopen opens the results database a previous run left at path. A file
// written with another schema version fails with ErrStaleResults.
func Reopen(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("results db: %w", err)
	}
	return connect(ctx, path, false)
}

func connect(ctx context.Context, path string, fresh bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	prepare := store.checkSchema
	if fresh {
		prepare = store.createSchema
	}
	if err := prepare(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun writes the run row, every multi-record group with its members, the
// identifier map and the output file checksums in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, groups []*cluster.Group, ids *cluster.IDMap, outputs []OutputFile) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is empty")
	}
	return retryOnBusy(ctx, func() error {
		return s.recordRun(ctx, run, groups, ids, outputs)
	})
}

func (s *Store) recordRun(ctx context.Context, run Run, groups []*cluster.Group, ids *cluster.IDMap, outputs []OutputFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, input_dir, records, anchors, group_count, skipped_rows)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.InputDir,
		run.Records,
		run.Anchors,
		run.Groups,
		run.SkippedRows,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	index := 0
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		if err := insertGroup(ctx, tx, run.ID, index, g); err != nil {
			return err
		}
		index++
	}

	for _, pair := range ids.Entries() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO id_map (run_id, personal_id, canonical_id) VALUES (?, ?, ?)`,
			run.ID, pair[0], pair[1],
		); err != nil {
			return fmt.Errorf("insert id map %s: %w", pair[0], err)
		}
	}

	for _, out := range outputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO output_files (run_id, path, row_count, size_bytes, sha256) VALUES (?, ?, ?, ?, ?)`,
			run.ID, out.Path, out.Rows, out.Size, out.SHA256,
		); err != nil {
			return fmt.Errorf("insert output file %s: %w", out.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func insertGroup(ctx context.Context, tx *sql.Tx, runID string, index int, g *cluster.Group) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dup_groups (run_id, group_index, canonical_id, anchor_id, size) VALUES (?, ?, ?, ?, ?)`,
		runID, index, g.CanonicalID(), g.Anchor.PersonalID, g.Size(),
	); err != nil {
		return fmt.Errorf("insert group %d: %w", index, err)
	}
	for pos, r := range g.Records() {
		rule := "anchor"
		if pos > 0 && pos-1 < len(g.Rules) {
			rule = g.Rules[pos-1].String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (run_id, group_index, position, personal_id, dob, rule, is_representative)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, index, pos, r.PersonalID, r.DOBText(), rule, boolToInt(r == g.Representative),
		); err != nil {
			return fmt.Errorf("insert member %s of group %d: %w", r.PersonalID, index, err)
		}
	}
	return nil
}

// Groups returns the stored duplicate groups of a run in admission order.
func (s *Store) Groups(ctx context.Context, runID string) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.group_index, g.canonical_id, g.anchor_id, m.personal_id, m.dob, m.rule, m.is_representative
         FROM dup_groups g JOIN group_members m ON m.run_id = g.run_id AND m.group_index = g.group_index
         WHERE g.run_id = ?
         ORDER BY g.group_index, m.position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var (
			index             int
			canonical, anchor string
			member            Member
			representative    int
		)
		if err := rows.Scan(&index, &canonical, &anchor, &member.PersonalID, &member.DOB, &member.Rule, &representative); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		member.IsRepresentative = representative != 0
		if len(out) == 0 || out[len(out)-1].Index != index {
			out = append(out, Group{Index: index, CanonicalID: canonical, AnchorID: anchor})
		}
		last := &out[len(out)-1]
		last.Members = append(last.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return out, nil
}

// Canonical returns the canonical id recorded for personalID in a run. Ids
// outside every duplicate group report false.
func (s *Store) Canonical(ctx context.Context, runID, personalID string) (string, bool, error) {
	var canonical string
	err := s.db.QueryRowContext(ctx,
		`SELECT canonical_id FROM id_map WHERE run_id = ? AND personal_id = ?`,
		runID, personalID,
	).Scan(&canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup canonical id: %w", err)
	}
	return canonical, true, nil
}

// OutputFiles returns the files recorded for a run ordered by path.
func (s *Store) OutputFiles(ctx context.Context, runID string) ([]OutputFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, row_count, size_bytes, sha256 FROM output_files WHERE run_id = ? ORDER BY path`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query output files: %w", err)
	}
	defer rows.Close()

	var out []OutputFile
	for rows.Next() {
		var f OutputFile
		if err := rows.Scan(&f.Path, &f.Rows, &f.Size, &f.SHA256); err != nil {
			return nil, fmt.Errorf("scan output file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
