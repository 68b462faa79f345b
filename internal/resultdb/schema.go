package resultdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Results databases are
// rebuilt by every run, so there is no upgrade path: an older file is simply
// reported as stale.
const schemaVersion = 1

// ErrStaleResults indicates a results database written with another schema
// version. Rerunning the pipeline regenerates it.
var ErrStaleResults = errors.New("results db is stale")

// createSchema lays out an empty database and stamps its version.
func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create results tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("stamp results schema: %w", err)
	}
	return tx.Commit()
}

// checkSchema confirms an existing database can be read by this build.
func (s *Store) checkSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s has no schema stamp", ErrStaleResults, s.path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s is not a results db: %v", ErrStaleResults, s.path, err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: %s was written with schema %d, this build reads %d; rerun to regenerate",
			ErrStaleResults, s.path, version, schemaVersion)
	}
	return nil
}
