package queue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion gates the on-disk layout. There is no migration path:
// bumping it forces a fresh database.
const currentSchemaVersion = 1

// ErrSchemaMismatch reports a queue database written by a different release.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ensureSchema creates the schema on a fresh database and otherwise verifies
// the stored version matches this build.
func (s *Store) ensureSchema(ctx context.Context) error {
	initialized, err := s.schemaInitialized(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return s.applySchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != currentSchemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'transvox queue clear' or delete the database)",
			ErrSchemaMismatch, version, currentSchemaVersion)
	}
	return nil
}

func (s *Store) schemaInitialized(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("inspect schema_version table: %w", err)
	}
	return count > 0, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
