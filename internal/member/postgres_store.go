package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// PostgresStore implements Store using PostgreSQL. The UNIQUE constraint on
// email_hash performs the commit-time uniqueness check, and the database
// transaction log replaces the snapshot file as the durability boundary.
// Schema:
//
//	CREATE TABLE members (
//	    name       TEXT NOT NULL,
//	    email_hash TEXT NOT NULL UNIQUE
//	);
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed member store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Exists reports whether any confirmed record holds the given email hash.
func (s *PostgresStore) Exists(ctx context.Context, emailHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE email_hash = $1)`, emailHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member email hash: %w", err)
	}
	return exists, nil
}

// Append inserts a record, mapping a unique violation to ErrEmailTaken.
func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.Exec(ctx, `INSERT INTO members (name, email_hash) VALUES ($1, $2)`, rec.Name, rec.EmailHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrEmailTaken
		}
		return fmt.Errorf("append member: %w", err)
	}
	return nil
}

// Remove deletes the first record matching name and reports whether a
// removal occurred.
func (s *PostgresStore) Remove(ctx context.Context, name string) (bool, error) {
	cmd, err := s.db.Exec(ctx, `DELETE FROM members
        WHERE ctid IN (SELECT ctid FROM members WHERE name = $1 LIMIT 1)`, name)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// All returns the confirmed records.
func (s *PostgresStore) All(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `SELECT name, email_hash FROM members`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.EmailHash); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return records, nil
}
