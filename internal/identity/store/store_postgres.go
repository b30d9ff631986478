package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travelproof/internal/identity/models"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS identity_record_seq;
CREATE TABLE IF NOT EXISTS identity_records (
	record_key  TEXT PRIMARY KEY,
	subject_id  TEXT NOT NULL,
	record      JSONB NOT NULL,
	verified_at TIMESTAMPTZ NOT NULL,
	seq         BIGINT NOT NULL DEFAULT nextval('identity_record_seq')
);
CREATE INDEX IF NOT EXISTS identity_records_subject_idx
	ON identity_records (subject_id, verified_at DESC, seq DESC);
`

// PostgresStore persists records in PostgreSQL. The upsert is a single
// statement so concurrent writers to one key resolve last-write-wins.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed record store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table and index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure identity schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, record models.IdentityRecord) error {
	start := time.Now()
	defer observe("postgres", "put", start)

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identity_records (record_key, subject_id, record, verified_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (record_key) DO UPDATE SET
			subject_id = EXCLUDED.subject_id,
			record = EXCLUDED.record,
			verified_at = EXCLUDED.verified_at,
			seq = nextval('identity_record_seq')`,
		key, record.SubjectID, payload, record.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByKey(ctx context.Context, key string) (*models.IdentityRecord, error) {
	start := time.Now()
	defer observe("postgres", "find_by_key", start)

	row := s.db.QueryRowContext(ctx, `SELECT record FROM identity_records WHERE record_key = $1`, key)
	return scanRecord(row)
}

func (s *PostgresStore) FindLatestBySubject(ctx context.Context, subjectID string) (*models.IdentityRecord, error) {
	start := time.Now()
	defer observe("postgres", "find_latest_by_subject", start)

	row := s.db.QueryRowContext(ctx, `
		SELECT record FROM identity_records
		WHERE subject_id = $1
		ORDER BY verified_at DESC, seq DESC
		LIMIT 1`, subjectID)
	return scanRecord(row)
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_key FROM identity_records ORDER BY record_key`)
	if err != nil {
		return nil, fmt.Errorf("list record keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan record key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func scanRecord(row *sql.Row) (*models.IdentityRecord, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec models.IdentityRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
