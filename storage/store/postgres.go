package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"reqsync/config"
	"reqsync/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS requests (
	seq           BIGSERIAL   UNIQUE,
	id            TEXT        PRIMARY KEY,
	payload       JSONB       NOT NULL,
	status        TEXT        NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	sync_state    TEXT        NOT NULL DEFAULT 'pending',
	synced_at     TIMESTAMPTZ,
	reject_reason TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS requests_pending_idx ON requests (seq) WHERE sync_state = 'pending';
`

// appendLockKey is the advisory lock that serializes capacity-limited appends.
const appendLockKey int64 = 0x72657173796e63

const selectColumns = `id, payload, status, created_at, sync_state, synced_at, reject_reason`

// PostgresStore keeps records in a PostgreSQL table ordered by an insertion sequence.
type PostgresStore struct {
	pool       *pgxpool.Pool
	logger     *log.Logger
	maxRecords int
}

// NewPostgresStore connects the pool and makes sure the schema exists
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, maxRecords int, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxIdleTime
	}
	if cfg.MaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Printf("PostgreSQL store connected (max_conns=%d, min_conns=%d)", poolCfg.MaxConns, poolCfg.MinConns)
	return &PostgresStore{pool: pool, logger: logger, maxRecords: maxRecords}, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec *models.Record) error {
	stored := copyRecord(rec)
	prepare(&stored)

	payload, err := json.Marshal(stored.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload of %s: %w", stored.ID, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin insert of %s: %w", stored.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if s.maxRecords > 0 {
		// Appends queue on the lock so the count below sees every committed insert.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::bigint)`, appendLockKey); err != nil {
			return fmt.Errorf("failed to lock for insert of %s: %w", stored.ID, err)
		}
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO requests (id, payload, status, created_at, sync_state, synced_at, reject_reason)
		SELECT $1::text, $2::jsonb, $3::text, $4::timestamptz, $5::text, $6::timestamptz, $7::text
		WHERE $8::int <= 0 OR (SELECT count(*) FROM requests) < $8::int`,
		stored.ID, string(payload), stored.Status, stored.CreatedAt, string(stored.SyncState),
		stored.SyncedAt, stored.RejectReason, s.maxRecords)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert record %s: %w", stored.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCapacityExceeded
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit record %s: %w", stored.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM requests WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Record, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM requests ORDER BY seq DESC`)
}

// ListUnsynced runs as a single statement, which gives it a consistent snapshot.
func (s *PostgresStore) ListUnsynced(ctx context.Context) ([]models.Record, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM requests WHERE sync_state = 'pending' ORDER BY seq DESC`)
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]models.Record, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkSynced(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE requests SET sync_state = 'synced', synced_at = $2 WHERE id = $1 AND sync_state = 'pending'`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark record %s synced: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) MarkRejected(ctx context.Context, id, reason string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE requests SET sync_state = 'rejected', reject_reason = $2 WHERE id = $1 AND sync_state = 'pending'`,
		id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark record %s rejected: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.logger.Println("Closing PostgreSQL store...")
	s.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var (
		rec       models.Record
		payload   []byte
		syncState string
	)
	if err := row.Scan(&rec.ID, &payload, &rec.Status, &rec.CreatedAt, &syncState, &rec.SyncedAt, &rec.RejectReason); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload of %s: %w", rec.ID, err)
	}
	rec.SyncState = models.SyncState(syncState)
	rec.SyncedToRemote = rec.SyncState == models.SyncSynced
	return &rec, nil
}

var _ Store = (*PostgresStore)(nil)
