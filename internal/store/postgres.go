package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	entriesTable = "reference_entries"

	selectSnapshotSQL = `SELECT id, etag, fetched_at FROM reference_snapshots WHERE source_id = $1`
)

// NewPostgres creates a PostgresStore with a connection pool. Connections
// touch no tables, so the pool opens against an empty database and Migrate
// can create the schema afterwards.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := poolConfig(connString, poolCfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

func poolConfig(connString string, poolCfg *PoolConfig) (*pgxpool.Config, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	return pgxCfg, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reference_snapshots (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_id  TEXT NOT NULL UNIQUE,
	etag       TEXT NOT NULL DEFAULT '',
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	row_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reference_entries (
	snapshot_id       TEXT NOT NULL REFERENCES reference_snapshots(id) ON DELETE CASCADE,
	position          INTEGER NOT NULL,
	sku               TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	hts_number        TEXT NOT NULL,
	description       TEXT NOT NULL,
	country_of_origin TEXT NOT NULL DEFAULT '',
	unit_cost         TEXT NOT NULL DEFAULT '',
	general_rate      TEXT NOT NULL DEFAULT '',
	special_rate      TEXT NOT NULL DEFAULT '',
	column2_rate      TEXT NOT NULL DEFAULT '',
	additional_duties TEXT NOT NULL DEFAULT '',
	fta_countries     TEXT NOT NULL DEFAULT '',
	fta_rules         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_reference_entries_hts ON reference_entries(hts_number);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveSnapshot replaces the source's snapshot in one transaction, streaming
// entries with COPY.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	prepareSnapshot(snap)

	rows := make([][]any, len(snap.Entries))
	for i, e := range snap.Entries {
		rows[i] = entryRow(snap.ID, i, e)
	}
	columns := append([]string{"snapshot_id", "position"}, entryColumns...)

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM reference_snapshots WHERE source_id = $1`, snap.SourceID,
		); err != nil {
			return eris.Wrapf(err, "postgres: delete snapshot for %s", snap.SourceID)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO reference_snapshots (id, source_id, etag, fetched_at, row_count) VALUES ($1, $2, $3, $4, $5)`,
			snap.ID, snap.SourceID, snap.ETag, snap.FetchedAt, len(snap.Entries),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert snapshot for %s", snap.SourceID)
		}

		n, err := db.CopyFrom(ctx, tx, entriesTable, columns, rows)
		if err != nil {
			return eris.Wrapf(err, "postgres: copy entries for %s", snap.SourceID)
		}
		zap.L().Debug("postgres: snapshot entries copied",
			zap.String("source", snap.SourceID),
			zap.Int64("rows", n),
		)
		return nil
	})
	return err
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context, sourceID string) (*Snapshot, error) {
	snap := Snapshot{SourceID: sourceID}
	err := s.pool.QueryRow(ctx, selectSnapshotSQL, sourceID).Scan(&snap.ID, &snap.ETag, &snap.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get snapshot for %s", sourceID)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE snapshot_id = $1 ORDER BY position`,
		strings.Join(entryColumns, ", "), entriesTable,
	), snap.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query entries for %s", sourceID)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate entries")
	}
	return &snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_id, etag, fetched_at, row_count FROM reference_snapshots ORDER BY fetched_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.SourceID, &info.ETag, &info.FetchedAt, &info.Rows); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		out = append(out, info)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

var _ Store = (*PostgresStore)(nil)
