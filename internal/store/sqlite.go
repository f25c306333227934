package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reference_snapshots (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL UNIQUE,
	etag       TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME NOT NULL,
	row_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reference_entries (
	snapshot_id       TEXT NOT NULL REFERENCES reference_snapshots(id),
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	prepareSnapshot(snap)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reference_entries WHERE snapshot_id IN (SELECT id FROM reference_snapshots WHERE source_id = ?)`,
		snap.SourceID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: delete entries for %s", snap.SourceID)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reference_snapshots WHERE source_id = ?`, snap.SourceID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: delete snapshot for %s", snap.SourceID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reference_snapshots (id, source_id, etag, fetched_at, row_count) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.SourceID, snap.ETag, snap.FetchedAt, len(snap.Entries),
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert snapshot for %s", snap.SourceID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entryColumns)+2), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO reference_entries (snapshot_id, position, %s) VALUES (%s)`,
		strings.Join(entryColumns, ", "), placeholders,
	))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare entry insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, e := range snap.Entries {
		if _, err := stmt.ExecContext(ctx, entryRow(snap.ID, i, e)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert entry %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, sourceID string) (*Snapshot, error) {
	snap := Snapshot{SourceID: sourceID}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, etag, fetched_at FROM reference_snapshots WHERE source_id = ?`, sourceID,
	).Scan(&snap.ID, &snap.ETag, &snap.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot for %s", sourceID)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM reference_entries WHERE snapshot_id = ? ORDER BY position`,
		strings.Join(entryColumns, ", "),
	), snap.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query entries for %s", sourceID)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate entries")
	}
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, etag, fetched_at, row_count FROM reference_snapshots ORDER BY fetched_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.SourceID, &info.ETag, &info.FetchedAt, &info.Rows); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		out = append(out, info)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

var _ Store = (*SQLiteStore)(nil)
