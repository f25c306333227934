// Package store persists parsed reference tables as snapshots so a deployment
// can pin a known-good tariff schedule.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hts-classify/internal/model"
)

// Snapshot is a reference table captured from one source at one point in time.
type Snapshot struct {
	ID        string        `json:"id"`
	SourceID  string        `json:"source_id"`
	ETag      string        `json:"etag,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
	Entries   []model.Entry `json:"entries"`
}

// SnapshotInfo describes a stored snapshot without its entries.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	ETag      string    `json:"etag,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Rows      int       `json:"rows"`
}

// Store defines snapshot persistence. Each source keeps at most one snapshot;
// saving replaces the previous one.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	// LoadSnapshot returns nil, nil when no snapshot exists for sourceID.
	LoadSnapshot(ctx context.Context, sourceID string) (*Snapshot, error)
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the store named by driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// entryColumns are the reference_entries value columns, ordered like model.Columns.
var entryColumns = []string{
	"sku",
	"category",
	"hts_number",
	"description",
	"country_of_origin",
	"unit_cost",
	"general_rate",
	"special_rate",
	"column2_rate",
	"additional_duties",
	"fta_countries",
	"fta_rules",
}

// entryRow flattens an entry into snapshot_id, position and the value columns.
func entryRow(snapshotID string, pos int, e model.Entry) []any {
	row := make([]any, 0, len(entryColumns)+2)
	row = append(row, snapshotID, pos)
	for _, v := range e.Record() {
		row = append(row, v)
	}
	return row
}

// scanEntry reads the value columns in entryColumns order.
func scanEntry(scan func(dest ...any) error) (model.Entry, error) {
	var e model.Entry
	err := scan(
		&e.SKU,
		&e.Category,
		&e.HTSNumber,
		&e.Description,
		&e.CountryOfOrigin,
		&e.UnitCost,
		&e.GeneralRate,
		&e.SpecialRate,
		&e.Column2Rate,
		&e.AdditionalDuties,
		&e.FTACountries,
		&e.FTARules,
	)
	return e, err
}

// prepareSnapshot fills in the ID and fetch time when the caller left them blank.
func prepareSnapshot(snap *Snapshot) {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now().UTC()
	}
	snap.Entries = usable(snap.Entries)
}

// usable filters entries before persistence so a snapshot never stores rows
// the loader would drop.
func usable(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Usable() {
			out = append(out, e)
		}
	}
	return out
}
