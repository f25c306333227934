package model

import "time"

// Table is an immutable, ordered tariff reference table. Callers must not
// modify the slice returned by Entries.
type Table struct {
	source   string
	loadedAt time.Time
	entries  []Entry
}

// NewTable builds a Table from the usable entries, preserving their order.
func NewTable(source string, loadedAt time.Time, entries []Entry) *Table {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Usable() {
			kept = append(kept, e)
		}
	}
	return &Table{source: source, loadedAt: loadedAt, entries: kept}
}

// Source returns the identity of the source the table was loaded from.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// LoadedAt returns when the table was populated.
func (t *Table) LoadedAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.loadedAt
}

// Entries returns the rows in table order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Empty reports whether the table has no rows. A nil table is empty.
func (t *Table) Empty() bool {
	return t.Len() == 0
}
