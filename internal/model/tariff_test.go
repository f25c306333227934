package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFromRecord_PadsShortRecords(t *testing.T) {
	t.Parallel()

	e := EntryFromRecord(Columns, []string{"SKU1", "Apparel", "6104.32", "Shirts of cotton"})

	assert.Equal(t, "SKU1", e.SKU)
	assert.Equal(t, "Apparel", e.Category)
	assert.Equal(t, "6104.32", e.HTSNumber)
	assert.Equal(t, "Shirts of cotton", e.Description)
	assert.Empty(t, e.GeneralRate)
	assert.Empty(t, e.AdditionalDuties)
	assert.Empty(t, e.FTARules)
}

func TestEntryFromRecord_IgnoresUnknownHeaders(t *testing.T) {
	t.Parallel()

	header := []string{"Extra", ColHTSNumber, ColDescription}
	e := EntryFromRecord(header, []string{"x", "5311.00.60.00", "Of paper yarn"})

	assert.Equal(t, "5311.00.60.00", e.HTSNumber)
	assert.Equal(t, "Of paper yarn", e.Description)
	assert.Empty(t, e.SKU)
}

func TestEntryRecordRoundTrip(t *testing.T) {
	t.Parallel()

	e := Entry{
		SKU:          "SKU2004",
		Category:     "Category → Of paper yarn",
		HTSNumber:    "5311.00.60.00",
		Description:  "Of paper yarn",
		GeneralRate:  "2.7%",
		FTACountries: "AU,BH",
		FTARules:     "CPTPP; US-Australia FTA",
	}
	rec := e.Record()
	require.Len(t, rec, len(Columns))
	assert.Equal(t, e, EntryFromRecord(Columns, rec))
}

func TestEntryUsable(t *testing.T) {
	t.Parallel()

	assert.True(t, Entry{HTSNumber: "6104.32", Description: "Shirts"}.Usable())
	assert.False(t, Entry{HTSNumber: "6104.32"}.Usable())
	assert.False(t, Entry{Description: "Shirts"}.Usable())
}

func TestNewTable_DropsUnusableRows(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tbl := NewTable("test", now, []Entry{
		{HTSNumber: "1", Description: "a"},
		{HTSNumber: "", Description: "b"},
		{HTSNumber: "3", Description: ""},
		{HTSNumber: "4", Description: "d"},
	})

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "1", tbl.Entries()[0].HTSNumber)
	assert.Equal(t, "4", tbl.Entries()[1].HTSNumber)
	assert.Equal(t, "test", tbl.Source())
	assert.Equal(t, now, tbl.LoadedAt())
	assert.False(t, tbl.Empty())
}

func TestNilTableIsEmpty(t *testing.T) {
	t.Parallel()

	var tbl *Table
	assert.True(t, tbl.Empty())
	assert.Zero(t, tbl.Len())
	assert.Nil(t, tbl.Entries())
	assert.Empty(t, tbl.Source())
}

func TestCandidateFromEntry(t *testing.T) {
	t.Parallel()

	e := Entry{
		HTSNumber:    "6104.32",
		Description:  "Shirts",
		GeneralRate:  "16.5%",
		SpecialRate:  "Free (AU)",
		Column2Rate:  "90%",
		FTACountries: "AU",
		FTARules:     "US-Australia FTA",
	}
	c := CandidateFromEntry(e, "why", 95)

	assert.Equal(t, "6104.32", c.Code)
	assert.Equal(t, "Shirts", c.Description)
	assert.Equal(t, "why", c.Reasoning)
	assert.Equal(t, 95, c.Confidence)
	assert.Equal(t, "16.5%", c.GeneralDutyRate)
	assert.Equal(t, "Free (AU)", c.SpecialDutyRate)
	assert.Equal(t, "90%", c.Column2DutyRate)
	assert.Equal(t, "AU", c.ApplicableFTACountries)
	assert.Equal(t, "US-Australia FTA", c.ApplicableFTARules)
}

func TestHTSCodeHierarchy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		parent, child HTSCode
		want          bool
	}{
		{"6104.32", "6104.32.10", true},
		{"6104", "6104.32", true},
		{"6104.32", "6104.32", false},
		{"6104.32", "6104.320", false},
		{"6104.32.10", "6104.32", false},
		{"", "6104.32", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.parent)+"->"+string(tt.child), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.parent.IsParentOf(tt.child))
		})
	}
}

func TestHTSCodeChapterHeading(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "61", HTSCode("6104.32.10").Chapter())
	assert.Equal(t, "6104", HTSCode("6104.32.10").Heading())
	assert.Equal(t, "53", HTSCode("5311.00.60.00").Chapter())
	assert.Empty(t, HTSCode("6").Chapter())
	assert.Empty(t, HTSCode("61.0").Heading())
}
