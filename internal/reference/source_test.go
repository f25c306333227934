package reference

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/hts-classify/internal/fetcher"
	"github.com/sells-group/hts-classify/internal/model"
	"github.com/sells-group/hts-classify/internal/store"
)

type fakeSnapshots struct {
	snap *store.Snapshot
	err  error
	got  string
}

func (f *fakeSnapshots) LoadSnapshot(_ context.Context, sourceID string) (*store.Snapshot, error) {
	f.got = sourceID
	return f.snap, f.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewSource_Kinds(t *testing.T) {
	deps := Deps{
		HTTP:      fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
		FTP:       fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
		Snapshots: &fakeSnapshots{},
	}

	tests := []struct {
		id   string
		want Source
	}{
		{"https://example.com/hts.csv", &remoteSource{}},
		{"http://example.com/hts.csv", &remoteSource{}},
		{"ftp://ftp.example.com/pub/hts.csv", &remoteSource{}},
		{"data/hts.csv", &fileSource{}},
		{"data/hts.txt", &fileSource{}},
		{"file:///var/lib/hts/hts.csv", &fileSource{}},
		{"data/HTS.XLSX", &xlsxSource{}},
		{"data/hts.zip", &zipSource{}},
		{"snapshot:https://example.com/hts.csv", &snapshotSource{}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			src, err := NewSource(tt.id, deps)
			require.NoError(t, err)
			assert.IsType(t, tt.want, src)
			assert.Equal(t, tt.id, src.ID())
		})
	}
}

func TestNewSource_Errors(t *testing.T) {
	tests := []struct {
		id      string
		wantErr string
	}{
		{"", "empty source"},
		{"https://example.com/hts.csv", "no http fetcher"},
		{"ftp://example.com/hts.csv", "no ftp fetcher"},
		{"snapshot:hts.csv", "no snapshot store"},
		{"s3://bucket/hts.csv", `unsupported scheme "s3"`},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := NewSource(tt.id, Deps{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileSource_Records(t *testing.T) {
	path := writeFile(t, "hts.csv", sampleCSV)

	src, err := NewSource(path, Deps{})
	require.NoError(t, err)

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, model.Columns, recs[0])
}

func TestFileSource_FileURL(t *testing.T) {
	path := writeFile(t, "hts.csv", sampleCSV)

	src, err := NewSource("file://"+path, Deps{})
	require.NoError(t, err)

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 4)
}

func TestFileSource_Missing(t *testing.T) {
	src, err := NewSource(filepath.Join(t.TempDir(), "nope.csv"), Deps{})
	require.NoError(t, err)

	_, err = src.Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference: open file")
}

func TestZIPSource_Records(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hts.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("hts_2026.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte(sampleCSV))
	require.NoError(t, err)
	readme, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, err = readme.Write([]byte("not a table"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	src, err := NewSource(path, Deps{})
	require.NoError(t, err)

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "6104.32", recs[1][2])
}

func TestXLSXSource_Records(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("HTS")
	require.NoError(t, err)
	for _, rowData := range [][]string{
		{model.ColHTSNumber, model.ColDescription, model.ColCategory},
		{` "6104.32" `, "Shirts and shirt-blouses of cotton", "Men's Apparel"},
		{"", "", ""},
		{"5311.00.60.00", "Of paper yarn", "Textiles"},
	} {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "hts.xlsx")
	require.NoError(t, f.Save(path))

	src, err := NewSource(path, Deps{})
	require.NoError(t, err)

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "6104.32", recs[1][0])

	tbl, err := BuildTable(src.ID(), recs, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestSnapshotSource_Records(t *testing.T) {
	snaps := &fakeSnapshots{snap: &store.Snapshot{
		SourceID: "https://example.com/hts.csv",
		Entries: []model.Entry{
			{HTSNumber: "6104.32", Description: "Shirts", FTACountries: "AU"},
		},
	}}

	src, err := NewSource("snapshot:https://example.com/hts.csv", Deps{Snapshots: snaps})
	require.NoError(t, err)

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/hts.csv", snaps.got)

	tbl, err := BuildTable(src.ID(), recs, snaps.snap.FetchedAt)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, snaps.snap.Entries[0], tbl.Entries()[0])
}

func TestSnapshotSource_Missing(t *testing.T) {
	src, err := NewSource("snapshot:hts.csv", Deps{Snapshots: &fakeSnapshots{}})
	require.NoError(t, err)

	_, err = src.Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot for hts.csv")
}

func TestSnapshotSource_StoreError(t *testing.T) {
	boom := errors.New("db down")
	src, err := NewSource("snapshot:hts.csv", Deps{Snapshots: &fakeSnapshots{err: boom}})
	require.NoError(t, err)

	_, err = src.Records(context.Background())
	assert.ErrorIs(t, err, boom)
}
