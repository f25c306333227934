package fetcher

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// zipEntryReader closes the entry and the archive together.
type zipEntryReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Close() error {
	entryErr := z.ReadCloser.Close()
	archiveErr := z.archive.Close()
	if entryErr != nil {
		return eris.Wrap(entryErr, "zip: close entry")
	}
	if archiveErr != nil {
		return eris.Wrap(archiveErr, "zip: close archive")
	}
	return nil
}

// OpenZIPTable opens the reference table inside a ZIP archive: the only .csv
// entry, or the only file if the archive holds exactly one. It returns the
// reader and the entry name.
func OpenZIPTable(zipPath string) (io.ReadCloser, string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, "", eris.Wrap(err, "zip: open archive")
	}

	var files, csvs []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), ".") {
			continue
		}
		files = append(files, f)
		if strings.EqualFold(path.Ext(f.Name), ".csv") {
			csvs = append(csvs, f)
		}
	}

	var entry *zip.File
	switch {
	case len(csvs) == 1:
		entry = csvs[0]
	case len(csvs) == 0 && len(files) == 1:
		entry = files[0]
	default:
		_ = r.Close()
		return nil, "", eris.Errorf("zip: expected exactly 1 table file, got %d csv of %d files", len(csvs), len(files))
	}

	rc, err := entry.Open()
	if err != nil {
		_ = r.Close()
		return nil, "", eris.Wrapf(err, "zip: open entry %s", entry.Name)
	}
	return &zipEntryReader{ReadCloser: rc, archive: r}, entry.Name, nil
}
