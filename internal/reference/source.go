package reference

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hts-classify/internal/fetcher"
	"github.com/sells-group/hts-classify/internal/model"
	"github.com/sells-group/hts-classify/internal/store"
)

// SnapshotPrefix marks a source ID that reads a synced snapshot from the store,
// e.g. "snapshot:https://example.com/hts.csv".
const SnapshotPrefix = "snapshot:"

// Source yields the raw records of a reference table, header row first.
type Source interface {
	ID() string
	Records(ctx context.Context) ([][]string, error)
}

// SnapshotReader is the part of store.Store a snapshot source needs.
type SnapshotReader interface {
	LoadSnapshot(ctx context.Context, sourceID string) (*store.Snapshot, error)
}

// Deps holds what sources may need to reach their data.
type Deps struct {
	HTTP      fetcher.Fetcher
	FTP       fetcher.Fetcher
	Snapshots SnapshotReader
	Charset   string
	XLSX      fetcher.XLSXOptions
}

// NewSource picks a Source for id by prefix, URL scheme, or file extension.
func NewSource(id string, deps Deps) (Source, error) {
	if id == "" {
		return nil, eris.New("reference: empty source")
	}

	if rest, ok := strings.CutPrefix(id, SnapshotPrefix); ok {
		if deps.Snapshots == nil {
			return nil, eris.Errorf("reference: no snapshot store for %s", id)
		}
		return &snapshotSource{id: id, sourceID: rest, store: deps.Snapshots}, nil
	}

	u, err := url.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: parse source %q", id)
	}

	switch u.Scheme {
	case "http", "https":
		if deps.HTTP == nil {
			return nil, eris.Errorf("reference: no http fetcher for %s", id)
		}
		return &remoteSource{id: id, fetcher: deps.HTTP, charset: deps.Charset}, nil
	case "ftp":
		if deps.FTP == nil {
			return nil, eris.Errorf("reference: no ftp fetcher for %s", id)
		}
		return &remoteSource{id: id, fetcher: deps.FTP, charset: deps.Charset}, nil
	case "file":
		return fileSourceFor(id, u.Path, deps), nil
	case "":
		return fileSourceFor(id, id, deps), nil
	default:
		return nil, eris.Errorf("reference: unsupported scheme %q", u.Scheme)
	}
}

func fileSourceFor(id, path string, deps Deps) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return &xlsxSource{id: id, path: path, opts: deps.XLSX}
	case ".zip":
		return &zipSource{id: id, path: path, charset: deps.Charset}
	default:
		return &fileSource{id: id, path: path, charset: deps.Charset}
	}
}

type remoteSource struct {
	id      string
	fetcher fetcher.Fetcher
	charset string
}

func (s *remoteSource) ID() string { return s.id }

func (s *remoteSource) Records(ctx context.Context) ([][]string, error) {
	body, err := s.fetcher.Download(ctx, s.id)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return Parse(body, s.charset)
}

type fileSource struct {
	id      string
	path    string
	charset string
}

func (s *fileSource) ID() string { return s.id }

func (s *fileSource) Records(_ context.Context) ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, eris.Wrap(err, "reference: open file")
	}
	defer f.Close() //nolint:errcheck
	return Parse(f, s.charset)
}

type zipSource struct {
	id      string
	path    string
	charset string
}

func (s *zipSource) ID() string { return s.id }

func (s *zipSource) Records(_ context.Context) ([][]string, error) {
	rc, _, err := fetcher.OpenZIPTable(s.path)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return Parse(rc, s.charset)
}

type xlsxSource struct {
	id   string
	path string
	opts fetcher.XLSXOptions
}

func (s *xlsxSource) ID() string { return s.id }

func (s *xlsxSource) Records(_ context.Context) ([][]string, error) {
	rows, err := fetcher.ReadXLSX(s.path, s.opts)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		blank := true
		for i, cell := range row {
			row[i] = cleanField(cell)
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			records = append(records, row)
		}
	}
	return records, nil
}

type snapshotSource struct {
	id       string
	sourceID string
	store    SnapshotReader
}

func (s *snapshotSource) ID() string { return s.id }

func (s *snapshotSource) Records(ctx context.Context) ([][]string, error) {
	snap, err := s.store.LoadSnapshot(ctx, s.sourceID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, eris.Errorf("reference: no snapshot for %s", s.sourceID)
	}

	records := make([][]string, 0, len(snap.Entries)+1)
	records = append(records, model.Columns)
	for _, e := range snap.Entries {
		records = append(records, e.Record())
	}
	return records, nil
}
