// Package reference loads the tariff reference table from a configured source
// and caches one immutable table per source for the life of the process.
package reference

import (
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hts-classify/internal/fetcher"
	"github.com/sells-group/hts-classify/internal/model"
)

// ErrNoUsableRows is returned when a document parses but yields no row with
// both an HTS code and a description.
var ErrNoUsableRows = eris.New("reference: no usable rows")

// Parse reads delimited reference text from r, decoding it from charset first
// when one is given.
func Parse(r io.Reader, charset string) ([][]string, error) {
	dec, err := fetcher.DecodeReader(r, charset)
	if err != nil {
		return nil, eris.Wrap(err, "reference: decode")
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, eris.Wrap(err, "reference: read")
	}
	return ParseString(string(data)), nil
}

// ParseString splits text into records: one per non-blank line, fields split
// on every comma. Each field has all double quotes removed and surrounding
// whitespace trimmed. Quoted fields containing commas are not supported and
// split like any other field.
func ParseString(text string) [][]string {
	text = strings.TrimPrefix(text, "\ufeff")

	var records [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i, f := range fields {
			fields[i] = cleanField(f)
		}
		records = append(records, fields)
	}
	return records
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// BuildTable maps records onto entries using the first record as the header.
// Rows without an HTS code or description are dropped. A table with no rows
// left is returned together with ErrNoUsableRows.
func BuildTable(source string, records [][]string, loadedAt time.Time) (*model.Table, error) {
	if len(records) == 0 {
		return model.NewTable(source, loadedAt, nil), eris.New("reference: empty document")
	}

	header := records[0]
	entries := make([]model.Entry, 0, len(records)-1)
	for _, rec := range records[1:] {
		entries = append(entries, model.EntryFromRecord(header, rec))
	}

	t := model.NewTable(source, loadedAt, entries)
	if t.Empty() {
		return t, ErrNoUsableRows
	}
	return t, nil
}
