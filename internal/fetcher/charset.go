package fetcher

import (
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeReader wraps r so it yields UTF-8 from the named charset
// (e.g. "windows-1252", "latin1"). An empty or UTF-8 charset returns r unchanged.
func DecodeReader(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "charset: unsupported %q", charset)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return r, nil
	}
	return enc.NewDecoder().Reader(r), nil
}
