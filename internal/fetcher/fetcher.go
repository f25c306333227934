// Package fetcher retrieves reference table files over HTTP and FTP and reads
// the XLSX and ZIP containers some providers publish them in.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads a remote file.
type Fetcher interface {
	// Download fetches the URL and returns the body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = (*FTPFetcher)(nil)
)
