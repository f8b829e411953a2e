package downloader

import (
	"context"
	"io"
)

// Downloader streams media assets from direct URLs.
type Downloader interface {
	// Download fetches the asset at url. The caller must close the reader.
	Download(ctx context.Context, url string) (io.ReadCloser, int64, error)

	// SaveTo streams the asset at url into a local file, returning the
	// number of bytes written.
	SaveTo(ctx context.Context, url, path string) (int64, error)
}
