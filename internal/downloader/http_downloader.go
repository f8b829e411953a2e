package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/iconidentify/tikgrab/internal/domain"
)

// Config holds media transfer configuration.
type Config struct {
	// Timeout applies to short requests; streaming transfers use
	// ResponseHeaderTimeout only and rely on the caller's context.
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	UserAgent             string
}

// HTTPDownloader implements Downloader using streamed HTTP GETs.
//
// Media transfers are single-shot: the retry budget belongs to metadata
// fetches, never to asset transfers.
type HTTPDownloader struct {
	client       *http.Client
	streamClient *http.Client
	userAgent    string
	logger       *slog.Logger
}

// NewHTTPDownloader creates a new streaming downloader.
func NewHTTPDownloader(cfg Config) *HTTPDownloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ResponseHeaderTimeout == 0 {
		cfg.ResponseHeaderTimeout = 30 * time.Second
	}

	streamTransport := &http.Transport{
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
	}

	return &HTTPDownloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		// No overall timeout on large transfers; the context bounds them.
		streamClient: &http.Client{
			Transport: streamTransport,
		},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger used for transfer progress reporting.
func (d *HTTPDownloader) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Download fetches the asset at url and returns a progress-tracking reader.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.streamClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	size := resp.ContentLength
	if size < 0 {
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			size, _ = strconv.ParseInt(cl, 10, 64)
		}
	}

	return newProgressReader(resp.Body, size, d.logger, url), size, nil
}

// SaveTo streams the asset at url into path, creating parent directories
// as needed. The destination filesystem must have room for the advertised
// content length; otherwise the transfer fails with ErrDiskSpace before
// any bytes are written.
func (d *HTTPDownloader) SaveTo(ctx context.Context, url, path string) (int64, error) {
	body, size, err := d.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	if size > 0 {
		if free := FreeSpace(dir); free > 0 && free < size {
			return 0, fmt.Errorf("%w: %d bytes free in %s, need %d", domain.ErrDiskSpace, free, dir, size)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Abandoned transfers should not leave half a file behind.
		os.Remove(path)
		return written, fmt.Errorf("write file: %w", err)
	}

	return written, nil
}

// progressReader wraps an io.ReadCloser to report bytes-transferred
// progress while a transfer is in flight.
type progressReader struct {
	reader     io.ReadCloser
	total      int64
	downloaded int64
	lastLog    time.Time
	logger     *slog.Logger
	url        string
	mu         sync.Mutex
	closed     bool
}

const progressLogInterval = 3 * time.Second

func newProgressReader(r io.ReadCloser, total int64, logger *slog.Logger, url string) *progressReader {
	return &progressReader{
		reader:  r,
		total:   total,
		lastLog: time.Now(),
		logger:  logger,
		url:     url,
	}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	if n > 0 {
		p.downloaded += int64(n)
		if time.Since(p.lastLog) > progressLogInterval {
			p.logProgress()
			p.lastLog = time.Now()
		}
	}

	return n, err
}

func (p *progressReader) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.downloaded > 0 {
		p.logProgress()
	}
	p.mu.Unlock()

	return p.reader.Close()
}

func (p *progressReader) logProgress() {
	if p.total > 0 {
		pct := float64(p.downloaded) / float64(p.total) * 100
		p.logger.Info("transfer progress",
			"downloaded_bytes", p.downloaded,
			"total_bytes", p.total,
			"percent", fmt.Sprintf("%.1f%%", pct),
		)
		return
	}
	p.logger.Info("transfer progress", "downloaded_bytes", p.downloaded)
}
