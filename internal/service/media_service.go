// Package service implements the download pipeline: resolve a link, fetch
// its metadata once, and transfer the post's assets to disk.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/downloader"
	"github.com/iconidentify/tikgrab/internal/repository"
	"github.com/iconidentify/tikgrab/internal/resolver"
	"github.com/iconidentify/tikgrab/internal/session"
	"github.com/iconidentify/tikgrab/internal/worker"
	"github.com/iconidentify/tikgrab/pkg/ffmpeg"
	"github.com/iconidentify/tikgrab/pkg/tikwm"
)

// Searcher queries the aggregation API's search endpoints.
type Searcher interface {
	Search(ctx context.Context, method tikwm.SearchMethod, keyword string, count, cursor int) ([]map[string]any, error)
}

// DownloadOptions customize a single download call.
type DownloadOptions struct {
	// Filename overrides the default name (video and sound only; photo
	// sets always use positional names inside their directory).
	Filename string
	// Dir overrides the destination directory.
	Dir string
	// HD requests the high-definition encode when one exists.
	HD bool
}

// Config holds media service settings.
type Config struct {
	// BaseDir is the root destination for downloads.
	BaseDir string
}

// MediaService orchestrates resolution, metadata fetch, and transfer.
type MediaService struct {
	session  *session.Session
	resolver *resolver.Resolver
	dl       downloader.Downloader
	probe    *ffmpeg.Probe
	pool     *worker.Pool
	history  repository.HistoryRepository
	search   Searcher
	cfg      Config
	logger   *slog.Logger
}

// NewMediaService wires the download pipeline together. probe, history and
// search may be nil; the corresponding features degrade.
func NewMediaService(
	sess *session.Session,
	res *resolver.Resolver,
	dl downloader.Downloader,
	probe *ffmpeg.Probe,
	pool *worker.Pool,
	history repository.HistoryRepository,
	search Searcher,
	cfg Config,
	logger *slog.Logger,
) *MediaService {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{
		session:  sess,
		resolver: res,
		dl:       dl,
		probe:    probe,
		pool:     pool,
		history:  history,
		search:   search,
		cfg:      cfg,
		logger:   logger,
	}
}

// Resolve extracts and normalizes a link from free-form text and returns
// the canonical URL along with its numeric content ID.
func (s *MediaService) Resolve(ctx context.Context, text string) (link, id string, err error) {
	link, err = s.resolver.Resolve(ctx, text)
	if err != nil {
		return "", "", err
	}
	id, err = resolver.ExtractContentID(link)
	if err != nil {
		return "", "", err
	}
	return link, id, nil
}

// ensure resolves text to a canonical link and returns that link's
// metadata, fetching only when the session cache does not already hold it.
func (s *MediaService) ensure(ctx context.Context, text string) (*domain.Post, error) {
	link, err := s.resolver.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.session.Ensure(ctx, link)
}

// Download fetches the post behind the link in text and transfers its
// assets. The post's payload decides the strategy: a photo set downloads
// every image concurrently, anything with a playable URL downloads as a
// single video file.
func (s *MediaService) Download(ctx context.Context, text string, opts DownloadOptions) (*domain.DownloadResult, error) {
	post, err := s.ensure(ctx, text)
	if err != nil {
		return nil, err
	}

	kind, ok := post.Kind()
	if !ok {
		return nil, domain.NewPostError(post.ID, "download", domain.ErrNoDownloadableContent)
	}

	switch kind {
	case domain.ContentKindImages:
		return s.downloadImages(ctx, post, opts)
	default:
		return s.downloadVideo(ctx, post, opts)
	}
}

// downloadImages transfers every image of a photo set concurrently. The
// result's Media slice keeps the source order, with the failed slots empty
// and their indices collected in Failed.
func (s *MediaService) downloadImages(ctx context.Context, post *domain.Post, opts DownloadOptions) (*domain.DownloadResult, error) {
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Join(s.cfg.BaseDir, post.ID)
	}

	logger := s.logger.With("post_id", post.ID, "images", len(post.Images))
	logger.Info("downloading photo set", "dir", dir)

	paths := make([]string, len(post.Images))
	for i := range post.Images {
		paths[i] = filepath.Join(dir, fmt.Sprintf("image_%d.jpg", i+1))
	}

	errs := s.pool.Run(ctx, len(post.Images), func(ctx context.Context, i int) error {
		_, err := s.dl.SaveTo(ctx, post.Images[i], paths[i])
		return err
	})

	result := &domain.DownloadResult{
		Dir:   dir,
		Media: make([]string, len(post.Images)),
		Type:  domain.ContentKindImages,
	}
	for i, err := range errs {
		if err != nil {
			logger.Warn("image transfer failed", "index", i, "url", post.Images[i], "error", err)
			result.Failed = append(result.Failed, i)
			continue
		}
		result.Media[i] = paths[i]
		s.record(ctx, post.ID, domain.ContentKindImages, paths[i], 0)
	}

	if !result.Complete() {
		return result, domain.NewPostError(post.ID, "download images",
			fmt.Errorf("%w: %d of %d", domain.ErrPartialDownload, len(result.Failed), len(post.Images)))
	}
	logger.Info("photo set complete", "files", len(result.Media))
	return result, nil
}

// downloadVideo transfers the post's video as a single file and probes its
// dimensions when ffprobe is available. A failed probe only costs the
// dimensions, never the download.
func (s *MediaService) downloadVideo(ctx context.Context, post *domain.Post, opts DownloadOptions) (*domain.DownloadResult, error) {
	url := post.PlayURL(opts.HD)
	if url == "" {
		return nil, domain.NewPostError(post.ID, "download video", domain.ErrNoDownloadableContent)
	}

	dir := opts.Dir
	if dir == "" {
		dir = s.cfg.BaseDir
	}
	filename := opts.Filename
	if filename == "" {
		filename = post.ID + ".mp4"
	}
	path := filepath.Join(dir, filename)

	logger := s.logger.With("post_id", post.ID, "hd", opts.HD && post.HDPlay != "")
	logger.Info("downloading video", "path", path)

	size, err := s.dl.SaveTo(ctx, url, path)
	if err != nil {
		return nil, domain.NewPostError(post.ID, "download video", err)
	}

	result := &domain.DownloadResult{
		Dir:   dir,
		Media: []string{path},
		Type:  domain.ContentKindVideo,
		Dimensions: domain.Dimensions{
			Duration: post.Duration,
		},
	}

	if s.probe != nil && s.probe.IsAvailable() {
		if info, err := s.probe.Inspect(ctx, path); err != nil {
			logger.Warn("probe failed", "error", err)
		} else {
			result.Width = info.Width
			result.Height = info.Height
			if info.Duration > 0 {
				result.Duration = info.Duration
			}
		}
	}

	s.record(ctx, post.ID, domain.ContentKindVideo, path, size)
	logger.Info("video complete", "bytes", size)
	return result, nil
}

// DownloadSound transfers the post's embedded track. The default filename
// comes from the track title, falling back to the post ID.
func (s *MediaService) DownloadSound(ctx context.Context, text, filename string) (*domain.DownloadResult, error) {
	post, err := s.ensure(ctx, text)
	if err != nil {
		return nil, err
	}

	url := post.SoundURL()
	if url == "" {
		return nil, domain.NewPostError(post.ID, "download sound", domain.ErrNoSound)
	}

	if filename == "" {
		if title := sanitizeFilename(post.MusicInfo.Title); title != "" {
			filename = title + ".mp3"
		} else {
			filename = post.ID + ".mp3"
		}
	}
	path := filepath.Join(s.cfg.BaseDir, filename)

	size, err := s.dl.SaveTo(ctx, url, path)
	if err != nil {
		return nil, domain.NewPostError(post.ID, "download sound", err)
	}

	s.record(ctx, post.ID, domain.ContentKindAudio, path, size)
	s.logger.Info("sound complete", "post_id", post.ID, "path", path, "bytes", size)

	return &domain.DownloadResult{
		Dir:   s.cfg.BaseDir,
		Media: []string{path},
		Type:  domain.ContentKindAudio,
	}, nil
}

// Search forwards to the aggregation API's search endpoints.
func (s *MediaService) Search(ctx context.Context, method tikwm.SearchMethod, keyword string, count, cursor int) ([]map[string]any, error) {
	if s.search == nil {
		return nil, fmt.Errorf("search not configured")
	}
	return s.search.Search(ctx, method, keyword, count, cursor)
}

// History lists previously recorded downloads for a post.
func (s *MediaService) History(ctx context.Context, postID string) ([]repository.AssetRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListByPost(ctx, postID)
}

// Close closes the session and its fetcher.
func (s *MediaService) Close() error {
	return s.session.Close()
}

// record writes to the download history; history is optional and a write
// failure never fails the download.
func (s *MediaService) record(ctx context.Context, postID string, kind domain.ContentKind, path string, size int64) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, repository.AssetRecord{
		PostID: postID,
		Kind:   kind,
		Path:   path,
		Size:   size,
	})
	if err != nil {
		s.logger.Warn("history record failed", "post_id", postID, "error", err)
	}
}

// sanitizeFilename strips characters that are unsafe in filenames.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(name)
}
