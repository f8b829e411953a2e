package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/repository"
	"github.com/iconidentify/tikgrab/internal/resolver"
	"github.com/iconidentify/tikgrab/internal/session"
	"github.com/iconidentify/tikgrab/internal/worker"
	"github.com/iconidentify/tikgrab/pkg/tikwm"
)

type fakeFetcher struct {
	post  *domain.Post
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, link string) (*domain.Post, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

type fakeDownloader struct {
	mu     sync.Mutex
	saved  map[string]string // path -> url
	failOn map[string]bool   // url -> fail
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{saved: make(map[string]string), failOn: make(map[string]bool)}
}

func (d *fakeDownloader) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("data")), 4, nil
}

func (d *fakeDownloader) SaveTo(ctx context.Context, url, path string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOn[url] {
		return 0, errors.New("transfer failed")
	}
	d.saved[path] = url
	return 4, nil
}

func newTestService(t *testing.T, post *domain.Post, dl *fakeDownloader) (*MediaService, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{post: post}
	return NewMediaService(
		session.New(fetcher, nil),
		resolver.New(resolver.Config{}, nil),
		dl,
		nil,
		worker.NewPool(4, nil),
		nil,
		nil,
		Config{BaseDir: t.TempDir()},
		nil,
	), fetcher
}

const canonicalLink = "https://www.tiktok.com/@user/video/7300000000000000001"

func TestMediaService_Download_DispatchesToImages(t *testing.T) {
	post := &domain.Post{
		ID: "7300000000000000001",
		// Both present: the image list must win.
		Play:   "https://cdn.example/video.mp4",
		Images: []string{"https://cdn.example/a.jpg", "https://cdn.example/b.jpg", "https://cdn.example/c.jpg"},
	}
	dl := newFakeDownloader()
	svc, _ := newTestService(t, post, dl)

	result, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if result.Type != domain.ContentKindImages {
		t.Errorf("Type = %q, want images", result.Type)
	}
	if len(result.Media) != 3 {
		t.Fatalf("len(Media) = %d, want 3", len(result.Media))
	}
	for i, path := range result.Media {
		wantName := fmt.Sprintf("image_%d.jpg", i+1)
		if filepath.Base(path) != wantName {
			t.Errorf("Media[%d] = %q, want basename %q", i, path, wantName)
		}
		if dl.saved[path] != post.Images[i] {
			t.Errorf("Media[%d] came from %q, want %q (order must match source)", i, dl.saved[path], post.Images[i])
		}
	}
	if filepath.Base(result.Dir) != post.ID {
		t.Errorf("Dir = %q, want a directory named after the post ID", result.Dir)
	}
}

func TestMediaService_Download_PartialImageFailure(t *testing.T) {
	post := &domain.Post{
		ID:     "42",
		Images: []string{"https://cdn.example/a.jpg", "https://cdn.example/b.jpg", "https://cdn.example/c.jpg"},
	}
	dl := newFakeDownloader()
	dl.failOn["https://cdn.example/b.jpg"] = true
	svc, _ := newTestService(t, post, dl)

	result, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{})
	if !errors.Is(err, domain.ErrPartialDownload) {
		t.Fatalf("err = %v, want ErrPartialDownload", err)
	}
	if result == nil {
		t.Fatal("partial failure must still return the result")
	}
	if len(result.Failed) != 1 || result.Failed[0] != 1 {
		t.Errorf("Failed = %v, want [1]", result.Failed)
	}
	if result.Media[1] != "" {
		t.Errorf("Media[1] = %q, want empty slot for the failed transfer", result.Media[1])
	}
	if result.Media[0] == "" || result.Media[2] == "" {
		t.Error("successful transfers must keep their positions")
	}
}

func TestMediaService_Download_DispatchesToVideo(t *testing.T) {
	post := &domain.Post{
		ID:     "7300000000000000001",
		Play:   "https://cdn.example/sd.mp4",
		HDPlay: "https://cdn.example/hd.mp4",
	}
	dl := newFakeDownloader()
	svc, _ := newTestService(t, post, dl)

	result, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{HD: true})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if result.Type != domain.ContentKindVideo {
		t.Errorf("Type = %q, want video", result.Type)
	}
	if len(result.Media) != 1 {
		t.Fatalf("len(Media) = %d, want 1", len(result.Media))
	}
	if filepath.Base(result.Media[0]) != post.ID+".mp4" {
		t.Errorf("filename = %q, want %q", filepath.Base(result.Media[0]), post.ID+".mp4")
	}
	if dl.saved[result.Media[0]] != post.HDPlay {
		t.Errorf("downloaded %q, want the HD URL", dl.saved[result.Media[0]])
	}
}

func TestMediaService_Download_HDFallsBackToSD(t *testing.T) {
	post := &domain.Post{ID: "1", Play: "https://cdn.example/sd.mp4"}
	dl := newFakeDownloader()
	svc, _ := newTestService(t, post, dl)

	result, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{HD: true})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if dl.saved[result.Media[0]] != post.Play {
		t.Errorf("downloaded %q, want SD fallback %q", dl.saved[result.Media[0]], post.Play)
	}
}

func TestMediaService_Download_NoContent(t *testing.T) {
	post := &domain.Post{ID: "1", Title: "metadata only"}
	svc, _ := newTestService(t, post, newFakeDownloader())

	_, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{})
	if !errors.Is(err, domain.ErrNoDownloadableContent) {
		t.Fatalf("err = %v, want ErrNoDownloadableContent", err)
	}
}

func TestMediaService_Download_FilenameOverride(t *testing.T) {
	post := &domain.Post{ID: "1", Play: "https://cdn.example/sd.mp4"}
	dl := newFakeDownloader()
	svc, _ := newTestService(t, post, dl)

	result, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{Filename: "custom.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(result.Media[0]) != "custom.mp4" {
		t.Errorf("filename = %q, want custom.mp4", filepath.Base(result.Media[0]))
	}
}

func TestMediaService_RepeatedDownloadFetchesOnce(t *testing.T) {
	post := &domain.Post{ID: "1", Play: "https://cdn.example/sd.mp4"}
	svc, fetcher := newTestService(t, post, newFakeDownloader())

	for i := 0; i < 3; i++ {
		if _, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (session cache)", fetcher.calls)
	}
}

func TestMediaService_DownloadSound(t *testing.T) {
	post := &domain.Post{
		ID:        "55",
		Play:      "https://cdn.example/sd.mp4",
		MusicInfo: domain.MusicInfo{Title: "My: Song?", Play: "https://cdn.example/track.mp3"},
	}
	dl := newFakeDownloader()
	svc, _ := newTestService(t, post, dl)

	result, err := svc.DownloadSound(context.Background(), canonicalLink, "")
	if err != nil {
		t.Fatalf("DownloadSound failed: %v", err)
	}
	if result.Type != domain.ContentKindAudio {
		t.Errorf("Type = %q, want audio", result.Type)
	}
	name := filepath.Base(result.Media[0])
	if name != "My_ Song_.mp3" {
		t.Errorf("filename = %q, want sanitized track title", name)
	}
	if dl.saved[result.Media[0]] != post.MusicInfo.Play {
		t.Errorf("downloaded %q, want the track URL", dl.saved[result.Media[0]])
	}
}

func TestMediaService_DownloadSound_NoTrack(t *testing.T) {
	post := &domain.Post{ID: "55", Play: "https://cdn.example/sd.mp4"}
	svc, _ := newTestService(t, post, newFakeDownloader())

	_, err := svc.DownloadSound(context.Background(), canonicalLink, "")
	if !errors.Is(err, domain.ErrNoSound) {
		t.Fatalf("err = %v, want ErrNoSound", err)
	}
}

func TestMediaService_DownloadAfterClose(t *testing.T) {
	post := &domain.Post{ID: "1", Play: "https://cdn.example/sd.mp4"}
	svc, _ := newTestService(t, post, newFakeDownloader())

	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{})
	if !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}

type fakeSearcher struct {
	gotMethod tikwm.SearchMethod
}

func (s *fakeSearcher) Search(ctx context.Context, method tikwm.SearchMethod, keyword string, count, cursor int) ([]map[string]any, error) {
	s.gotMethod = method
	return []map[string]any{{"id": "1"}}, nil
}

func TestMediaService_SearchPassthrough(t *testing.T) {
	searcher := &fakeSearcher{}
	fetcher := &fakeFetcher{post: &domain.Post{ID: "1"}}
	svc := NewMediaService(
		session.New(fetcher, nil),
		resolver.New(resolver.Config{}, nil),
		newFakeDownloader(),
		nil,
		worker.NewPool(1, nil),
		nil,
		searcher,
		Config{BaseDir: t.TempDir()},
		nil,
	)

	results, err := svc.Search(context.Background(), tikwm.SearchHashtag, "cats", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
	if searcher.gotMethod != tikwm.SearchHashtag {
		t.Errorf("method = %q, want hashtag", searcher.gotMethod)
	}
}

func TestMediaService_HistoryRecordsDownloads(t *testing.T) {
	dir := t.TempDir()
	history, err := repository.NewSQLiteHistory(filepath.Join(dir, "history.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer history.Close()

	post := &domain.Post{ID: "777", Play: "https://cdn.example/sd.mp4"}
	fetcher := &fakeFetcher{post: post}
	svc := NewMediaService(
		session.New(fetcher, nil),
		resolver.New(resolver.Config{}, nil),
		newFakeDownloader(),
		nil,
		worker.NewPool(1, nil),
		history,
		nil,
		Config{BaseDir: dir},
		nil,
	)

	if _, err := svc.Download(context.Background(), canonicalLink, DownloadOptions{}); err != nil {
		t.Fatal(err)
	}

	records, err := svc.History(context.Background(), "777")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Kind != domain.ContentKindVideo {
		t.Errorf("Kind = %q, want video", records[0].Kind)
	}
}
