package handler

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/resolver"
	"github.com/iconidentify/tikgrab/internal/service"
	"github.com/iconidentify/tikgrab/internal/session"
	"github.com/iconidentify/tikgrab/internal/worker"
	"github.com/iconidentify/tikgrab/pkg/tikwm"
)

const testLink = "https://www.tiktok.com/@user/video/7300000000000000001"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withRouteContext(ctx context.Context, rctx *chi.Context) context.Context {
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

type stubFetcher struct {
	post *domain.Post
}

func (f *stubFetcher) Fetch(ctx context.Context, link string) (*domain.Post, error) {
	return f.post, nil
}

type stubDownloader struct{}

func (stubDownloader) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("data")), 4, nil
}

func (stubDownloader) SaveTo(ctx context.Context, url, path string) (int64, error) {
	return 4, nil
}

type stubSearcher struct {
	results []map[string]any
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, method tikwm.SearchMethod, keyword string, count, cursor int) ([]map[string]any, error) {
	if err := validateMethod(method); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func validateMethod(method tikwm.SearchMethod) error {
	switch method {
	case tikwm.SearchKeyword, tikwm.SearchHashtag:
		return nil
	default:
		return domain.ErrInvalidSearchMethod
	}
}

func newTestMediaService(t *testing.T, post *domain.Post, search service.Searcher) *service.MediaService {
	t.Helper()
	return service.NewMediaService(
		session.New(&stubFetcher{post: post}, nil),
		resolver.New(resolver.Config{}, nil),
		stubDownloader{},
		nil,
		worker.NewPool(2, nil),
		nil,
		search,
		service.Config{BaseDir: t.TempDir()},
		nil,
	)
}
