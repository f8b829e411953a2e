// Package session caches the metadata of the most recently handled link so
// that successive operations on the same post reuse a single fetch.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/iconidentify/tikgrab/internal/domain"
)

// Fetcher retrieves post metadata for a canonical link.
type Fetcher interface {
	Fetch(ctx context.Context, link string) (*domain.Post, error)
}

// Session holds a single (link, post) pair. Ensure replaces the pair
// atomically: observers never see a new link with the previous post's
// metadata. The mutex is held across the fetch, so concurrent calls for
// the same link produce exactly one upstream request.
type Session struct {
	mu      sync.Mutex
	fetcher Fetcher
	logger  *slog.Logger

	link   string
	post   *domain.Post
	closed bool
}

// New creates a Session backed by the given fetcher.
func New(fetcher Fetcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{fetcher: fetcher, logger: logger}
}

// Ensure returns the cached post when link matches the cached link, and
// fetches fresh metadata otherwise, replacing the cached pair.
func (s *Session) Ensure(ctx context.Context, link string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrSessionClosed
	}

	if s.post != nil && s.link == link {
		s.logger.Debug("session cache hit", "link", link, "post_id", s.post.ID)
		return s.post, nil
	}

	post, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}

	s.link = link
	s.post = post
	s.logger.Debug("session cache replaced", "link", link, "post_id", post.ID)
	return post, nil
}

// Current returns the cached pair without fetching. ok is false when
// nothing has been cached yet.
func (s *Session) Current() (link string, post *domain.Post, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.post == nil {
		return "", nil, false
	}
	return s.link, s.post, true
}

// Invalidate drops the cached pair.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link = ""
	s.post = nil
}

// Close discards the cache and closes the fetcher when it holds
// resources. Ensure fails with ErrSessionClosed afterwards. Close is
// idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.link = ""
	s.post = nil

	if closer, ok := s.fetcher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close fetcher: %w", err)
		}
	}
	return nil
}
