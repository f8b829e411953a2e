// Package resolver turns free-form text containing a share link into a
// canonical post URL and numeric content ID.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/iconidentify/tikgrab/internal/domain"
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s]+`)
	idPattern  = regexp.MustCompile(`/(?:video|v|photo)/(\d+)`)
)

// Config holds link resolution settings.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Resolver normalizes share links. Short-form links (vm/vt hosts) carry no
// content ID in the path; the service answers them with a permanent
// redirect to the canonical URL, which the resolver captures without
// following.
type Resolver struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// New creates a Resolver. The underlying client never follows redirects;
// the redirect target is the result.
func New(cfg Config, logger *slog.Logger) *Resolver {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// ExtractURL returns the first URL embedded in free-form text, which may
// surround the link with arbitrary words (share sheets often do).
func ExtractURL(text string) (string, error) {
	match := urlPattern.FindString(text)
	if match == "" {
		return "", fmt.Errorf("%w: no URL in %q", domain.ErrNoURL, text)
	}
	return match, nil
}

// ExtractContentID pulls the numeric post ID from a canonical URL.
func ExtractContentID(link string) (string, error) {
	m := idPattern.FindStringSubmatch(link)
	if m == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrIDNotFound, link)
	}
	return m[1], nil
}

// Resolve extracts a URL from text and normalizes it to canonical form.
func (r *Resolver) Resolve(ctx context.Context, text string) (string, error) {
	link, err := ExtractURL(text)
	if err != nil {
		return "", err
	}
	return r.Normalize(ctx, link)
}

// Normalize turns a share link into its canonical form. Links that already
// carry an author handle segment are canonical and pass through unchanged.
// Anything else is expected to answer with a permanent redirect; its
// Location, stripped of tracking query parameters, is the canonical URL.
func (r *Resolver) Normalize(ctx context.Context, link string) (string, error) {
	if strings.Contains(link, "/@") {
		return link, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrResolution, err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrResolution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently {
		return "", fmt.Errorf("%w: expected permanent redirect, got status %d", domain.ErrResolution, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: redirect without Location", domain.ErrResolution)
	}

	canonical := stripQuery(location)
	r.logger.Debug("share link resolved", "link", link, "canonical", canonical)
	return canonical, nil
}

func stripQuery(link string) string {
	if i := strings.IndexByte(link, '?'); i >= 0 {
		return link[:i]
	}
	return link
}
