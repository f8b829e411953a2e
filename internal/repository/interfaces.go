// Package repository persists the download history.
package repository

import (
	"context"
	"time"

	"github.com/iconidentify/tikgrab/internal/domain"
)

// AssetRecord is one downloaded file.
type AssetRecord struct {
	ID        int64
	PostID    string
	Kind      domain.ContentKind
	Path      string
	Size      int64
	CreatedAt time.Time
}

// HistoryRepository records completed transfers so repeated requests can
// be detected and past downloads listed.
type HistoryRepository interface {
	Record(ctx context.Context, rec AssetRecord) error
	Exists(ctx context.Context, postID string, kind domain.ContentKind) (bool, error)
	ListByPost(ctx context.Context, postID string) ([]AssetRecord, error)
	Close() error
}
