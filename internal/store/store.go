package store

import (
	"context"

	"github.com/user/retro-tv-go/internal/model"
)

// Store defines the interface for the optional play-history database.
// The core playback loop works without one.
type Store interface {
	// Play history
	RecordPlay(ctx context.Context, event *model.PlayEvent) error
	RecentPlays(ctx context.Context, limit int) ([]*model.PlayEvent, error)
	CountPlays(ctx context.Context) (int64, error)

	// Submission audit log
	RecordSubmission(ctx context.Context, rec *model.SubmissionRecord) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
