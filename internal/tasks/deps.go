package tasks

import (
	"context"
	"time"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/stream"
)

// Gateway is the store surface the change feed consumer needs.
type Gateway interface {
	Ping(ctx context.Context) error
	Inquiries(ctx context.Context, ids []int64) ([]domain.Inquiry, error)
	EventsByInquiry(ctx context.Context, ids []int64) (map[int64][]domain.ChangeEvent, error)
	Postings(ctx context.Context, ids []int64) (map[int64]domain.ArchivePosting, error)
	Attachments(ctx context.Context, ids []int64) (map[int64]domain.Attachment, error)
	SubjectMapping(ctx context.Context, aktorIDs []string) (map[string]string, error)
}

// WatermarkStore is the store surface the resync task needs.
type WatermarkStore interface {
	Watermark(ctx context.Context) (int64, error)
	SetWatermark(ctx context.Context, id int64) error
	EventsAfter(ctx context.Context, afterID int64) ([]domain.ChangeEvent, error)
	MergeSiblings(ctx context.Context, inquiryIDs []int64) ([]int64, error)
}

// Backlog streams every migratable inquiry id for the backfill task.
type Backlog interface {
	EachInquiryID(ctx context.Context, fn func(id int64) error) error
}

// ChangeFeed polls the durable change-log stream.
type ChangeFeed interface {
	Fetch(ctx context.Context, max int, wait time.Duration) ([]stream.Message, error)
}

// ChangePublisher appends inquiry ids to the change-log stream.
type ChangePublisher interface {
	Publish(ctx context.Context, inquiryID int64) error
}

// SnapshotPublisher publishes reconstructed inquiries to the output stream.
type SnapshotPublisher interface {
	Publish(ctx context.Context, rec *domain.Reconstructed) error
}
