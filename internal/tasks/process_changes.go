package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/logging"
	"github.com/navikt/inquiry-migrator/internal/metrics"
	"github.com/navikt/inquiry-migrator/internal/rebuild"
	"github.com/navikt/inquiry-migrator/internal/stream"
)

// ProcessChangesTaskName identifies the change feed consumer.
const ProcessChangesTaskName = "process-changes"

// ProcessChangesTask consumes inquiry ids from the change-log stream,
// reconstructs each inquiry from the legacy stores, publishes the result to
// the snapshot stream and only then commits the read position. A crash
// between publish and commit reprocesses the batch; downstream consumers
// are idempotent, so duplicates are safe and loss is not.
type ProcessChangesTask struct {
	runner
	log       *slog.Logger
	store     Gateway
	feed      ChangeFeed
	out       SnapshotPublisher
	batchSize int
	pollWait  time.Duration
	chunkSize int
}

// ProcessChangesConfig tunes the consumer.
type ProcessChangesConfig struct {
	BatchSize int
	PollWait  time.Duration
	ChunkSize int
}

func NewProcessChangesTask(log *slog.Logger, store Gateway, feed ChangeFeed, out SnapshotPublisher, cfg ProcessChangesConfig) *ProcessChangesTask {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.PollWait <= 0 {
		cfg.PollWait = 10 * time.Second
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > 1000 {
		cfg.ChunkSize = 1000
	}
	return &ProcessChangesTask{
		log:       log.With(logging.Task(ProcessChangesTaskName)),
		store:     store,
		feed:      feed,
		out:       out,
		batchSize: cfg.BatchSize,
		pollWait:  cfg.PollWait,
		chunkSize: cfg.ChunkSize,
	}
}

func (t *ProcessChangesTask) Name() string { return ProcessChangesTaskName }

func (t *ProcessChangesTask) Description() string {
	return "Reads inquiry ids from the change-log stream, reconstructs the denormalized inquiry from the legacy stores and republishes it to the snapshot stream."
}

// Start probes both stores before transitioning; a dead store fails the
// start instead of producing a task that dies on its first poll.
func (t *ProcessChangesTask) Start(ctx context.Context) error {
	if err := t.store.Ping(ctx); err != nil {
		return fmt.Errorf("start %s: %w", ProcessChangesTaskName, err)
	}
	if err := t.begin(ctx, t.loop); err != nil {
		return err
	}
	t.log.Info("task started")
	return nil
}

func (t *ProcessChangesTask) Stop() error {
	if err := t.halt(); err != nil {
		return err
	}
	t.log.Info("task stopped")
	return nil
}

func (t *ProcessChangesTask) Running() bool  { return t.isRunning() }
func (t *ProcessChangesTask) Status() Status { return t.snapshot(t.Name(), t.Description()) }
func (t *ProcessChangesTask) Reset() error   { return t.resetCounters() }

func (t *ProcessChangesTask) loop(ctx context.Context) {
	for ctx.Err() == nil {
		msgs, err := t.feed.Fetch(ctx, t.batchSize, t.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Error("poll failed", logging.Error(err))
			metrics.CycleFailures.WithLabelValues(ProcessChangesTaskName).Inc()
			sleep(ctx, time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		start := time.Now()
		if err := t.processBatch(ctx, msgs); err != nil {
			// Nothing was committed; the same offset range is retried on
			// the next poll.
			t.log.Error("batch aborted", logging.Error(err), logging.Batch(len(msgs)))
			metrics.CycleFailures.WithLabelValues(ProcessChangesTaskName).Inc()
			for _, m := range msgs {
				_ = m.Nak()
			}
			continue
		}
		for _, m := range msgs {
			if err := m.Ack(); err != nil {
				t.log.Warn("ack failed, batch will be redelivered", logging.Error(err))
			}
		}
		t.addProcessed(int64(len(msgs)))
		metrics.RecordsProcessed.WithLabelValues(ProcessChangesTaskName).Add(float64(len(msgs)))
		metrics.BatchDuration.WithLabelValues(ProcessChangesTaskName).Observe(time.Since(start).Seconds())
		t.log.Info("batch processed",
			logging.Batch(len(msgs)),
			logging.Duration(time.Since(start).Milliseconds()))
	}
}

// processBatch reconstructs and publishes every id in the polled batch.
// Publish order follows input id order within each chunk. Any failure
// aborts the whole batch before commit.
func (t *ProcessChangesTask) processBatch(ctx context.Context, msgs []stream.Message) error {
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.InquiryID()
	}
	for start := 0; start < len(ids); start += t.chunkSize {
		end := min(start+t.chunkSize, len(ids))
		records, err := t.ProcessChunk(ctx, ids[start:end])
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := t.out.Publish(ctx, rec); err != nil {
				return err
			}
			metrics.SnapshotsPublished.Inc()
		}
	}
	return nil
}

// ProcessChunk joins one chunk of inquiries with their events, postings,
// attachments and fallback subject mapping, and reconstructs each. Also
// used directly by the administrative force-sync and dry-run operations.
func (t *ProcessChangesTask) ProcessChunk(ctx context.Context, ids []int64) ([]*domain.Reconstructed, error) {
	inquiries, err := t.store.Inquiries(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Subjects are resolved from the aktor mapping only where no posting
	// will carry the national id.
	var unmappedAktors []string
	var postingIDs []int64
	postingByInquiry := make(map[int64]int64)
	for _, q := range inquiries {
		if q.ArchivePostingID == nil {
			if q.AktorID != nil {
				unmappedAktors = append(unmappedAktors, *q.AktorID)
			}
			continue
		}
		pid, err := strconv.ParseInt(*q.ArchivePostingID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("inquiry %d: malformed arkivpost id %q", q.ID, *q.ArchivePostingID)
		}
		postingIDs = append(postingIDs, pid)
		postingByInquiry[q.ID] = pid
	}

	events, err := t.store.EventsByInquiry(ctx, ids)
	if err != nil {
		return nil, err
	}
	postings, err := t.store.Postings(ctx, postingIDs)
	if err != nil {
		return nil, err
	}
	attachments, err := t.store.Attachments(ctx, postingIDs)
	if err != nil {
		return nil, err
	}
	subjects, err := t.store.SubjectMapping(ctx, unmappedAktors)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Reconstructed, 0, len(inquiries))
	for _, q := range inquiries {
		in := rebuild.Input{
			Inquiry: q,
			Events:  events[q.ID],
		}
		if pid, ok := postingByInquiry[q.ID]; ok {
			if p, ok := postings[pid]; ok {
				posting := p
				in.Posting = &posting
			}
			if a, ok := attachments[pid]; ok {
				att := a
				in.Attachment = &att
			}
		}
		if q.AktorID != nil {
			if fnr, ok := subjects[*q.AktorID]; ok {
				in.FallbackNationalID = &fnr
			}
		}
		rec, err := rebuild.Reconstruct(in)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
