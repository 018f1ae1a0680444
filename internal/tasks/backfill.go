package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/navikt/inquiry-migrator/internal/logging"
	"github.com/navikt/inquiry-migrator/internal/metrics"
)

// BackfillTaskName identifies the backfill scan.
const BackfillTaskName = "read-existing-ids"

// BackfillTask streams every migratable inquiry id from the primary store
// into the change-log stream. Run once to bootstrap a full migration; the
// consumer and resync task take over from there.
type BackfillTask struct {
	runner
	log   *slog.Logger
	store Backlog
	feed  ChangePublisher
}

func NewBackfillTask(log *slog.Logger, store Backlog, feed ChangePublisher) *BackfillTask {
	return &BackfillTask{
		log:   log.With(logging.Task(BackfillTaskName)),
		store: store,
		feed:  feed,
	}
}

func (t *BackfillTask) Name() string { return BackfillTaskName }

func (t *BackfillTask) Description() string {
	return "Reads every migratable inquiry id from the primary store and feeds it into the change-log stream."
}

func (t *BackfillTask) Start(ctx context.Context) error {
	if err := t.begin(ctx, t.loop); err != nil {
		return err
	}
	t.log.Info("task started")
	return nil
}

func (t *BackfillTask) Stop() error {
	if err := t.halt(); err != nil {
		return err
	}
	t.log.Info("task stopped")
	return nil
}

func (t *BackfillTask) Running() bool  { return t.isRunning() }
func (t *BackfillTask) Status() Status { return t.snapshot(t.Name(), t.Description()) }
func (t *BackfillTask) Reset() error   { return t.resetCounters() }

func (t *BackfillTask) loop(ctx context.Context) {
	err := t.store.EachInquiryID(ctx, func(id int64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.feed.Publish(ctx, id); err != nil {
			return err
		}
		t.addProcessed(1)
		metrics.RecordsProcessed.WithLabelValues(BackfillTaskName).Inc()
		return nil
	})
	switch {
	case err == nil:
		t.markDone()
		t.log.Info("backfill complete", slog.Int64("published", t.processed.Load()))
	case errors.Is(err, context.Canceled):
		t.log.Info("backfill interrupted", slog.Int64("published", t.processed.Load()))
	default:
		t.log.Error("backfill failed", logging.Error(err))
		metrics.CycleFailures.WithLabelValues(BackfillTaskName).Inc()
	}
}
