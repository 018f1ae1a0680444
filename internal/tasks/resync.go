package tasks

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/logging"
	"github.com/navikt/inquiry-migrator/internal/metrics"
)

// ResyncChangesTaskName identifies the watermark resync task.
const ResyncChangesTaskName = "resync-changes"

// ResyncChangesTask periodically scans the change-event table beyond the
// persisted watermark and feeds the affected inquiry ids into the
// change-log stream. Merge events are expanded to every terminal sibling in
// the same case chain. The watermark advances to the last event READ, not
// the last id published, so progress is monotonic even when expansion
// yields no new work.
type ResyncChangesTask struct {
	runner
	log      *slog.Logger
	store    WatermarkStore
	feed     ChangePublisher
	interval time.Duration
}

func NewResyncChangesTask(log *slog.Logger, store WatermarkStore, feed ChangePublisher, interval time.Duration) *ResyncChangesTask {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ResyncChangesTask{
		log:      log.With(logging.Task(ResyncChangesTaskName)),
		store:    store,
		feed:     feed,
		interval: interval,
	}
}

func (t *ResyncChangesTask) Name() string { return ResyncChangesTaskName }

func (t *ResyncChangesTask) Description() string {
	return "Tracks new change events beyond the persisted watermark and feeds the affected inquiry ids into the change-log stream."
}

func (t *ResyncChangesTask) Start(ctx context.Context) error {
	if err := t.begin(ctx, t.loop); err != nil {
		return err
	}
	t.log.Info("task started", slog.Duration("interval", t.interval))
	return nil
}

func (t *ResyncChangesTask) Stop() error {
	if err := t.halt(); err != nil {
		return err
	}
	t.log.Info("task stopped")
	return nil
}

func (t *ResyncChangesTask) Running() bool  { return t.isRunning() }
func (t *ResyncChangesTask) Status() Status { return t.snapshot(t.Name(), t.Description()) }
func (t *ResyncChangesTask) Reset() error   { return t.resetCounters() }

func (t *ResyncChangesTask) loop(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.tickLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tickLogged(ctx)
		}
	}
}

// tickLogged keeps tick failures inside the loop: a failed tick is logged
// and retried on the next schedule, never crashing the task.
func (t *ResyncChangesTask) tickLogged(ctx context.Context) {
	if err := t.tick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		t.log.Error("resync tick failed", logging.Error(err))
		metrics.CycleFailures.WithLabelValues(ResyncChangesTaskName).Inc()
	}
}

// tick runs one resync pass.
func (t *ResyncChangesTask) tick(ctx context.Context) error {
	watermark, err := t.store.Watermark(ctx)
	if err != nil {
		return err
	}

	events, err := t.store.EventsAfter(ctx, watermark)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		// Nothing new; leave the watermark untouched.
		return nil
	}

	ids, err := t.expand(ctx, events)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := t.feed.Publish(ctx, id); err != nil {
			// Watermark must not advance past unpublished work.
			return err
		}
	}

	lastRead := events[len(events)-1].ID
	if err := t.store.SetWatermark(ctx, lastRead); err != nil {
		return err
	}
	metrics.WatermarkID.Set(float64(lastRead))
	t.addProcessed(int64(len(ids)))
	metrics.RecordsProcessed.WithLabelValues(ResyncChangesTaskName).Add(float64(len(ids)))
	t.log.Info("resync tick complete",
		slog.Int("events", len(events)),
		slog.Int("published", len(ids)),
		logging.Watermark(lastRead))
	return nil
}

// expand deduplicates the touched inquiry ids and unions in every terminal
// case-chain sibling of each merged inquiry, returning a sorted result for
// deterministic publish order.
func (t *ResyncChangesTask) expand(ctx context.Context, events []domain.ChangeEvent) ([]int64, error) {
	seen := make(map[int64]struct{})
	var merged []int64
	for _, e := range events {
		seen[e.InquiryID] = struct{}{}
		if e.Type != nil && *e.Type == domain.EventMerged {
			merged = append(merged, e.InquiryID)
		}
	}
	if len(merged) > 0 {
		siblings, err := t.store.MergeSiblings(ctx, merged)
		if err != nil {
			return nil, err
		}
		for _, id := range siblings {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
