package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

type fakeWatermarkStore struct {
	watermark int64
	setCalls  []int64
	events    []domain.ChangeEvent
	siblings  map[int64][]int64
	eventsErr error
}

func (s *fakeWatermarkStore) Watermark(ctx context.Context) (int64, error) {
	return s.watermark, nil
}

func (s *fakeWatermarkStore) SetWatermark(ctx context.Context, id int64) error {
	s.setCalls = append(s.setCalls, id)
	s.watermark = id
	return nil
}

func (s *fakeWatermarkStore) EventsAfter(ctx context.Context, afterID int64) ([]domain.ChangeEvent, error) {
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	var out []domain.ChangeEvent
	for _, e := range s.events {
		if e.ID > afterID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeWatermarkStore) MergeSiblings(ctx context.Context, inquiryIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range inquiryIDs {
		out = append(out, s.siblings[id]...)
	}
	return out, nil
}

type fakePublisher struct {
	published []int64
	failAfter int
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, inquiryID int64) error {
	if p.err != nil && len(p.published) >= p.failAfter {
		return p.err
	}
	p.published = append(p.published, inquiryID)
	return nil
}

func changeEvent(id, inquiryID int64, eventType string) domain.ChangeEvent {
	now := time.Now()
	return domain.ChangeEvent{
		ID:        id,
		InquiryID: inquiryID,
		Type:      &eventType,
		Date:      &now,
	}
}

func TestTickExpandsMergesAndDeduplicates(t *testing.T) {
	store := &fakeWatermarkStore{
		watermark: 100,
		events: []domain.ChangeEvent{
			changeEvent(101, 7, domain.EventRead),
			changeEvent(102, 7, domain.EventTopicChanged),
			changeEvent(103, 3, domain.EventMerged),
			changeEvent(104, 9, domain.EventRead),
		},
		siblings: map[int64][]int64{3: {3, 5, 7}},
	}
	feed := &fakePublisher{}
	task := NewResyncChangesTask(testLogger(), store, feed, time.Minute)

	require.NoError(t, task.tick(context.Background()))

	// Touched ids plus merge siblings, deduplicated and sorted.
	assert.Equal(t, []int64{3, 5, 7, 9}, feed.published)
	assert.Equal(t, []int64{104}, store.setCalls)
	assert.Equal(t, int64(4), task.processed.Load())
}

func TestTickEmptyFeedLeavesWatermark(t *testing.T) {
	store := &fakeWatermarkStore{watermark: 500}
	task := NewResyncChangesTask(testLogger(), store, &fakePublisher{}, time.Minute)

	require.NoError(t, task.tick(context.Background()))
	assert.Empty(t, store.setCalls)
}

func TestTickPublishFailureBlocksWatermark(t *testing.T) {
	store := &fakeWatermarkStore{
		watermark: 100,
		events: []domain.ChangeEvent{
			changeEvent(101, 1, domain.EventRead),
			changeEvent(102, 2, domain.EventRead),
		},
	}
	feed := &fakePublisher{failAfter: 1, err: errors.New("broker down")}
	task := NewResyncChangesTask(testLogger(), store, feed, time.Minute)

	err := task.tick(context.Background())
	assert.Error(t, err)
	// One id went out; the cursor must stay behind so the next tick
	// republishes both.
	assert.Empty(t, store.setCalls)
	assert.Equal(t, int64(100), store.watermark)
}

func TestTickWatermarkAdvancesToLastReadEvent(t *testing.T) {
	store := &fakeWatermarkStore{
		watermark: 0,
		events: []domain.ChangeEvent{
			changeEvent(10, 1, domain.EventRead),
			changeEvent(20, 1, domain.EventRead),
		},
	}
	task := NewResyncChangesTask(testLogger(), store, &fakePublisher{}, time.Minute)

	require.NoError(t, task.tick(context.Background()))
	// Both events touch the same inquiry; one publish, cursor at the last
	// event read.
	assert.Equal(t, int64(20), store.watermark)

	require.NoError(t, task.tick(context.Background()))
	assert.Equal(t, int64(20), store.watermark)
}

func TestTickLoggedSwallowsErrors(t *testing.T) {
	store := &fakeWatermarkStore{eventsErr: errors.New("query timeout")}
	task := NewResyncChangesTask(testLogger(), store, &fakePublisher{}, time.Minute)

	// Must not panic and must not advance anything.
	task.tickLogged(context.Background())
	assert.Empty(t, store.setCalls)
}
