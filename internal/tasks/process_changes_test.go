package tasks

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func strPtr(s string) *string { return &s }

func payloadDoc(topic string) string {
	return `<metadataListe><metadata xsi:type="ns2:meldingFraBruker"><temagruppe>` + topic +
		`</temagruppe><fritekst>hei</fritekst></metadata></metadataListe>`
}

func testInquiry(id int64) domain.Inquiry {
	return domain.Inquiry{
		ID:          id,
		CaseID:      "case",
		CaseChainID: "chain",
		Type:        strPtr(string(domain.TypeSporsmalSkriftlig)),
		AktorID:     strPtr("1000099999999"),
		Status:      strPtr(domain.StatusCompleted),
		Created:     time.Now().AddDate(-1, 0, 0),
		FreeText:    strPtr(payloadDoc("ARBD")),
	}
}

type fakeMsg struct {
	id    int64
	acked bool
	naked bool
}

func (m *fakeMsg) InquiryID() int64 { return m.id }
func (m *fakeMsg) Ack() error       { m.acked = true; return nil }
func (m *fakeMsg) Nak() error       { m.naked = true; return nil }

type fakeGateway struct {
	inquiries   map[int64]domain.Inquiry
	events      map[int64][]domain.ChangeEvent
	postings    map[int64]domain.ArchivePosting
	attachments map[int64]domain.Attachment
	subjects    map[string]string
	pingErr     error
	queryErr    error
}

func (g *fakeGateway) Ping(ctx context.Context) error { return g.pingErr }

func (g *fakeGateway) Inquiries(ctx context.Context, ids []int64) ([]domain.Inquiry, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	var out []domain.Inquiry
	for _, id := range ids {
		if q, ok := g.inquiries[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (g *fakeGateway) EventsByInquiry(ctx context.Context, ids []int64) (map[int64][]domain.ChangeEvent, error) {
	return g.events, nil
}

func (g *fakeGateway) Postings(ctx context.Context, ids []int64) (map[int64]domain.ArchivePosting, error) {
	return g.postings, nil
}

func (g *fakeGateway) Attachments(ctx context.Context, ids []int64) (map[int64]domain.Attachment, error) {
	return g.attachments, nil
}

func (g *fakeGateway) SubjectMapping(ctx context.Context, aktorIDs []string) (map[string]string, error) {
	return g.subjects, nil
}

type fakeFeed struct {
	batches [][]stream.Message
	calls   int
	cancel  context.CancelFunc
}

func (f *fakeFeed) Fetch(ctx context.Context, max int, wait time.Duration) ([]stream.Message, error) {
	f.calls++
	if len(f.batches) == 0 {
		f.cancel()
		return nil, ctx.Err()
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

type fakeSnapshots struct {
	published []*domain.Reconstructed
	err       error
}

func (s *fakeSnapshots) Publish(ctx context.Context, rec *domain.Reconstructed) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, rec)
	return nil
}

func newTestGateway() *fakeGateway {
	return &fakeGateway{
		inquiries: map[int64]domain.Inquiry{42: testInquiry(42)},
		subjects:  map[string]string{"1000099999999": "11111111111"},
	}
}

func TestProcessBatchPublishesThenAcks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msg := &fakeMsg{id: 42}
	feed := &fakeFeed{batches: [][]stream.Message{{msg}}, cancel: cancel}
	out := &fakeSnapshots{}
	task := NewProcessChangesTask(testLogger(), newTestGateway(), feed, out, ProcessChangesConfig{})

	task.loop(ctx)

	require.Len(t, out.published, 1)
	assert.Equal(t, int64(42), out.published[0].InquiryID)
	assert.True(t, msg.acked)
	assert.False(t, msg.naked)
	assert.Equal(t, int64(1), task.processed.Load())
}

func TestProcessBatchPublishFailureNaksWithoutAck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msg := &fakeMsg{id: 42}
	feed := &fakeFeed{batches: [][]stream.Message{{msg}}, cancel: cancel}
	out := &fakeSnapshots{err: stream.ErrBrokerUnavailable}
	task := NewProcessChangesTask(testLogger(), newTestGateway(), feed, out, ProcessChangesConfig{})

	task.loop(ctx)

	assert.False(t, msg.acked)
	assert.True(t, msg.naked)
	assert.Equal(t, int64(0), task.processed.Load())
}

func TestProcessBatchStoreFailureAbortsWholeBatch(t *testing.T) {
	gw := newTestGateway()
	gw.queryErr = errors.New("connection reset")
	task := NewProcessChangesTask(testLogger(), gw, nil, &fakeSnapshots{}, ProcessChangesConfig{})

	err := task.processBatch(context.Background(), []stream.Message{&fakeMsg{id: 42}})
	assert.Error(t, err)
}

func TestProcessChunkResolvesFallbackSubject(t *testing.T) {
	task := NewProcessChangesTask(testLogger(), newTestGateway(), nil, &fakeSnapshots{}, ProcessChangesConfig{})

	records, err := task.ProcessChunk(context.Background(), []int64{42})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].NationalID)
	assert.Equal(t, "11111111111", *records[0].NationalID)
}

func TestProcessChunkJoinsPostingAndAttachment(t *testing.T) {
	gw := newTestGateway()
	q := testInquiry(42)
	q.FreeText = nil
	q.ArchivePostingID = strPtr("420")
	gw.inquiries[42] = q
	doc := payloadDoc("PENS")
	gw.postings = map[int64]domain.ArchivePosting{420: {ID: 420, NationalID: strPtr("33333333333")}}
	gw.attachments = map[int64]domain.Attachment{420: {PostingID: 420, Document: &doc}}
	task := NewProcessChangesTask(testLogger(), gw, nil, &fakeSnapshots{}, ProcessChangesConfig{})

	records, err := task.ProcessChunk(context.Background(), []int64{42})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "33333333333", *records[0].NationalID)
	require.NotNil(t, records[0].CurrentTopicGroup)
	assert.Equal(t, domain.TopicPENS, *records[0].CurrentTopicGroup)
}

func TestProcessChunkMalformedPostingID(t *testing.T) {
	gw := newTestGateway()
	q := testInquiry(42)
	q.ArchivePostingID = strPtr("not-a-number")
	gw.inquiries[42] = q
	task := NewProcessChangesTask(testLogger(), gw, nil, &fakeSnapshots{}, ProcessChangesConfig{})

	_, err := task.ProcessChunk(context.Background(), []int64{42})
	assert.Error(t, err)
}

func TestStartFailsWhenStoreUnreachable(t *testing.T) {
	gw := newTestGateway()
	gw.pingErr = errors.New("dial refused")
	task := NewProcessChangesTask(testLogger(), gw, nil, &fakeSnapshots{}, ProcessChangesConfig{})

	err := task.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, task.Running())
}
