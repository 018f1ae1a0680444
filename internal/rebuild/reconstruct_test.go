package rebuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func fromUserDoc(topic string) string {
	return `<metadataListe><metadata xsi:type="ns2:meldingFraBruker"><temagruppe>` + topic +
		`</temagruppe><fritekst>hei</fritekst></metadata></metadataListe>`
}

func baseInquiry(id int64) domain.Inquiry {
	return domain.Inquiry{
		ID:          id,
		CaseID:      "case-1",
		CaseChainID: "chain-1",
		Type:        strPtr(string(domain.TypeSporsmalSkriftlig)),
		AktorID:     strPtr("1000012345678"),
		Status:      strPtr(domain.StatusCompleted),
		Created:     testNow.AddDate(-1, 0, 0),
		FreeText:    strPtr(fromUserDoc("OKSOS")),
	}
}

func event(inquiryID int64, eventType string, at time.Time) domain.ChangeEvent {
	return domain.ChangeEvent{
		InquiryID: inquiryID,
		Actor:     strPtr("Z999999"),
		Type:      strPtr(eventType),
		Date:      timePtr(at),
	}
}

func TestReconstructTopicChangeOverridesPayloadTopic(t *testing.T) {
	changed := event(123, domain.EventTopicChanged, testNow.AddDate(0, -1, 0))
	changed.Value = strPtr("ARBD")

	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(123),
		Events: []domain.ChangeEvent{
			event(123, domain.EventRead, testNow.AddDate(0, -2, 0)),
			changed,
		},
		Now: testNow,
	})
	require.NoError(t, err)

	require.NotNil(t, rec.CurrentTopicGroup)
	assert.Equal(t, domain.TopicARBD, *rec.CurrentTopicGroup)
	// The payload's OKSOS topic is still carried on the message itself.
	require.NotNil(t, rec.MessageList)
	require.Len(t, rec.MessageList.Messages, 1)
	assert.Equal(t, domain.TopicOKSOS, *rec.MessageList.Messages[0].TopicGroup)
	// ARBD is not a short-retention topic.
	assert.Equal(t, testNow.AddDate(25, 0, 0), rec.ExpiryDate)
}

func TestReconstructShortRetentionTopics(t *testing.T) {
	for _, topic := range []string{"OKSOS", "ANSOS"} {
		q := baseInquiry(7)
		q.FreeText = strPtr(fromUserDoc(topic))
		rec, err := Reconstruct(Input{Inquiry: q, Now: testNow})
		require.NoError(t, err)
		assert.Equal(t, testNow.AddDate(2, 0, 0), rec.ExpiryDate, "topic %s", topic)
	}
}

func TestReconstructPostingExpiryWins(t *testing.T) {
	expiry := testNow.AddDate(5, 0, 0)
	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(8),
		Posting: &domain.ArchivePosting{ID: 80, ExpiryDate: timePtr(expiry)},
		Now:     testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, expiry, rec.ExpiryDate)
}

func TestReconstructDiscardedPostingTombstonesMessage(t *testing.T) {
	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(456),
		Posting: &domain.ArchivePosting{
			ID:     4560,
			Status: strPtr(domain.PostingStatusDiscarded),
		},
		Now: testNow,
	})
	require.NoError(t, err)
	assert.Nil(t, rec.MessageList)
	assert.Nil(t, rec.CurrentTopicGroup)
}

func TestReconstructMissingContent(t *testing.T) {
	q := baseInquiry(9)
	q.FreeText = nil
	_, err := Reconstruct(Input{Inquiry: q, Now: testNow})
	assert.ErrorIs(t, err, ErrMissingContent)
}

func TestReconstructAttachmentFallback(t *testing.T) {
	q := baseInquiry(10)
	q.FreeText = nil
	doc := fromUserDoc("HELSE")
	rec, err := Reconstruct(Input{
		Inquiry:    q,
		Attachment: &domain.Attachment{PostingID: 100, Document: &doc},
		Now:        testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.CurrentTopicGroup)
	assert.Equal(t, domain.TopicHELSE, *rec.CurrentTopicGroup)
}

func TestReconstructUnknownInquiryType(t *testing.T) {
	q := baseInquiry(11)
	q.Type = strPtr("DOKUMENT_VARSEL")
	_, err := Reconstruct(Input{Inquiry: q, Now: testNow})
	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)

	q.Type = nil
	_, err = Reconstruct(Input{Inquiry: q, Now: testNow})
	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
}

func TestReconstructUnknownTopicGroup(t *testing.T) {
	q := baseInquiry(12)
	q.FreeText = strPtr(fromUserDoc("BOGUS"))
	_, err := Reconstruct(Input{Inquiry: q, Now: testNow})
	assert.ErrorIs(t, err, domain.ErrInvalidEnumValue)
}

func TestReconstructMarkersTakeFirstEvent(t *testing.T) {
	first := event(13, domain.EventMissent, testNow.AddDate(0, -3, 0))
	first.Actor = strPtr("Z111111")
	second := event(13, domain.EventMissent, testNow.AddDate(0, -1, 0))
	second.Actor = strPtr("Z222222")

	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(13),
		Events:  []domain.ChangeEvent{first, second},
		Now:     testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Markers.Missent)
	assert.Equal(t, "Z111111", *rec.Markers.Missent.Actor)
	assert.Equal(t, "Z111111", *rec.MissentBy)
}

func TestReconstructClosedWithoutReply(t *testing.T) {
	closed := event(14, domain.EventClosedWithoutReply, testNow.AddDate(0, -1, 0))
	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(14),
		Events:  []domain.ChangeEvent{closed},
		Now:     testNow,
	})
	require.NoError(t, err)
	assert.True(t, rec.ClosedWithoutReply)
	require.NotNil(t, rec.Markers.ClosedWithoutReply)
	assert.Equal(t, closed.Date, rec.Markers.ClosedWithoutReply.Date)
}

func TestReconstructJournalingFromLastCaseLink(t *testing.T) {
	q := baseInquiry(15)
	q.JournalPostID = strPtr("jp-1")
	q.JournaledCaseID = strPtr("sak-1")

	older := event(15, domain.EventLinkedToCase, testNow.AddDate(0, -4, 0))
	older.Actor = strPtr("Z111111")
	newer := event(15, domain.EventLinkedToCase, testNow.AddDate(0, -2, 0))
	newer.Actor = strPtr("Z222222")
	topicLink := event(15, domain.EventLinkedToTopic, testNow.AddDate(0, -1, 0))

	rec, err := Reconstruct(Input{
		Inquiry: q,
		Events:  []domain.ChangeEvent{older, newer, topicLink},
		Now:     testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.JournalingInfo)
	// Case links beat topic links even when the topic link is newer.
	assert.Equal(t, "Z222222", *rec.JournalingInfo.CaseworkerID)
	assert.Equal(t, newer.Date, rec.JournalingInfo.JournaledDate)
	assert.Equal(t, "sak-1", *rec.JournalingInfo.JournaledCaseID)
}

func TestReconstructNoJournalingWithoutJournalPost(t *testing.T) {
	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(16),
		Events:  []domain.ChangeEvent{event(16, domain.EventLinkedToCase, testNow)},
		Now:     testNow,
	})
	require.NoError(t, err)
	assert.Nil(t, rec.JournalingInfo)
}

func TestReconstructNationalIDPrefersPosting(t *testing.T) {
	rec, err := Reconstruct(Input{
		Inquiry:            baseInquiry(17),
		Posting:            &domain.ArchivePosting{ID: 170, NationalID: strPtr("11111111111")},
		FallbackNationalID: strPtr("22222222222"),
		Now:                testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, "11111111111", *rec.NationalID)

	rec, err = Reconstruct(Input{
		Inquiry:            baseInquiry(17),
		FallbackNationalID: strPtr("22222222222"),
		Now:                testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, "22222222222", *rec.NationalID)
}

func TestReconstructUnknownEventTypesIgnored(t *testing.T) {
	rec, err := Reconstruct(Input{
		Inquiry: baseInquiry(18),
		Events: []domain.ChangeEvent{
			event(18, "OPENED", testNow.AddDate(0, -1, 0)),
			event(18, domain.EventRead, testNow.AddDate(0, -2, 0)),
		},
		Now: testNow,
	})
	require.NoError(t, err)
	assert.NotNil(t, rec.ReadDate)
	assert.Equal(t, domain.SchemaVersion, rec.SchemaVersion)
}

func TestReconstructDeterministic(t *testing.T) {
	in := Input{
		Inquiry: baseInquiry(19),
		Events: []domain.ChangeEvent{
			event(19, domain.EventRead, testNow.AddDate(0, -2, 0)),
		},
		Now: testNow,
	}
	a, err := Reconstruct(in)
	require.NoError(t, err)
	b, err := Reconstruct(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
