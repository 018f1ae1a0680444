// Package rebuild materializes the denormalized output entity from an
// inquiry row, its ordered change events, the optional archive posting and
// attachment, and an optional fallback subject mapping. Reconstruct is a
// pure function: identical inputs produce identical output, apart from the
// default expiry date which is measured from the supplied clock.
package rebuild

import (
	"errors"
	"fmt"
	"time"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/payload"
)

// ErrMissingContent means neither the inquiry's free-text field nor an
// attachment document was available for a non-discarded inquiry.
var ErrMissingContent = errors.New("missing message content")

// Input collects everything one reconstruction needs.
type Input struct {
	Inquiry    domain.Inquiry
	Events     []domain.ChangeEvent
	Posting    *domain.ArchivePosting
	Attachment *domain.Attachment
	// FallbackNationalID resolves the subject when no posting exists.
	FallbackNationalID *string
	// Now anchors the default expiry date. The zero value means time.Now().
	Now time.Time
}

// Reconstruct builds the output entity. Invariant violations (unknown type
// codes, missing content) fail the record rather than being skipped.
func Reconstruct(in Input) (*domain.Reconstructed, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	q := in.Inquiry

	if q.Type == nil {
		return nil, fmt.Errorf("inquiry %d has no type: %w", q.ID, domain.ErrInvalidEnumValue)
	}
	inquiryType, err := domain.ParseInquiryType(*q.Type)
	if err != nil {
		return nil, fmt.Errorf("inquiry %d: %w", q.ID, err)
	}

	byType := groupByType(in.Events)

	msg, err := buildMessage(q, in.Posting, in.Attachment)
	if err != nil {
		return nil, fmt.Errorf("inquiry %d: %w", q.ID, err)
	}

	// Journaling metadata comes from the most recent case link, falling
	// back to the most recent topic link.
	caseLink := lastEvent(byType, domain.EventLinkedToCase)
	if caseLink == nil {
		caseLink = lastEvent(byType, domain.EventLinkedToTopic)
	}

	topic, err := resolveTopicGroup(q.ID, byType, msg)
	if err != nil {
		return nil, err
	}

	officeLock := firstEvent(byType, domain.EventOfficeLocked)
	missent := firstEvent(byType, domain.EventMissent)
	closedNoReply := firstEvent(byType, domain.EventClosedWithoutReply)
	read := firstEvent(byType, domain.EventRead)

	out := &domain.Reconstructed{
		InquiryID:          q.ID,
		CaseID:             q.CaseID,
		CaseChainID:        q.CaseChainID,
		ApplicationID:      nil, // never set by the legacy source
		NationalID:         resolveNationalID(in.Posting, in.FallbackNationalID),
		AktorID:            q.AktorID,
		Theme:              q.Theme,
		SubTheme:           q.SubTheme,
		ClosedWithoutReply: closedNoReply != nil,
		InquiryType:        inquiryType,
		ExternalActor:      q.ExternalActor,
		AttachedUnit:       q.AttachedUnit,
		CreatedDate:        &q.Created,
		ClosedDate:         q.Submitted,
		ExpiryDate:         expiryDate(in.Posting, topic, now),
		ReadDate:           eventDate(read),
		OfficeLockUnit:     q.OfficeLockUnit,
		UserUnit:           q.UserUnit,
		MissentBy:          eventActor(missent),
		TaskIDGsak:         q.TaskIDGsak,
		InquiryIDGsak:      q.InquiryIDGsak,
		LinkedToEmployee:   q.LinkedToEmployee,
		CurrentTopicGroup:  topic,
		CorrelationID:      q.CorrelationID,
		SchemaVersion:      domain.SchemaVersion,
	}

	if q.JournalPostID != nil {
		out.JournalingInfo = &domain.JournalingInfo{
			JournalPostID:   q.JournalPostID,
			JournaledTheme:  q.JournaledTheme,
			JournaledDate:   eventDate(caseLink),
			JournaledCaseID: q.JournaledCaseID,
			CaseworkerID:    eventActor(caseLink),
			JournalingUnit:  eventUnit(caseLink),
		}
	}

	if officeLock != nil {
		out.Markers.OfficeLock = &domain.OfficeLockMarker{
			Marker: domain.Marker{Date: officeLock.Date, Actor: officeLock.Actor},
			Unit:   officeLock.Unit,
		}
	}
	if missent != nil {
		out.Markers.Missent = &domain.Marker{Date: missent.Date, Actor: missent.Actor}
	}
	if closedNoReply != nil {
		out.Markers.ClosedWithoutReply = &domain.Marker{Date: closedNoReply.Date, Actor: closedNoReply.Actor}
	}

	if msg != nil {
		out.MessageList = &domain.MessageList{Messages: []domain.Message{*msg}}
	}

	return out, nil
}

// buildMessage selects the payload source. A discarded posting tombstones
// the message entirely; otherwise the inquiry's own free-text field wins
// over the attachment document.
func buildMessage(q domain.Inquiry, posting *domain.ArchivePosting, att *domain.Attachment) (*domain.Message, error) {
	if posting != nil && posting.Status != nil && *posting.Status == domain.PostingStatusDiscarded {
		return nil, nil
	}
	var doc string
	switch {
	case q.FreeText != nil:
		doc = *q.FreeText
	case att != nil && att.Document != nil:
		doc = *att.Document
	default:
		return nil, ErrMissingContent
	}
	msg, err := payload.Parse(doc)
	if err != nil {
		return nil, err
	}
	if msg.TopicGroup != nil {
		if _, err := domain.ParseTopicGroup(string(*msg.TopicGroup)); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// resolveTopicGroup prefers the last topic-changed event over the message's
// own topic group.
func resolveTopicGroup(inquiryID int64, byType map[string][]domain.ChangeEvent, msg *domain.Message) (*domain.TopicGroup, error) {
	if ev := lastEvent(byType, domain.EventTopicChanged); ev != nil && ev.Value != nil {
		tg, err := domain.ParseTopicGroup(*ev.Value)
		if err != nil {
			return nil, fmt.Errorf("inquiry %d: %w", inquiryID, err)
		}
		return &tg, nil
	}
	if msg != nil {
		return msg.TopicGroup, nil
	}
	return nil, nil
}

// expiryDate uses the posting's expiry when present; otherwise two welfare
// topic groups get a two-year retention and everything else twenty-five
// years, measured from reconstruction time.
func expiryDate(posting *domain.ArchivePosting, topic *domain.TopicGroup, now time.Time) time.Time {
	if posting != nil && posting.ExpiryDate != nil {
		return *posting.ExpiryDate
	}
	if topic != nil && (*topic == domain.TopicANSOS || *topic == domain.TopicOKSOS) {
		return now.AddDate(2, 0, 0)
	}
	return now.AddDate(25, 0, 0)
}

func resolveNationalID(posting *domain.ArchivePosting, fallback *string) *string {
	if posting != nil && posting.NationalID != nil {
		return posting.NationalID
	}
	return fallback
}

func groupByType(events []domain.ChangeEvent) map[string][]domain.ChangeEvent {
	out := make(map[string][]domain.ChangeEvent)
	for _, e := range events {
		if e.Type == nil {
			continue
		}
		out[*e.Type] = append(out[*e.Type], e)
	}
	return out
}

func firstEvent(byType map[string][]domain.ChangeEvent, t string) *domain.ChangeEvent {
	if events := byType[t]; len(events) > 0 {
		return &events[0]
	}
	return nil
}

func lastEvent(byType map[string][]domain.ChangeEvent, t string) *domain.ChangeEvent {
	if events := byType[t]; len(events) > 0 {
		return &events[len(events)-1]
	}
	return nil
}

func eventDate(e *domain.ChangeEvent) *time.Time {
	if e == nil {
		return nil
	}
	return e.Date
}

func eventActor(e *domain.ChangeEvent) *string {
	if e == nil {
		return nil
	}
	return e.Actor
}

func eventUnit(e *domain.ChangeEvent) *string {
	if e == nil {
		return nil
	}
	return e.Unit
}
