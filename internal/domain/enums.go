// Package domain holds the entity model shared by the migration pipeline:
// legacy store rows, change-event type codes, and the denormalized output
// entity published to the snapshot stream.
package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidEnumValue is returned when a code from the legacy store or an
// embedded payload does not match any known enumeration value. The feed
// producers filter out unknown codes upstream, so hitting this is an
// invariant violation rather than a recoverable condition.
var ErrInvalidEnumValue = errors.New("invalid enum value")

// TopicGroup classifies an inquiry by subject area.
type TopicGroup string

const (
	TopicARBD          TopicGroup = "ARBD"
	TopicHELSE         TopicGroup = "HELSE"
	TopicFMLI          TopicGroup = "FMLI"
	TopicFDAG          TopicGroup = "FDAG"
	TopicHJLPM         TopicGroup = "HJLPM"
	TopicBIL           TopicGroup = "BIL"
	TopicORTHJE        TopicGroup = "ORT_HJE"
	TopicOVRG          TopicGroup = "OVRG"
	TopicPENS          TopicGroup = "PENS"
	TopicPLEIEPENGERSY TopicGroup = "PLEIEPENGERSY"
	TopicUFRT          TopicGroup = "UFRT"
	TopicUTLAND        TopicGroup = "UTLAND"
	TopicOKSOS         TopicGroup = "OKSOS"
	TopicANSOS         TopicGroup = "ANSOS"
)

var topicGroups = map[string]TopicGroup{
	"ARBD": TopicARBD, "HELSE": TopicHELSE, "FMLI": TopicFMLI,
	"FDAG": TopicFDAG, "HJLPM": TopicHJLPM, "BIL": TopicBIL,
	"ORT_HJE": TopicORTHJE, "OVRG": TopicOVRG, "PENS": TopicPENS,
	"PLEIEPENGERSY": TopicPLEIEPENGERSY, "UFRT": TopicUFRT,
	"UTLAND": TopicUTLAND, "OKSOS": TopicOKSOS, "ANSOS": TopicANSOS,
}

// ParseTopicGroup validates a raw topic group code.
func ParseTopicGroup(s string) (TopicGroup, error) {
	if tg, ok := topicGroups[s]; ok {
		return tg, nil
	}
	return "", fmt.Errorf("topic group %q: %w", s, ErrInvalidEnumValue)
}

// Channel is the delivery channel of a message to the user.
type Channel string

const (
	ChannelText    Channel = "TEKST"
	ChannelPhone   Channel = "TELEFON"
	ChannelMeeting Channel = "OPPMOTE"
)

// ParseChannel validates a raw channel code.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelText, ChannelPhone, ChannelMeeting:
		return Channel(s), nil
	}
	return "", fmt.Errorf("channel %q: %w", s, ErrInvalidEnumValue)
}

// InquiryType is the legacy type code of an inquiry. Only these types are
// migrated; everything else is filtered out by the feed producers.
type InquiryType string

const (
	TypeSporsmalSkriftlig        InquiryType = "SPORSMAL_SKRIFTLIG"
	TypeSporsmalSkriftligDirekte InquiryType = "SPORSMAL_SKRIFTLIG_DIREKTE"
	TypeSvarSkriftlig            InquiryType = "SVAR_SKRIFTLIG"
	TypeSvarOppmote              InquiryType = "SVAR_OPPMOTE"
	TypeSvarTelefon              InquiryType = "SVAR_TELEFON"
	TypeDelvisSvarSkriftlig      InquiryType = "DELVIS_SVAR_SKRIFTLIG"
	TypeReferatOppmote           InquiryType = "REFERAT_OPPMOTE"
	TypeReferatTelefon           InquiryType = "REFERAT_TELEFON"
	TypeSporsmalModiaUtgaaende   InquiryType = "SPORSMAL_MODIA_UTGAAENDE"
	TypeInfomeldingModiaUtgaaende InquiryType = "INFOMELDING_MODIA_UTGAAENDE"
	TypeSvarSblInngaaende        InquiryType = "SVAR_SBL_INNGAAENDE"
)

// InquiryTypes lists every migratable inquiry type, in declaration order.
// Used as the allow-list for resync and backfill scans.
var InquiryTypes = []InquiryType{
	TypeSporsmalSkriftlig,
	TypeSporsmalSkriftligDirekte,
	TypeSvarSkriftlig,
	TypeSvarOppmote,
	TypeSvarTelefon,
	TypeDelvisSvarSkriftlig,
	TypeReferatOppmote,
	TypeReferatTelefon,
	TypeSporsmalModiaUtgaaende,
	TypeInfomeldingModiaUtgaaende,
	TypeSvarSblInngaaende,
}

// ParseInquiryType validates a raw inquiry type code.
func ParseInquiryType(s string) (InquiryType, error) {
	for _, t := range InquiryTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("inquiry type %q: %w", s, ErrInvalidEnumValue)
}

// Change-event type codes written by the legacy source system.
const (
	EventRead               = "READ"
	EventMerged             = "MERGED"
	EventMissent            = "MISSENT"
	EventOfficeLocked       = "OFFICE_LOCKED"
	EventTopicChanged       = "TOPIC_CHANGED"
	EventLinkedToCase       = "LINKED_TO_CASE"
	EventLinkedToTopic      = "LINKED_TO_TOPIC"
	EventClosedWithoutReply = "CLOSED_WITHOUT_REPLY"
)

// ResyncEventTypes is the allow-list of change-event types that trigger
// republication of an inquiry.
var ResyncEventTypes = []string{
	EventRead,
	EventMerged,
	EventMissent,
	EventOfficeLocked,
	EventTopicChanged,
	EventLinkedToCase,
	EventLinkedToTopic,
	EventClosedWithoutReply,
}

// StatusCompleted is the terminal status of an inquiry in the legacy store.
// Merge expansion only republishes siblings that have reached it.
const StatusCompleted = "FERDIG"

// PostingStatusDiscarded marks an archive posting whose content was
// destroyed; reconstruction tombstones the message body for these.
const PostingStatusDiscarded = "DISCARDED"
