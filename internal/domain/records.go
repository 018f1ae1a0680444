package domain

import "time"

// Inquiry is a row from the henvendelse table in the primary store.
// Read-only to the pipeline; only the upstream source system mutates it.
type Inquiry struct {
	ID                int64
	CaseID            string
	CaseChainID       string
	Type              *string
	Theme             *string
	AktorID           *string
	Status            *string
	Created           time.Time
	Submitted         *time.Time
	LastChanged       *time.Time
	FreeText          *string
	JournaledCaseID   *string
	JournaledTheme    *string
	JournalPostID     *string
	BatchStatus       *string
	ArchivePostingID  *string
	OfficeLockUnit    *string
	TaskIDGsak        *string
	InquiryIDGsak     *string
	ExternalActor     *string
	AttachedUnit      *string
	LinkedToEmployee  *bool
	UserUnit          *string
	CorrelationID     *string
	SentToDokmot      *bool
	SubTheme          *string
}

// ChangeEvent is an append-only log row from the hendelse table. Multiple
// events of the same type may exist per inquiry; tie-breaks are applied
// during reconstruction.
type ChangeEvent struct {
	ID        int64
	InquiryID int64
	Actor     *string
	Type      *string
	Date      *time.Time
	Unit      *string
	Value     *string
}

// ArchivePosting is a row from the arkivpost table in the archive store,
// created once an inquiry is finalized.
type ArchivePosting struct {
	ID             int64
	ArchivedDate   *time.Time
	ReceivedDate   *time.Time
	ExpiryDate     *time.Time
	TopicGroup     *string
	PostingType    *string
	DocumentType   *string
	CrossRefID     *string
	Channel        *string
	AktorID        *string
	NationalID     *string
	CaseworkerID   *string
	Content        *string
	JournalingUnit *string
	Status         *string
	CategoryCode   *string
	Signed         *bool
	OrgInternal    *bool
	RestrictedView *bool
	Sensitive      *bool
}

// Attachment is a row from the vedlegg table, carrying the raw payload
// document when the inquiry's own free-text field is absent.
type Attachment struct {
	PostingID  int64
	Filename   *string
	Filetype   *string
	Variant    *string
	Title      *string
	LetterCode *string
	Structured *bool
	Document   *string
}
