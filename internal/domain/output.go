package domain

import "time"

// SchemaVersion is stamped on every published snapshot.
const SchemaVersion = "1.0"

// MessageKind discriminates the two message fragment variants found in the
// embedded payload document.
type MessageKind int

const (
	// MessageFromUser is a message written by the user.
	MessageFromUser MessageKind = iota
	// MessageToUser is a message written by a caseworker to the user.
	MessageToUser
)

// Message is the typed fragment extracted from the semi-structured payload.
// Channel and CaseworkerID are only set for MessageToUser.
type Message struct {
	Kind         MessageKind `json:"-"`
	TopicGroup   *TopicGroup `json:"temagruppe"`
	FreeText     *string     `json:"fritekst"`
	Channel      *Channel    `json:"kanal,omitempty"`
	CaseworkerID *string     `json:"navident,omitempty"`
}

// JournalingInfo carries the journaling metadata derived from case-link
// events and the inquiry row.
type JournalingInfo struct {
	JournalPostID   *string    `json:"journalpostId"`
	JournaledTheme  *string    `json:"journalfortTema"`
	JournaledDate   *time.Time `json:"journalfortDato"`
	JournaledCaseID *string    `json:"journalfortSaksId"`
	CaseworkerID    *string    `json:"journalforerNavIdent"`
	JournalingUnit  *string    `json:"journalforendeEnhet"`
}

// Marker records that a lifecycle event happened to the inquiry.
type Marker struct {
	Date  *time.Time `json:"dato"`
	Actor *string    `json:"aktor"`
}

// OfficeLockMarker is a Marker that also names the locking unit.
type OfficeLockMarker struct {
	Marker
	Unit *string `json:"enhet"`
}

// Markers groups the optional lifecycle markers of an inquiry.
type Markers struct {
	OfficeLock         *OfficeLockMarker `json:"kontorsperre"`
	Missent            *Marker           `json:"feilsendt"`
	ClosedWithoutReply *Marker           `json:"ferdigstiltUtenSvar"`
}

// MessageList wraps the message fragments of the reconstructed inquiry.
// Nil when the archive posting was discarded.
type MessageList struct {
	Messages []Message `json:"metadata"`
}

// Reconstructed is the denormalized output entity. It is computed, never
// stored, and is a deterministic function of its inputs apart from the
// "now"-relative default expiry date.
type Reconstructed struct {
	InquiryID          int64           `json:"henvendelseId"`
	CaseID             string          `json:"behandlingsId"`
	CaseChainID        string          `json:"behandlingskjedeId"`
	ApplicationID      *string         `json:"applikasjonsId"`
	NationalID         *string         `json:"fnr"`
	AktorID            *string         `json:"aktorId"`
	Theme              *string         `json:"tema"`
	SubTheme           *string         `json:"behandlingstema"`
	ClosedWithoutReply bool            `json:"ferdigstiltUtenSvar"`
	InquiryType        InquiryType     `json:"henvendelseType"`
	ExternalActor      *string         `json:"eksternAktor"`
	AttachedUnit       *string         `json:"tilknyttetEnhet"`
	CreatedDate        *time.Time      `json:"opprettetDato"`
	ClosedDate         *time.Time      `json:"avsluttetDato"`
	ExpiryDate         time.Time       `json:"utgaarDato"`
	ReadDate           *time.Time      `json:"lestDato"`
	OfficeLockUnit     *string         `json:"kontorsperreEnhet"`
	UserUnit           *string         `json:"brukersEnhet"`
	MissentBy          *string         `json:"markertSomFeilsendtAv"`
	TaskIDGsak         *string         `json:"oppgaveIdGsak"`
	InquiryIDGsak      *string         `json:"henvendelseIdGsak"`
	LinkedToEmployee   *bool           `json:"erTilknyttetAnsatt"`
	CurrentTopicGroup  *TopicGroup     `json:"gjeldendeTemagruppe"`
	JournalingInfo     *JournalingInfo `json:"journalfortInformasjon"`
	Markers            Markers         `json:"markeringer"`
	CorrelationID      *string         `json:"korrelasjonsId"`
	MessageList        *MessageList    `json:"metadataListe"`
	SchemaVersion      string          `json:"schemaVersion"`
}
