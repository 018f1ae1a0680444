package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

// Subject is one synthetic user with both legacy identifiers.
type Subject struct {
	AktorID    string
	NationalID string
}

// Inquiry is one synthetic legacy inquiry row plus its related archive rows
// and change events.
type Inquiry struct {
	ID          int64
	CaseID      string
	CaseChainID string
	Type        string
	AktorID     string
	Status      string
	Created     time.Time
	FreeText    *string
	PostingID   *int64

	Posting    *Posting
	Attachment *Attachment
	Events     []Event
}

// Posting is one synthetic archive posting row.
type Posting struct {
	ID           int64
	ArchivedDate time.Time
	ExpiryDate   time.Time
	TopicGroup   string
	NationalID   string
	AktorID      string
	Status       string
}

// Attachment is one synthetic archive attachment row.
type Attachment struct {
	PostingID int64
	Filename  string
	Title     string
	Document  string
}

// Event is one synthetic change-event row. The id column is serial; the
// generator leaves it to the database.
type Event struct {
	InquiryID int64
	Actor     string
	Type      string
	Date      time.Time
	Unit      *string
	Value     *string
}

// Generator produces a coherent synthetic dataset: every inquiry belongs to
// a generated subject, carries a parseable payload document, and has at
// least a read event.
type Generator struct {
	rng   *rand.Rand
	faker *gofakeit.Faker
	cfg   *Config
}

func NewGenerator(cfg *Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.NewUnlocked(seed),
		cfg:   cfg,
	}
}

// Subjects generates the configured number of subjects.
func (g *Generator) Subjects() []Subject {
	out := make([]Subject, g.cfg.Subjects)
	for i := range out {
		out[i] = Subject{
			AktorID:    "10" + g.faker.DigitN(11),
			NationalID: g.faker.DigitN(11),
		}
	}
	return out
}

var topicGroups = []string{"ARBD", "HELSE", "FMLI", "PENS", "OVRG", "OKSOS", "ANSOS"}

// Inquiries generates the configured number of inquiries spread across the
// given subjects. Roughly half carry their content through an archive
// posting, the rest inline in the free-text column.
func (g *Generator) Inquiries(subjects []Subject) []Inquiry {
	out := make([]Inquiry, 0, g.cfg.Inquiries)
	for i := 0; i < g.cfg.Inquiries; i++ {
		subject := subjects[g.rng.Intn(len(subjects))]
		id := g.cfg.BaseID + int64(i)
		created := g.faker.DateRange(
			time.Now().AddDate(-10, 0, 0), time.Now().AddDate(0, 0, -1))
		inquiryType := domain.InquiryTypes[g.rng.Intn(len(domain.InquiryTypes))]
		topic := topicGroups[g.rng.Intn(len(topicGroups))]

		q := Inquiry{
			ID:          id,
			CaseID:      uuid.New().String(),
			CaseChainID: uuid.New().String(),
			Type:        string(inquiryType),
			AktorID:     subject.AktorID,
			Status:      domain.StatusCompleted,
			Created:     created,
			Events:      g.events(id, created),
		}

		doc := g.payloadDoc(inquiryType, topic)
		if g.rng.Intn(2) == 0 {
			q.FreeText = &doc
		} else {
			pid := id * 10
			q.PostingID = &pid
			q.Posting = &Posting{
				ID:           pid,
				ArchivedDate: created,
				ExpiryDate:   created.AddDate(25, 0, 0),
				TopicGroup:   topic,
				NationalID:   subject.NationalID,
				AktorID:      subject.AktorID,
				Status:       "ARKIVERT",
			}
			q.Attachment = &Attachment{
				PostingID: pid,
				Filename:  "melding.xml",
				Title:     g.faker.Sentence(4),
				Document:  doc,
			}
		}
		out = append(out, q)
	}
	return out
}

// events always includes a read event; other event types appear with fixed
// probabilities so that resync and reconstruction paths all get exercised.
func (g *Generator) events(inquiryID int64, created time.Time) []Event {
	actor := "Z" + g.faker.DigitN(6)
	unit := g.faker.DigitN(4)
	events := []Event{{
		InquiryID: inquiryID,
		Actor:     actor,
		Type:      domain.EventRead,
		Date:      created.Add(time.Duration(1+g.rng.Intn(72)) * time.Hour),
	}}
	if g.rng.Intn(5) == 0 {
		topic := topicGroups[g.rng.Intn(len(topicGroups))]
		events = append(events, Event{
			InquiryID: inquiryID,
			Actor:     actor,
			Type:      domain.EventTopicChanged,
			Date:      created.Add(time.Duration(80+g.rng.Intn(48)) * time.Hour),
			Unit:      &unit,
			Value:     &topic,
		})
	}
	if g.rng.Intn(8) == 0 {
		caseID := g.faker.DigitN(9)
		events = append(events, Event{
			InquiryID: inquiryID,
			Actor:     actor,
			Type:      domain.EventLinkedToCase,
			Date:      created.Add(time.Duration(130+g.rng.Intn(48)) * time.Hour),
			Value:     &caseID,
		})
	}
	if g.rng.Intn(12) == 0 {
		events = append(events, Event{
			InquiryID: inquiryID,
			Actor:     actor,
			Type:      domain.EventClosedWithoutReply,
			Date:      created.Add(time.Duration(180+g.rng.Intn(48)) * time.Hour),
			Unit:      &unit,
		})
	}
	return events
}

// payloadDoc renders the message payload in the legacy document format. The
// question types carry a from-user fragment, everything else a to-user one.
func (g *Generator) payloadDoc(t domain.InquiryType, topic string) string {
	text := g.faker.Paragraph(1, 3, 12, " ")
	switch t {
	case domain.TypeSporsmalSkriftlig, domain.TypeSporsmalSkriftligDirekte, domain.TypeSvarSblInngaaende:
		return fmt.Sprintf(
			`<metadataListe><metadata xsi:type="ns2:meldingFraBruker"><temagruppe>%s</temagruppe><fritekst>%s</fritekst></metadata></metadataListe>`,
			topic, text)
	default:
		return fmt.Sprintf(
			`<metadataListe><metadata xsi:type="ns2:meldingTilBruker"><temagruppe>%s</temagruppe><fritekst>%s</fritekst><kanal>TEKST</kanal><navident>Z%s</navident></metadata></metadataListe>`,
			topic, text, g.faker.DigitN(6))
	}
}
