package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/payload"
)

func testConfig() *Config {
	cfg := Default()
	cfg.Subjects = 5
	cfg.Inquiries = 40
	cfg.Seed = 1
	return cfg
}

func TestGeneratorProducesCoherentDataset(t *testing.T) {
	g := NewGenerator(testConfig())
	subjects := g.Subjects()
	require.Len(t, subjects, 5)

	byAktor := make(map[string]bool)
	for _, s := range subjects {
		assert.Len(t, s.NationalID, 11)
		byAktor[s.AktorID] = true
	}

	inquiries := g.Inquiries(subjects)
	require.Len(t, inquiries, 40)
	for _, q := range inquiries {
		assert.True(t, byAktor[q.AktorID], "inquiry %d references unknown subject", q.ID)
		assert.Equal(t, domain.StatusCompleted, q.Status)
		_, err := domain.ParseInquiryType(q.Type)
		assert.NoError(t, err)

		// Exactly one content source per inquiry.
		if q.FreeText != nil {
			assert.Nil(t, q.PostingID)
		} else {
			require.NotNil(t, q.PostingID)
			require.NotNil(t, q.Posting)
			require.NotNil(t, q.Attachment)
			assert.Equal(t, *q.PostingID, q.Posting.ID)
			assert.Equal(t, *q.PostingID, q.Attachment.PostingID)
		}

		require.NotEmpty(t, q.Events)
		assert.Equal(t, domain.EventRead, q.Events[0].Type)
	}
}

func TestGeneratedPayloadsParse(t *testing.T) {
	g := NewGenerator(testConfig())
	inquiries := g.Inquiries(g.Subjects())

	for _, q := range inquiries {
		doc := q.FreeText
		if doc == nil {
			doc = &q.Attachment.Document
		}
		msg, err := payload.Parse(*doc)
		require.NoError(t, err, "inquiry %d", q.ID)
		require.NotNil(t, msg.TopicGroup)
		_, err = domain.ParseTopicGroup(string(*msg.TopicGroup))
		assert.NoError(t, err)
	}
}

func TestGeneratorDeterministicWithFixedSeed(t *testing.T) {
	a := NewGenerator(testConfig())
	b := NewGenerator(testConfig())
	assert.Equal(t, a.Subjects(), b.Subjects())
}
