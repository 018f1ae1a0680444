package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkInt64(t *testing.T) {
	ids := make([]int64, 2500)
	for i := range ids {
		ids[i] = int64(i)
	}

	chunks := chunkInt64(ids, 1000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
	assert.Equal(t, int64(0), chunks[0][0])
	assert.Equal(t, int64(2499), chunks[2][499])

	assert.Empty(t, chunkInt64(nil, 1000))
	assert.Len(t, chunkInt64([]int64{1}, 1000), 1)
}

// Empty id lists must never reach the database; a nil pool proves it.
func TestEmptyInputsSkipDatabase(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	inquiries, err := s.Inquiries(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, inquiries)

	events, err := s.EventsByInquiry(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	postings, err := s.Postings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, postings)

	attachments, err := s.Attachments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, attachments)

	subjects, err := s.SubjectMapping(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	siblings, err := s.MergeSiblings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, siblings)
}

func TestQueryErrorWrapsSentinel(t *testing.T) {
	err := queryError("select henvendelse", assert.AnError)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Contains(t, err.Error(), "select henvendelse")
}
