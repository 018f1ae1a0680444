package store

import (
	"context"
	"strconv"
)

// WatermarkKey is the metadata row key holding the last processed
// change-event id. The setup migration seeds it with max int64, meaning
// "nothing pending".
const WatermarkKey = "SIST_PROSESSERT_HENDELSE"

// Watermark reads the persisted change-event cursor.
func (s *Store) Watermark(ctx context.Context) (int64, error) {
	var value string
	err := s.primary.QueryRow(ctx,
		`SELECT value FROM migreringmetadata WHERE key = $1`, WatermarkKey).Scan(&value)
	if err != nil {
		return 0, queryError("select watermark", err)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, queryError("parse watermark", err)
	}
	return id, nil
}

// SetWatermark persists the change-event cursor. The resync task is the
// single writer in normal operation; administrative overrides race with it
// as last-write-wins, which is accepted.
func (s *Store) SetWatermark(ctx context.Context, id int64) error {
	_, err := s.primary.Exec(ctx,
		`UPDATE migreringmetadata SET value = $1 WHERE key = $2`,
		strconv.FormatInt(id, 10), WatermarkKey)
	if err != nil {
		return queryError("update watermark", err)
	}
	return nil
}
