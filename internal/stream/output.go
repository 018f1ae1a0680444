package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

// Output publishes reconstructed inquiries to the snapshot stream, keyed by
// inquiry id through the subject token and the Inquiry-Id header. Messages
// are full-state replacements; downstream applies last-write-wins.
type Output struct {
	js jetstream.JetStream
}

// NewOutput builds the snapshot publisher.
func NewOutput(c *Client) *Output {
	return &Output{js: c.js}
}

// Publish sends one reconstructed inquiry, waiting for the broker ack so
// the caller can order its own commit after it.
func (o *Output) Publish(ctx context.Context, rec *domain.Reconstructed) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot %d: %v", rec.InquiryID, err)
	}
	key := strconv.FormatInt(rec.InquiryID, 10)
	msg := &nats.Msg{
		Subject: SnapshotSubjectPrefix + "." + key,
		Header:  nats.Header{HeaderInquiryID: []string{key}},
		Data:    body,
	}
	if _, err := o.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("%w: publish snapshot %d: %v", ErrBrokerUnavailable, rec.InquiryID, err)
	}
	return nil
}
