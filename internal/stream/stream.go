// Package stream provides the durable JetStream plumbing: the change-log
// stream feeding the pipeline and the snapshot stream it publishes to.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrBrokerUnavailable means the broker could not be reached or a publish
// was not acknowledged. Aborts the batch before commit; safe to retry.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// Stream and subject names.
const (
	// ChangeLogStream captures inquiry ids that need (re)processing.
	ChangeLogStream  = "INQUIRY_CHANGELOG"
	ChangeLogSubject = "inquiry.changelog"

	// SnapshotStream captures the reconstructed inquiries, one subject
	// token per inquiry id.
	SnapshotStream        = "INQUIRY_SNAPSHOTS"
	SnapshotSubjectPrefix = "inquiry.snapshots"

	// ConsumerName is the durable change-log consumer shared across
	// restarts; its ack floor is the pipeline's committed read position.
	ConsumerName = "inquiry-migrator"

	// HeaderInquiryID keys snapshot messages by inquiry id.
	HeaderInquiryID = "Inquiry-Id"
)

// Client wraps a NATS connection with JetStream enabled.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// Connect establishes the broker connection.
func Connect(url string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrBrokerUnavailable, err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: jetstream context: %v", ErrBrokerUnavailable, err)
	}
	return &Client{conn: conn, js: js}, nil
}

// EnsureStreams creates or updates both streams.
func (c *Client) EnsureStreams(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      ChangeLogStream,
		Subjects:  []string{ChangeLogSubject},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("%w: ensure stream %s: %v", ErrBrokerUnavailable, ChangeLogStream, err)
	}
	_, err = c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     SnapshotStream,
		Subjects: []string{SnapshotSubjectPrefix + ".>"},
		// Full-state replacements keyed by inquiry id: only the newest
		// message per subject matters downstream.
		Retention:         jetstream.LimitsPolicy,
		Storage:           jetstream.FileStorage,
		MaxMsgsPerSubject: 1,
	})
	if err != nil {
		return fmt.Errorf("%w: ensure stream %s: %v", ErrBrokerUnavailable, SnapshotStream, err)
	}
	return nil
}

// Connected reports whether the broker connection is live.
func (c *Client) Connected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains the connection, letting in-flight messages complete.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Drain()
	}
}
