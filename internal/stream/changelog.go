package stream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Message is one change-log entry handed to the consumer. Ack commits the
// read position past it; Nak requests prompt redelivery.
type Message interface {
	InquiryID() int64
	Ack() error
	Nak() error
}

// ChangeLog is the durable change-log stream: inquiry ids in, inquiry ids
// out, with explicit acks as the only commit mechanism.
type ChangeLog struct {
	js       jetstream.JetStream
	consumer jetstream.Consumer
}

// NewChangeLog binds the durable pull consumer, creating it if absent.
func NewChangeLog(ctx context.Context, c *Client) (*ChangeLog, error) {
	s, err := c.js.Stream(ctx, ChangeLogStream)
	if err != nil {
		return nil, fmt.Errorf("%w: stream %s: %v", ErrBrokerUnavailable, ChangeLogStream, err)
	}
	consumer, err := s.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          ConsumerName,
		Durable:       ConsumerName,
		FilterSubject: ChangeLogSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       5 * time.Minute,
		MaxAckPending: -1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: consumer %s: %v", ErrBrokerUnavailable, ConsumerName, err)
	}
	return &ChangeLog{js: c.js, consumer: consumer}, nil
}

// Publish appends one inquiry id to the change-log.
func (l *ChangeLog) Publish(ctx context.Context, inquiryID int64) error {
	_, err := l.js.Publish(ctx, ChangeLogSubject, []byte(strconv.FormatInt(inquiryID, 10)))
	if err != nil {
		return fmt.Errorf("%w: publish change: %v", ErrBrokerUnavailable, err)
	}
	return nil
}

// Fetch polls up to max messages, waiting at most wait when the stream is
// idle. Entries with a malformed id are acked and dropped; they can never
// succeed and would otherwise wedge the consumer.
func (l *ChangeLog) Fetch(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	batch, err := l.consumer.Fetch(max, jetstream.FetchMaxWait(wait))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", ErrBrokerUnavailable, err)
	}
	var out []Message
	for msg := range batch.Messages() {
		id, err := strconv.ParseInt(string(msg.Data()), 10, 64)
		if err != nil {
			_ = msg.Ack()
			continue
		}
		out = append(out, &jsMessage{id: id, msg: msg})
	}
	if err := batch.Error(); err != nil {
		return nil, fmt.Errorf("%w: fetch batch: %v", ErrBrokerUnavailable, err)
	}
	return out, nil
}

// Info returns the raw stream state for the administrative interface.
func (l *ChangeLog) Info(ctx context.Context) (*jetstream.StreamInfo, error) {
	s, err := l.js.Stream(ctx, ChangeLogStream)
	if err != nil {
		return nil, fmt.Errorf("%w: stream %s: %v", ErrBrokerUnavailable, ChangeLogStream, err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: stream info: %v", ErrBrokerUnavailable, err)
	}
	return info, nil
}

// Record reads one raw change-log record by stream sequence, for debugging.
func (l *ChangeLog) Record(ctx context.Context, seq uint64) (subject string, data []byte, err error) {
	s, err := l.js.Stream(ctx, ChangeLogStream)
	if err != nil {
		return "", nil, fmt.Errorf("%w: stream %s: %v", ErrBrokerUnavailable, ChangeLogStream, err)
	}
	raw, err := s.GetMsg(ctx, seq)
	if err != nil {
		return "", nil, fmt.Errorf("%w: get msg %d: %v", ErrBrokerUnavailable, seq, err)
	}
	return raw.Subject, raw.Data, nil
}

type jsMessage struct {
	id  int64
	msg jetstream.Msg
}

func (m *jsMessage) InquiryID() int64 { return m.id }
func (m *jsMessage) Ack() error       { return m.msg.Ack() }
func (m *jsMessage) Nak() error       { return m.msg.Nak() }
