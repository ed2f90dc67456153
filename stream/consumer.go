package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adred-codev/natsline"
)

// ConsumedMsg wraps an inbound message delivered by a pull consumer, per
// spec §3. It holds a non-owning handle to the originating natsline.Conn
// only for ack dispatch (spec §9: "ack dispatch uses only the ack subject
// string").
type ConsumedMsg struct {
	Subject string
	Data    []byte
	Header  natsline.Header

	AckAddr AckAddress

	conn       *natsline.Conn
	ackSubject string
}

// ackPayloads are the four literal payloads of spec.md §4.8.
var (
	ackPositive = []byte("+ACK")
	ackNegative = []byte("-NAK")
	ackTerminate = []byte("+TERM")
	ackInProgress = []byte("+WPI")
)

// Ack publishes a positive acknowledgment.
func (m *ConsumedMsg) Ack() error { return m.conn.Publish(m.ackSubject, ackPositive) }

// Nak requests redelivery, optionally after delay (0 = immediate, uses the
// bare "-NAK" literal per spec; delay > 0 sends {"delay":<nanos>}).
func (m *ConsumedMsg) Nak(delay time.Duration) error {
	if delay <= 0 {
		return m.conn.Publish(m.ackSubject, ackNegative)
	}
	body, err := json.Marshal(struct {
		Delay int64 `json:"delay"`
	}{Delay: delay.Nanoseconds()})
	if err != nil {
		return err
	}
	return m.conn.Publish(m.ackSubject, body)
}

// Term tells the broker not to redeliver this message.
func (m *ConsumedMsg) Term() error { return m.conn.Publish(m.ackSubject, ackTerminate) }

// InProgress extends the ack-wait deadline for this message.
func (m *ConsumedMsg) InProgress() error { return m.conn.Publish(m.ackSubject, ackInProgress) }

// ErrEmpty is returned by Fetch in no-wait mode when the consumer has no
// pending messages (spec §4.8 outcome 2/3, no-wait case).
var ErrEmpty = errors.New("natsline/stream: no message available")

// PullConsumer drives the fetch-next + ack protocol of spec.md §4.8 over a
// durable pull consumer.
type PullConsumer struct {
	conn       *natsline.Conn
	domain     string
	streamName string
	name       string
}

// NewPullConsumer returns a handle for fetching from an already-provisioned
// durable pull consumer. Use Manager.EnsureConsumer to provision one
// idempotently first.
func NewPullConsumer(conn *natsline.Conn, domain, streamName, consumerName string) *PullConsumer {
	return &PullConsumer{conn: conn, domain: domain, streamName: streamName, name: consumerName}
}

func (p *PullConsumer) apiSubject() string {
	op := fmt.Sprintf("CONSUMER.MSG.NEXT.%s.%s", p.streamName, p.name)
	if p.domain != "" {
		return "$JS." + p.domain + ".API." + op
	}
	return "$JS.API." + op
}

// Fetch requests one message. In no-wait mode ErrEmpty is returned instead
// of blocking when the consumer has nothing pending; otherwise it blocks up
// to timeout and returns ErrRequestTimeout-class errors on expiry (spec
// §4.8's three outcomes).
func (p *PullConsumer) Fetch(timeout time.Duration, noWait bool) (*ConsumedMsg, error) {
	body, err := json.Marshal(struct {
		Batch  int  `json:"batch"`
		NoWait bool `json:"no_wait,omitempty"`
	}{Batch: 1, NoWait: noWait})
	if err != nil {
		return nil, err
	}

	msg, err := p.conn.Request(p.apiSubject(), body, timeout)
	if err != nil {
		if noWait && errors.Is(err, natsline.ErrRequestTimeout) {
			return nil, ErrEmpty
		}
		return nil, err
	}

	if msg.Header.Get("Status") == "404" {
		if noWait {
			return nil, ErrEmpty
		}
		return nil, natsline.ErrRequestTimeout
	}

	ackSubj := msg.Reply
	if stream := msg.Header.Get("Nats-Stream"); stream != "" {
		// Headers override token parsing when present, per spec §3.
		addr, err := ParseAckSubject(ackSubj)
		if err != nil {
			addr = AckAddress{}
		}
		addr.Stream = stream
		if seq := msg.Header.Get("Nats-Sequence"); seq != "" {
			// Nats-Sequence carries the stream sequence as a decimal string.
			if n, perr := parseUintHeader(seq); perr == nil {
				addr.StreamSeq = n
			}
		}
		return &ConsumedMsg{
			Subject: msg.Subject, Data: msg.Data, Header: msg.Header,
			AckAddr: addr, conn: p.conn, ackSubject: ackSubj,
		}, nil
	}

	addr, err := ParseAckSubject(ackSubj)
	if err != nil {
		return nil, fmt.Errorf("natsline/stream: parsing ack subject: %w", err)
	}
	return &ConsumedMsg{
		Subject: msg.Subject, Data: msg.Data, Header: msg.Header,
		AckAddr: addr, conn: p.conn, ackSubject: ackSubj,
	}, nil
}

func parseUintHeader(s string) (uint64, error) {
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
