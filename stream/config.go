// Package stream implements the stream/consumer control plane of spec.md
// §3, §4.7–4.9: request/reply over the $JS.API.* administrative subjects,
// idempotent stream/consumer provisioning, and the pull-fetch + ack
// protocol. It is grounded in the JetStream API surface reconstructed from
// other_examples/wallyqs-nats.go__js.go.go (the subject layout, the
// create/info/delete/list verb set) generalized to spec.md's field set.
package stream

import (
	"encoding/json"
	"time"
)


// Retention is a stream's retention policy.
type Retention string

const (
	RetentionLimits   Retention = "limits"
	RetentionInterest Retention = "interest"
	RetentionWorkQueue Retention = "workqueue"
)

// Storage is a stream's backing storage.
type Storage string

const (
	StorageFile   Storage = "file"
	StorageMemory Storage = "memory"
)

// Discard is what a stream does when a limit is hit.
type Discard string

const (
	DiscardOld Discard = "old"
	DiscardNew Discard = "new"
)

// Config is the stream configuration of spec.md §3, field names mapped to
// the broker's snake_case wire convention.
type Config struct {
	Name        string   `json:"name"`
	Subjects    []string `json:"subjects"`
	Description string   `json:"description,omitempty"`
	Retention   Retention `json:"retention"`
	Storage     Storage   `json:"storage"`
	Replicas    int       `json:"num_replicas,omitempty"`
	Discard     Discard   `json:"discard,omitempty"`

	MaxMsgs  int64 `json:"max_msgs,omitempty"`
	MaxBytes int64 `json:"max_bytes,omitempty"`
	MaxAge   int64 `json:"max_age,omitempty"` // seconds, per spec §3

	// DuplicateWindow is spec's "duplicate-suppression window", in
	// nanoseconds on the wire per spec §4.7's field-mapping rule.
	DuplicateWindowNanos int64 `json:"duplicate_window,omitempty"`

	AllowDirect bool `json:"allow_direct,omitempty"`
}

// DeliverPolicy selects where a consumer starts reading from a stream.
type DeliverPolicy string

const (
	DeliverAll            DeliverPolicy = "all"
	DeliverLast           DeliverPolicy = "last"
	DeliverNew            DeliverPolicy = "new"
	DeliverLastPerSubject DeliverPolicy = "last_per_subject"
	DeliverByStartSeq     DeliverPolicy = "by_start_sequence"
	DeliverByStartTime    DeliverPolicy = "by_start_time"
)

// AckPolicy controls whether and how a consumer's messages must be acked.
type AckPolicy string

const (
	AckNone     AckPolicy = "none"
	AckAll      AckPolicy = "all"
	AckExplicit AckPolicy = "explicit"
)

// ReplayPolicy controls delivery pacing for push consumers.
type ReplayPolicy string

const (
	ReplayInstant  ReplayPolicy = "instant"
	ReplayOriginal ReplayPolicy = "original"
)

// ConsumerConfig is the consumer configuration of spec.md §3. AckWait is a
// time.Duration in the Go API and is sent as its nanosecond count on the
// wire by (ConsumerConfig).wireConfig. An empty Durable name omits the
// durable_name field from the wire config; Manager.CreateConsumer, however,
// rejects an empty Durable, so only durable consumers can be created.
type ConsumerConfig struct {
	Durable       string
	Description   string
	DeliverPolicy DeliverPolicy
	AckPolicy     AckPolicy
	Replay        ReplayPolicy
	FilterSubject string
	AckWait       time.Duration // sent as nanoseconds on the wire
	MaxDeliver    int
	StartSeq      uint64
	StartTime     time.Time
	DeliverSubject string // non-empty => push consumer; empty => pull
}

// wireConsumerConfig is the JSON shape sent to CONSUMER.DURABLE.CREATE,
// with duration fields in nanoseconds.
type wireConsumerConfig struct {
	Durable        string     `json:"durable_name,omitempty"`
	Description    string     `json:"description,omitempty"`
	DeliverPolicy  DeliverPolicy `json:"deliver_policy"`
	AckPolicy      AckPolicy     `json:"ack_policy"`
	ReplayPolicy   ReplayPolicy  `json:"replay_policy,omitempty"`
	FilterSubject  string     `json:"filter_subject,omitempty"`
	AckWaitNanos   int64      `json:"ack_wait,omitempty"`
	MaxDeliver     int        `json:"max_deliver,omitempty"`
	OptStartSeq    uint64     `json:"opt_start_seq,omitempty"`
	OptStartTime   *time.Time `json:"opt_start_time,omitempty"`
	DeliverSubject string     `json:"deliver_subject,omitempty"`
}

func wireToConfig(w wireConsumerConfig) ConsumerConfig {
	c := ConsumerConfig{
		Durable:        w.Durable,
		Description:    w.Description,
		DeliverPolicy:  w.DeliverPolicy,
		AckPolicy:      w.AckPolicy,
		Replay:         w.ReplayPolicy,
		FilterSubject:  w.FilterSubject,
		MaxDeliver:     w.MaxDeliver,
		StartSeq:       w.OptStartSeq,
		DeliverSubject: w.DeliverSubject,
	}
	if w.AckWaitNanos > 0 {
		c.AckWait = time.Duration(w.AckWaitNanos)
	}
	if w.OptStartTime != nil {
		c.StartTime = *w.OptStartTime
	}
	return c
}

func (c ConsumerConfig) wireConfig() wireConsumerConfig {
	w := wireConsumerConfig{
		Durable:        c.Durable,
		Description:    c.Description,
		DeliverPolicy:  c.DeliverPolicy,
		AckPolicy:      c.AckPolicy,
		ReplayPolicy:   c.Replay,
		FilterSubject:  c.FilterSubject,
		MaxDeliver:     c.MaxDeliver,
		OptStartSeq:    c.StartSeq,
		DeliverSubject: c.DeliverSubject,
	}
	if c.AckWait > 0 {
		w.AckWaitNanos = c.AckWait.Nanoseconds()
	}
	if !c.StartTime.IsZero() {
		t := c.StartTime
		w.OptStartTime = &t
	}
	return w
}

// StreamInfo is the decoded response of STREAM.INFO / STREAM.CREATE.
type StreamInfo struct {
	Config Config `json:"config"`
	State  struct {
		Messages  uint64 `json:"messages"`
		Bytes     uint64 `json:"bytes"`
		FirstSeq  uint64 `json:"first_seq"`
		LastSeq   uint64 `json:"last_seq"`
	} `json:"state"`
}

// ConsumerInfo is the decoded response of CONSUMER.INFO / *.CREATE.
type ConsumerInfo struct {
	Stream        string         `json:"-"`
	Name          string         `json:"-"`
	Config        ConsumerConfig `json:"-"`
	NumPending    uint64         `json:"-"`
	NumAckPending int            `json:"-"`
}

type wireConsumerInfo struct {
	Stream        string             `json:"stream_name"`
	Name          string             `json:"name"`
	Config        wireConsumerConfig `json:"config"`
	NumPending    uint64             `json:"num_pending"`
	NumAckPending int                `json:"num_ack_pending"`
}

// UnmarshalJSON converts the wire's nanosecond AckWait and snake_case field
// names into the public, Go-idiomatic ConsumerInfo shape.
func (ci *ConsumerInfo) UnmarshalJSON(data []byte) error {
	var w wireConsumerInfo
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ci.Stream = w.Stream
	ci.Name = w.Name
	ci.Config = wireToConfig(w.Config)
	ci.NumPending = w.NumPending
	ci.NumAckPending = w.NumAckPending
	return nil
}

// MarshalJSON round-trips back to the wire shape (used mainly by tests).
func (ci ConsumerInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConsumerInfo{
		Stream:        ci.Stream,
		Name:          ci.Name,
		Config:        ci.Config.wireConfig(),
		NumPending:    ci.NumPending,
		NumAckPending: ci.NumAckPending,
	})
}
