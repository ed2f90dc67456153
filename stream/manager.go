package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adred-codev/natsline"
)

const defaultAPITimeout = 5 * time.Second

// Manager is the Stream Admin Client of spec.md §4.7: request/reply over
// the $JS.API.* administrative subjects. It holds a non-owning handle to a
// Conn (spec §9: "the Stream Admin Client holds a non-owning handle to the
// Session").
type Manager struct {
	conn    *natsline.Conn
	domain  string
	timeout time.Duration
}

// NewManager builds a Manager over conn. domain is the optional JetStream
// domain segment of spec §4.7 ("$JS.<domain>.API.<op>"); pass "" for the
// default "$JS.API.<op>" form.
func NewManager(conn *natsline.Conn, domain string) *Manager {
	return &Manager{conn: conn, domain: domain, timeout: defaultAPITimeout}
}

// WithTimeout returns a copy of m using timeout for subsequent API calls.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	clone := *m
	clone.timeout = timeout
	return &clone
}

func (m *Manager) apiSubject(op string) string {
	if m.domain != "" {
		return "$JS." + m.domain + ".API." + op
	}
	return "$JS.API." + op
}

// request performs one JSON request/reply against op, decoding the
// response into out (nil to discard it), and lifting any {"error":...}
// field into an *APIError, per spec §4.7.
func (m *Manager) request(op string, body any, out any) error {
	var payload []byte
	var err error
	if body == nil {
		payload = []byte("{}")
	} else {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("natsline/stream: encoding request: %w", err)
		}
	}

	msg, err := m.conn.Request(m.apiSubject(op), payload, m.timeout)
	if err != nil {
		return err
	}
	if msg.Header.Get("Status") == "503" {
		return ErrNotAvailable
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(msg.Data, &apiErr); err == nil && apiErr.Error != nil {
		if apiErr.Error.Code == 503 {
			return ErrNotAvailable
		}
		return &APIError{Code: apiErr.Error.Code, Description: apiErr.Error.Description}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("natsline/stream: decoding response: %w", err)
	}
	return nil
}

// CreateStream issues STREAM.CREATE.<name> with cfg as the body.
func (m *Manager) CreateStream(cfg Config) (*StreamInfo, error) {
	var info StreamInfo
	if err := m.request("STREAM.CREATE."+cfg.Name, cfg, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UpdateStream issues STREAM.UPDATE.<name> with cfg as the body.
func (m *Manager) UpdateStream(cfg Config) (*StreamInfo, error) {
	var info StreamInfo
	if err := m.request("STREAM.UPDATE."+cfg.Name, cfg, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// StreamInfo issues STREAM.INFO.<name>.
func (m *Manager) StreamInfo(name string) (*StreamInfo, error) {
	var info StreamInfo
	if err := m.request("STREAM.INFO."+name, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteStream issues STREAM.DELETE.<name>.
func (m *Manager) DeleteStream(name string) error {
	return m.request("STREAM.DELETE."+name, nil, nil)
}

// PurgeStream issues STREAM.PURGE.<name>.
func (m *Manager) PurgeStream(name string) error {
	return m.request("STREAM.PURGE."+name, nil, nil)
}

// StoredMsg is the decoded body of STREAM.MSG.GET.
type StoredMsg struct {
	Subject string `json:"subject"`
	Seq     uint64 `json:"seq"`
	Data    []byte `json:"data"`
	Time    time.Time `json:"time"`
}

type getMsgResponse struct {
	Message StoredMsg `json:"message"`
}

// GetMsg issues STREAM.MSG.GET.<name> with body {seq:N}.
func (m *Manager) GetMsg(stream string, seq uint64) (*StoredMsg, error) {
	var resp getMsgResponse
	if err := m.request("STREAM.MSG.GET."+stream, map[string]uint64{"seq": seq}, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// DeleteMsg issues STREAM.MSG.DELETE.<name> with body {seq:N}.
func (m *Manager) DeleteMsg(stream string, seq uint64) error {
	return m.request("STREAM.MSG.DELETE."+stream, map[string]uint64{"seq": seq}, nil)
}

type listStreamsResponse struct {
	Streams []StreamInfo `json:"streams"`
	Total   int          `json:"total"`
	Offset  int          `json:"offset"`
}

// ListStreams issues STREAM.LIST, paged via offset. Spec §9 flags a known
// source bug where a CLI "list" command returns success without calling
// the API at all; this implementation always calls STREAM.LIST.
func (m *Manager) ListStreams(offset int) ([]StreamInfo, int, error) {
	var resp listStreamsResponse
	if err := m.request("STREAM.LIST", map[string]int{"offset": offset}, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Streams, resp.Total, nil
}

// CreateConsumer issues CONSUMER.DURABLE.CREATE.<stream>.<name> when
// cfg.Durable is set (the only shape spec §4.7 names); an empty Durable
// name is rejected here since there is no ephemeral-create endpoint in
// scope.
func (m *Manager) CreateConsumer(streamName string, cfg ConsumerConfig) (*ConsumerInfo, error) {
	if cfg.Durable == "" {
		return nil, fmt.Errorf("natsline/stream: CreateConsumer requires a durable name")
	}
	req := struct {
		Stream string             `json:"stream_name"`
		Config wireConsumerConfig `json:"config"`
	}{Stream: streamName, Config: cfg.wireConfig()}

	var info ConsumerInfo
	op := fmt.Sprintf("CONSUMER.DURABLE.CREATE.%s.%s", streamName, cfg.Durable)
	if err := m.request(op, req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ConsumerInfo issues CONSUMER.INFO.<stream>.<name>.
func (m *Manager) ConsumerInfo(streamName, consumerName string) (*ConsumerInfo, error) {
	var info ConsumerInfo
	op := fmt.Sprintf("CONSUMER.INFO.%s.%s", streamName, consumerName)
	if err := m.request(op, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteConsumer issues CONSUMER.DELETE.<stream>.<name>.
func (m *Manager) DeleteConsumer(streamName, consumerName string) error {
	return m.request(fmt.Sprintf("CONSUMER.DELETE.%s.%s", streamName, consumerName), nil, nil)
}

type listConsumersResponse struct {
	Consumers []ConsumerInfo `json:"consumers"`
	Total     int            `json:"total"`
	Offset    int            `json:"offset"`
}

// ListConsumers issues CONSUMER.LIST.<stream> with body {offset:N}.
func (m *Manager) ListConsumers(streamName string, offset int) ([]ConsumerInfo, int, error) {
	var resp listConsumersResponse
	op := "CONSUMER.LIST." + streamName
	if err := m.request(op, map[string]int{"offset": offset}, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Consumers, resp.Total, nil
}
