package stream

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/adred-codev/natsline"
	"github.com/adred-codev/natsline/internal/fakebroker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T) (*natsline.Conn, *fakebroker.Broker) {
	t.Helper()
	b, err := fakebroker.Start()
	require.NoError(t, err)
	t.Cleanup(b.Close)

	host, port := b.Addr()
	errCh := make(chan error, 1)
	go func() { errCh <- b.Accept(fakebroker.DefaultInfo()) }()

	conn, err := natsline.Connect(host, port, natsline.WithTimeout(2*time.Second))
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	t.Cleanup(func() { conn.Close() })
	return conn, b
}

// readRequestLine returns the next PUB line off b, skipping the inbox SUB
// line the client sends ahead of its first request.
func readRequestLine(b *fakebroker.Broker, timeout time.Duration) (string, error) {
	for {
		line, err := b.ReadLine(timeout)
		if err != nil || !strings.HasPrefix(line, "SUB ") {
			return line, err
		}
	}
}

// respondOnce reads one request line + payload off b and writes a JSON
// reply to the reply-to subject it announced, mimicking the $JS.API.*
// admin responder.
func respondOnce(t *testing.T, b *fakebroker.Broker, body any) {
	t.Helper()
	line, err := readRequestLine(b, time.Second)
	require.NoError(t, err)
	fields := fields(line)
	require.GreaterOrEqual(t, len(fields), 3)
	reply := fields[2]
	size := fields[len(fields)-1]
	n := atoi(size)
	_, err = b.ReadExact(n+2, time.Second)
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, b.WriteRaw([]byte(
		"MSG "+reply+" 1 "+itoa(len(data))+"\r\n"+string(data)+"\r\n",
	)))
}

func fields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestManagerCreateStream(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		respondOnce(t, b, map[string]any{
			"config": map[string]any{"name": "orders", "subjects": []string{"orders.>"}, "retention": "limits", "storage": "file"},
			"state":  map[string]any{"messages": 0, "bytes": 0, "first_seq": 0, "last_seq": 0},
		})
	}()

	info, err := mgr.CreateStream(Config{Name: "orders", Subjects: []string{"orders.>"}, Retention: RetentionLimits, Storage: StorageFile})
	require.NoError(t, err)
	<-done
	assert.Equal(t, "orders", info.Config.Name)
}

func TestManagerAPIErrorLifted(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go respondOnce(t, b, map[string]any{
		"error": map[string]any{"code": 404, "description": "stream not found"},
	})

	_, err := mgr.StreamInfo("missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NotFound())
}

func TestEnsureStreamCreatesWhenNotFound(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go func() {
		respondOnce(t, b, map[string]any{"error": map[string]any{"code": 404, "description": "stream not found"}})
		respondOnce(t, b, map[string]any{
			"config": map[string]any{"name": "orders", "subjects": []string{"orders.>"}, "retention": "limits", "storage": "file"},
			"state":  map[string]any{},
		})
	}()

	info, err := mgr.EnsureStream("orders", "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", info.Config.Name)
}

func TestEnsureStreamTreatsAlreadyExistsAsSuccess(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go func() {
		respondOnce(t, b, map[string]any{"error": map[string]any{"code": 404, "description": "stream not found"}})
		respondOnce(t, b, map[string]any{"error": map[string]any{"code": 400, "description": "stream name already in use"}})
		respondOnce(t, b, map[string]any{
			"config": map[string]any{"name": "orders", "subjects": []string{"orders.>"}, "retention": "limits", "storage": "file"},
			"state":  map[string]any{},
		})
	}()

	info, err := mgr.EnsureStream("orders", "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", info.Config.Name)
}

func TestManagerRequestLiftsHeaderStatus503(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go func() {
		line, _ := readRequestLine(b, time.Second)
		fs := fields(line)
		reply := fs[2]
		n := atoi(fs[len(fs)-1])
		b.ReadExact(n+2, time.Second)

		header := "NATS/1.0\r\nStatus: 503\r\n\r\n"
		frame := "HMSG " + reply + " 1 " + itoa(len(header)) + " " + itoa(len(header)) + "\r\n" + header + "\r\n"
		b.WriteRaw([]byte(frame))
	}()

	_, err := mgr.StreamInfo("orders")
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestManagerRequestLiftsJSONBodyCode503(t *testing.T) {
	conn, b := dial(t)
	mgr := NewManager(conn, "")

	go respondOnce(t, b, map[string]any{
		"error": map[string]any{"code": 503, "description": "stream layer not enabled"},
	})

	_, err := mgr.StreamInfo("orders")
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestPullConsumerFetchNoWaitEmpty(t *testing.T) {
	conn, b := dial(t)
	pc := NewPullConsumer(conn, "", "orders", "durable-1")

	go func() {
		line, _ := readRequestLine(b, time.Second)
		fs := fields(line)
		reply := fs[2]
		n := atoi(fs[len(fs)-1])
		b.ReadExact(n+2, time.Second)

		header := "NATS/1.0\r\nStatus: 404\r\n\r\n"
		frame := "HMSG " + reply + " 1 " + itoa(len(header)) + " " + itoa(len(header)) + "\r\n" + header + "\r\n"
		b.WriteRaw([]byte(frame))
	}()

	_, err := pc.Fetch(time.Second, true)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPullConsumerFetchDeliversMessage(t *testing.T) {
	conn, b := dial(t)
	pc := NewPullConsumer(conn, "", "orders", "durable-1")

	go func() {
		line, _ := readRequestLine(b, time.Second)
		fs := fields(line)
		reply := fs[2]
		n := atoi(fs[len(fs)-1])
		b.ReadExact(n+2, time.Second)

		ackSubj := "$JS.ACK.orders.durable-1.1.1.1.1700000000000000000.0"
		frame := "MSG " + reply + " 1 " + ackSubj + " 3\r\nhey\r\n"
		b.WriteRaw([]byte(frame))
	}()

	msg, err := pc.Fetch(time.Second, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("hey"), msg.Data)
	assert.Equal(t, "orders", msg.AckAddr.Stream)
	assert.Equal(t, "durable-1", msg.AckAddr.Consumer)
}

func TestPullConsumerFetchTimesOutWhenBlocking(t *testing.T) {
	conn, b := dial(t)
	pc := NewPullConsumer(conn, "", "orders", "durable-1")

	go func() {
		b.ReadLine(300 * time.Millisecond)
		b.ReadExact(64, 300*time.Millisecond)
	}()

	_, err := pc.Fetch(100*time.Millisecond, false)
	require.Error(t, err)
}
