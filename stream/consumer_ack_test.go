package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumedMsgAckPublishesPositiveLiteral(t *testing.T) {
	conn, b := dial(t)

	ackSubj := "$JS.ACK.orders.durable-1.1.1.1.1700000000000000000.0"
	pc := NewPullConsumer(conn, "", "orders", "durable-1")
	go func() {
		line, _ := readRequestLine(b, time.Second)
		fs := fields(line)
		reply := fs[2]
		n := atoi(fs[len(fs)-1])
		b.ReadExact(n+2, time.Second)
		b.WriteRaw([]byte("MSG " + reply + " 1 " + ackSubj + " 1\r\nx\r\n"))
	}()
	msg, err := pc.Fetch(time.Second, false)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		line, err := b.ReadLine(time.Second)
		assert.NoError(t, err)
		assert.Contains(t, line, ackSubj)
		b.ReadExact(6, time.Second) // "+ACK" + CRLF
	}()
	require.NoError(t, msg.Ack())
	<-done
}

func TestConsumedMsgNakWithDelayEncodesJSON(t *testing.T) {
	conn, b := dial(t)
	ackSubj := "$JS.ACK.orders.durable-1.1.1.1.1700000000000000000.0"
	pc := NewPullConsumer(conn, "", "orders", "durable-1")
	go func() {
		line, _ := readRequestLine(b, time.Second)
		fs := fields(line)
		reply := fs[2]
		n := atoi(fs[len(fs)-1])
		b.ReadExact(n+2, time.Second)
		b.WriteRaw([]byte("MSG " + reply + " 1 " + ackSubj + " 1\r\nx\r\n"))
	}()
	msg, err := pc.Fetch(time.Second, false)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.ReadLine(time.Second)
		body, err := b.ReadExact(20, time.Second)
		assert.NoError(t, err)
		assert.Contains(t, string(body), `"delay"`)
	}()
	require.NoError(t, msg.Nak(5*time.Second))
	<-done
}
