package stream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAckSubjectDomainLess(t *testing.T) {
	subj := "$JS.ACK.orders.durable-1.1.42.7.1700000000000000000.3"
	addr, err := ParseAckSubject(subj)
	require.NoError(t, err)
	assert.Equal(t, "", addr.Domain)
	assert.Equal(t, "", addr.Account)
	assert.Equal(t, "orders", addr.Stream)
	assert.Equal(t, "durable-1", addr.Consumer)
	assert.Equal(t, uint64(1), addr.Delivered)
	assert.Equal(t, uint64(42), addr.StreamSeq)
	assert.Equal(t, uint64(7), addr.ConsumerSeq)
	assert.Equal(t, int64(1700000000000000000), addr.Timestamp)
	assert.Equal(t, uint64(3), addr.Pending)
}

func TestParseAckSubjectDomainFul(t *testing.T) {
	subj := "$JS.ACK.hub.$G.orders.durable-1.1.42.7.1700000000000000000.3.tok123"
	addr, err := ParseAckSubject(subj)
	require.NoError(t, err)
	assert.Equal(t, "hub", addr.Domain)
	assert.Equal(t, "$G", addr.Account)
	assert.Equal(t, "orders", addr.Stream)
	assert.Equal(t, "durable-1", addr.Consumer)
	assert.Equal(t, uint64(1), addr.Delivered)
	assert.Equal(t, uint64(42), addr.StreamSeq)
	assert.Equal(t, uint64(7), addr.ConsumerSeq)
	assert.Equal(t, uint64(3), addr.Pending)
}

func TestParseAckSubjectRejectsNonAck(t *testing.T) {
	_, err := ParseAckSubject("orders.durable-1")
	assert.Error(t, err)
}

func TestParseAckSubjectRejectsMalformedTokenCount(t *testing.T) {
	_, err := ParseAckSubject("$JS.ACK.orders.durable-1.1.42")
	assert.Error(t, err)
}

// Every well-formed domain-less ack subject round-trips its numeric fields
// exactly, across a range of values, not just one fixed example.
func TestParseAckSubjectRoundTripsNumericFields(t *testing.T) {
	for i := uint64(0); i < 5; i++ {
		subj := fmt.Sprintf("$JS.ACK.s.c.%d.%d.%d.%d.%d", i, i+1, i+2, i+3, i+4)
		addr, err := ParseAckSubject(subj)
		require.NoError(t, err)
		assert.Equal(t, i, addr.Delivered)
		assert.Equal(t, i+1, addr.StreamSeq)
		assert.Equal(t, i+2, addr.ConsumerSeq)
		assert.Equal(t, int64(i+3), addr.Timestamp)
		assert.Equal(t, i+4, addr.Pending)
	}
}
