package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		line string
		want Kind
	}{
		{"INFO {}", KindInfo},
		{"info {}", KindInfo},
		{"MSG foo 1 5", KindMsg},
		{"HMSG foo 1 10 15", KindHMsg},
		{"PING", KindPing},
		{"PONG", KindPong},
		{"+OK", KindOK},
		{"-ERR 'bad'", KindErr},
		{"garbage", KindUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DetectKind([]byte(c.line)), "line %q", c.line)
	}
}

func TestParseMsgHeaderNoReply(t *testing.T) {
	h, err := ParseMsgHeader([]byte("MSG foo.bar 42 11"))
	require.NoError(t, err)
	assert.Equal(t, "foo.bar", h.Subject)
	assert.Equal(t, "42", h.Sid)
	assert.Equal(t, "", h.ReplyTo)
	assert.Equal(t, 11, h.TotalLen)
	assert.Equal(t, 11, h.PayloadLen())
}

func TestParseMsgHeaderWithReply(t *testing.T) {
	h, err := ParseMsgHeader([]byte("MSG foo.bar 42 _INBOX.abc 11"))
	require.NoError(t, err)
	assert.Equal(t, "_INBOX.abc", h.ReplyTo)
	assert.Equal(t, 11, h.PayloadLen())
}

func TestParseMsgHeaderMalformed(t *testing.T) {
	_, err := ParseMsgHeader([]byte("MSG foo.bar"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseHMsgHeaderPayloadLenHonesty(t *testing.T) {
	h, err := ParseHMsgHeader([]byte("HMSG foo.bar 7 20 30"))
	require.NoError(t, err)
	assert.Equal(t, 20, h.HeaderLen)
	assert.Equal(t, 30, h.TotalLen)
	assert.Equal(t, 10, h.PayloadLen())
}

func TestParseHMsgHeaderBadSizes(t *testing.T) {
	_, err := ParseHMsgHeader([]byte("HMSG foo.bar 7 30 20"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseErr(t *testing.T) {
	assert.Equal(t, "Authorization Violation", ParseErr([]byte("-ERR 'Authorization Violation'")))
}

func TestHeaderBlockRoundTrip(t *testing.T) {
	headers := map[string][]string{
		"X-One": {"a"},
		"X-Two": {"b", "c"},
	}
	keys := []string{"X-One", "X-Two"}
	block := EncodeHeaderBlock(keys, headers)

	decoded, err := ParseHeaderBlock(block)
	require.NoError(t, err)
	assert.Equal(t, headers, decoded)
}

func TestParseHeaderBlockRejectsMissingVersion(t *testing.T) {
	_, err := ParseHeaderBlock([]byte("X-One: a\r\n\r\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWritePubFrameShape(t *testing.T) {
	frame := WritePub("foo.bar", "", []byte("hello"))
	assert.Equal(t, "PUB foo.bar 5\r\nhello\r\n", string(frame))
}

func TestWritePubWithReply(t *testing.T) {
	frame := WritePub("foo.bar", "_INBOX.x", []byte("hi"))
	assert.Equal(t, "PUB foo.bar _INBOX.x 2\r\nhi\r\n", string(frame))
}

func TestWriteHPubFrameShape(t *testing.T) {
	block := EncodeHeaderBlock([]string{"X-A"}, map[string][]string{"X-A": {"1"}})
	frame := WriteHPub("foo.bar", "", block, []byte("hi"))

	// Check the frame's verb and subject and that the header block and
	// payload follow, rather than hand counting bytes.
	toks := string(frame)
	require.Contains(t, toks, "HPUB foo.bar ")
	require.Contains(t, toks, string(block)+"hi\r\n")
}

func TestWriteSubAndUnsub(t *testing.T) {
	assert.Equal(t, "SUB foo.bar 7\r\n", string(WriteSub("foo.bar", "", "7")))
	assert.Equal(t, "SUB foo.bar wq 7\r\n", string(WriteSub("foo.bar", "wq", "7")))
	assert.Equal(t, "UNSUB 7\r\n", string(WriteUnsub("7", 0)))
	assert.Equal(t, "UNSUB 7 3\r\n", string(WriteUnsub("7", 3)))
}

func TestWritePingPong(t *testing.T) {
	assert.Equal(t, "PING\r\n", string(WritePing()))
	assert.Equal(t, "PONG\r\n", string(WritePong()))
}

func TestParseInfo(t *testing.T) {
	json, err := ParseInfo([]byte(`INFO {"server_id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"server_id":"abc"}`, string(json))
}

func TestDecodeInfo(t *testing.T) {
	info, err := DecodeInfo([]byte(`{"server_id":"abc","max_payload":1048576,"headers":true}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", info.ServerID)
	assert.Equal(t, int64(1048576), info.MaxPayload)
	assert.True(t, info.HeadersOn)
}
