package natsline

import (
	"errors"
	"fmt"
)

// Error kinds, one sentinel per row of the error taxonomy. Use errors.Is to
// test for a kind; wrapped errors carry additional context via fmt.Errorf's
// %w verb.
var (
	ErrConnectTimeout  = errors.New("natsline: connect timeout")
	ErrConnectRefused  = errors.New("natsline: connection refused")
	ErrTLSHandshake    = errors.New("natsline: tls handshake failed")
	ErrAuthFailed      = errors.New("natsline: authorization failed")
	ErrNotConnected    = errors.New("natsline: not connected")
	ErrDisconnected    = errors.New("natsline: disconnected")
	ErrMalformed       = errors.New("natsline: malformed protocol data")
	ErrUnexpectedFrame = errors.New("natsline: unexpected frame for connection state")
	ErrInvalidSubject  = errors.New("natsline: invalid subject")
	ErrRequestTimeout  = errors.New("natsline: request timed out")
	ErrReadTimeout     = errors.New("natsline: read timed out")
	ErrSerialization   = errors.New("natsline: serialization failed")

	// ErrMaxPayload is returned by Publish/PublishMsg when the payload
	// exceeds the server-advertised max_payload. Spec leaves client-side
	// rejection as an open question; this client rejects early rather
	// than round-tripping a guaranteed -ERR. See DESIGN.md.
	ErrMaxPayload = errors.New("natsline: payload exceeds server max_payload")
)

// ConnectError wraps one of the ErrConnect* sentinels with the address that
// was being dialed, matching the Stats/Options error wrapping in
// apcera-nats's connect().
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("natsline: connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError carries the first bytes of the offending line, per spec
// §4.1's "fails with ProtocolError carrying the first ≤ 100 bytes".
type ProtocolError struct {
	Err  error
	Data string
}

const protocolErrorSnippetLen = 100

func newProtocolError(err error, data []byte) *ProtocolError {
	if len(data) > protocolErrorSnippetLen {
		data = data[:protocolErrorSnippetLen]
	}
	return &ProtocolError{Err: err, Data: string(data)}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("natsline: %v: %q", e.Err, e.Data)
}

// Unwrap exposes both the underlying codec error and ErrMalformed, so
// errors.Is(err, ErrMalformed) holds for every ProtocolError.
func (e *ProtocolError) Unwrap() []error { return []error{e.Err, ErrMalformed} }

// SubjectError is direction-tagged: the same token rule violation is
// reported differently for publish vs subscribe per spec §4.3.
type SubjectError struct {
	Subject   string
	Operation string // "publish" or "subscribe"
	Reason    string
}

func (e *SubjectError) Error() string {
	return fmt.Sprintf("natsline: invalid subject for %s: %q: %s", e.Operation, e.Subject, e.Reason)
}

func (e *SubjectError) Unwrap() error { return ErrInvalidSubject }

// ServerError is a -ERR reported by the broker outside the handshake; per
// spec §7 it is logged via the optional sink, not returned, except when it
// occurs during the handshake (wrapped into ErrAuthFailed there instead).
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string { return fmt.Sprintf("natsline: server error: %s", e.Reason) }
