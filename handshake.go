package natsline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adred-codev/natsline/internal/proto"
)

// handshake performs the synchronous INFO/CONNECT/PING/PONG exchange of
// spec.md §4.2, grounded in apcera-nats's processExpectedInfo/sendConnect
// but generalized to the headers/stream capability flags spec.md adds.
func (c *Conn) handshake() error {
	c.mu.Lock()
	c.state = StateAwaitingInfo
	c.mu.Unlock()

	deadline := time.Now().Add(c.opts.Timeout)
	c.netConn.SetDeadline(deadline)
	defer c.netConn.SetDeadline(time.Time{})

	line, err := c.readLine()
	if err != nil {
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: reading INFO: %v", ErrDisconnected, err)}
	}
	if proto.DetectKind(line) != proto.KindInfo {
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: expected INFO, got %q", ErrUnexpectedFrame, line)}
	}
	infoJSON, err := proto.ParseInfo(line)
	if err != nil {
		return &ConnectError{Addr: c.addr(), Err: newProtocolError(err, line)}
	}
	info, err := proto.DecodeInfo(infoJSON)
	if err != nil {
		return &ConnectError{Addr: c.addr(), Err: newProtocolError(err, infoJSON)}
	}
	c.info = info

	if info.TLSRequired && c.opts.TLSConfig == nil {
		return &ConnectError{Addr: c.addr(), Err: ErrTLSHandshake}
	}
	if info.AuthRequired && c.opts.credentialSchemes() == 0 {
		return &ConnectError{Addr: c.addr(), Err: ErrAuthFailed}
	}

	connectInfo := proto.ConnectInfo{
		Verbose:     c.opts.Verbose,
		Pedantic:    c.opts.Pedantic,
		Name:        c.opts.Name,
		Lang:        LangString,
		Version:     Version,
		Protocol:    protocolVersion,
		Echo:        !c.opts.NoEcho,
		User:        c.opts.User,
		Pass:        c.opts.Password,
		AuthToken:   c.opts.Token,
		TLSRequired: c.opts.TLSConfig != nil,
	}
	body, err := json.Marshal(connectInfo)
	if err != nil {
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %v", ErrSerialization, err)}
	}
	if err := c.writeFrame(proto.WriteConnect(body)); err != nil {
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %v", ErrDisconnected, err)}
	}
	if err := c.writeFrame(proto.WritePing()); err != nil {
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %v", ErrDisconnected, err)}
	}

	c.mu.Lock()
	c.state = StateAwaitingPong
	c.mu.Unlock()

	if c.opts.Verbose {
		line, err = c.readLine()
		if err != nil {
			return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %v", ErrDisconnected, err)}
		}
		switch proto.DetectKind(line) {
		case proto.KindOK:
			// fall through to await PONG below
		case proto.KindErr:
			return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %s", ErrAuthFailed, proto.ParseErr(line))}
		default:
			return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: expected +OK, got %q", ErrUnexpectedFrame, line)}
		}
	}

	line, err = c.readLine()
	if err != nil {
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %v", ErrDisconnected, err)}
	}
	switch proto.DetectKind(line) {
	case proto.KindPong:
		// handshake complete
	case proto.KindErr:
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: %s", ErrAuthFailed, proto.ParseErr(line))}
	default:
		return &ConnectError{Addr: c.addr(), Err: fmt.Errorf("%w: expected PONG, got %q", ErrUnexpectedFrame, line)}
	}

	c.mu.Lock()
	c.state = StateReady
	c.lastCheck = time.Now()
	c.mu.Unlock()
	c.touchActivity()
	return nil
}
