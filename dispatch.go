package natsline

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/adred-codev/natsline/internal/proto"
)

// Process is the single-threaded inbound pump of spec.md §4.5 and §5: it is
// the only place bytes move off the socket, and the only place subscription
// handlers and request waiters are invoked, always on the caller's
// goroutine. It reads and dispatches complete lines until either timeout
// elapses or an error/EOF occurs; returning nil after a bare timeout with
// zero lines read is normal, not an error.
func (c *Conn) Process(timeout time.Duration) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)
	defer c.netConn.SetReadDeadline(time.Time{})

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		c.netConn.SetReadDeadline(deadline)
		line, err := c.readLine()
		if err != nil {
			if isTimeoutErr(err) {
				return nil
			}
			c.fail(err)
			return err
		}
		if err := c.handleLine(line); err != nil {
			c.fail(err)
			return err
		}
	}
}

func isTimeoutErr(err error) bool {
	nerr, ok := err.(net.Error)
	return ok && nerr.Timeout()
}

// handleLine dispatches one already-read control line, reading any
// announced payload bytes itself.
func (c *Conn) handleLine(line []byte) error {
	switch proto.DetectKind(line) {
	case proto.KindPing:
		return c.writeFrame(proto.WritePing())
	case proto.KindPong:
		c.satisfyPong()
		return nil
	case proto.KindOK:
		return nil
	case proto.KindErr:
		c.opts.log().LogServerError(proto.ParseErr(line))
		return nil
	case proto.KindMsg:
		h, err := proto.ParseMsgHeader(line)
		if err != nil {
			return newProtocolError(err, line)
		}
		payload, err := c.readExact(h.PayloadLen())
		if err != nil {
			return err
		}
		c.opts.metricsSink().MessageIn(len(payload))
		return c.route(&Msg{Subject: h.Subject, Reply: h.ReplyTo, Data: payload}, h.Sid)
	case proto.KindHMsg:
		h, err := proto.ParseHMsgHeader(line)
		if err != nil {
			return newProtocolError(err, line)
		}
		full, err := c.readExact(h.TotalLen)
		if err != nil {
			return err
		}
		if h.HeaderLen > len(full) {
			return newProtocolError(proto.ErrBadHeaderSize, line)
		}
		headers, err := proto.ParseHeaderBlock(full[:h.HeaderLen])
		if err != nil {
			return newProtocolError(err, full[:h.HeaderLen])
		}
		payload := full[h.HeaderLen:]
		c.opts.metricsSink().MessageIn(len(payload))
		return c.route(&Msg{Subject: h.Subject, Reply: h.ReplyTo, Header: Header(headers), Data: payload}, h.Sid)
	default:
		return newProtocolError(proto.ErrMalformed, line)
	}
}

// route implements spec §4.5's routing decision: replies take precedence
// over sid lookup by subject prefix match against the session's inbox.
func (c *Conn) route(msg *Msg, sidStr string) error {
	c.mu.Lock()
	prefix := c.inboxPrefix
	c.mu.Unlock()

	if prefix != "" && strings.HasPrefix(msg.Subject, prefix+".") {
		c.mu.Lock()
		p, ok := c.pending[msg.Subject]
		if ok {
			delete(c.pending, msg.Subject)
		}
		c.mu.Unlock()
		if ok {
			p.fill(msg)
		} else {
			c.opts.log().LogDroppedReply(msg.Subject)
		}
		return nil
	}

	sid, err := strconv.ParseUint(sidStr, 10, 64)
	if err != nil {
		return nil // unknown/malformed sid: drop silently per spec §4.5
	}
	c.mu.Lock()
	sub, ok := c.subs[sid]
	c.mu.Unlock()
	if !ok {
		return nil // subscription may have just been removed; drop silently
	}
	c.deliver(sub, msg)
	return nil
}
