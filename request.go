package natsline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type pendingRequest struct {
	ch chan *Msg
}

func newPendingRequest() *pendingRequest {
	return &pendingRequest{ch: make(chan *Msg, 1)}
}

// fill delivers msg to the waiter. Only the first call has any effect; spec
// §4.6's tie-break ("first wins, subsequent dropped") is enforced by
// dispatch.route deleting the pending entry before calling fill, so a
// second reply for the same token never reaches here.
func (p *pendingRequest) fill(msg *Msg) {
	select {
	case p.ch <- msg:
	default:
	}
}

func (p *pendingRequest) fail(err error) {
	// A failed pending request just never receives a message; Request's
	// poll loop observes the deadline or the session's closed state.
}

// ensureInbox lazily installs the per-session reply-inbox wildcard
// subscription on first use, per spec §3: a random prefix of >= 64 bits of
// entropy plus a `<prefix>.>` subscription.
func (c *Conn) ensureInbox() error {
	c.mu.Lock()
	if c.inboxPrefix != "" {
		c.mu.Unlock()
		return nil
	}
	var raw [8]byte // 64 bits
	if _, err := rand.Read(raw[:]); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("natsline: generating inbox prefix: %w", err)
	}
	prefix := "_INBOX." + hex.EncodeToString(raw[:])
	c.inboxPrefix = prefix
	c.mu.Unlock()

	sub, err := c.Subscribe(prefix+".>", func(*Msg) {})
	if err != nil {
		c.mu.Lock()
		c.inboxPrefix = ""
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.inboxSub = sub
	c.mu.Unlock()
	return nil
}

// freshReplyToken mints a unique reply subject under the session's inbox,
// using 32 bits of cryptographic randomness per request as spec §9 directs
// ("64 bits for the session prefix and 32 bits per request are sufficient
// given property (5)").
func (c *Conn) freshReplyToken() (string, error) {
	var raw [4]byte // 32 bits
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("natsline: generating reply token: %w", err)
	}
	c.mu.Lock()
	prefix := c.inboxPrefix
	c.mu.Unlock()
	return prefix + "." + hex.EncodeToString(raw[:]), nil
}

// Request publishes data to subj with a fresh reply-to subject and blocks
// (pumping Process internally in short slices, spec §4.6) until a reply
// arrives or timeout elapses.
func (c *Conn) Request(subj string, data []byte, timeout time.Duration) (*Msg, error) {
	return c.RequestMsg(subj, nil, data, timeout)
}

// RequestMsg is Request with an optional header block attached to the
// outgoing message.
func (c *Conn) RequestMsg(subj string, header Header, data []byte, timeout time.Duration) (*Msg, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	if err := c.ensureInbox(); err != nil {
		return nil, err
	}
	reply, err := c.freshReplyToken()
	if err != nil {
		return nil, err
	}

	pr := newPendingRequest()
	c.mu.Lock()
	c.pending[reply] = pr
	c.mu.Unlock()

	start := time.Now()
	deadline := start.Add(timeout)

	if err := c.publish(subj, reply, header, data); err != nil {
		c.mu.Lock()
		delete(c.pending, reply)
		c.mu.Unlock()
		return nil, err
	}

	const pollSlice = 100 * time.Millisecond
	for {
		select {
		case msg := <-pr.ch:
			c.opts.metricsSink().RequestLatency(time.Since(start))
			return msg, nil
		default:
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.mu.Lock()
			delete(c.pending, reply)
			c.mu.Unlock()
			return nil, ErrRequestTimeout
		}
		slice := pollSlice
		if remaining < slice {
			slice = remaining
		}
		if err := c.Process(slice); err != nil {
			c.mu.Lock()
			delete(c.pending, reply)
			c.mu.Unlock()
			return nil, err
		}
	}
}
