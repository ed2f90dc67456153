package natsline

import (
	"fmt"
	"strconv"

	"github.com/adred-codev/natsline/internal/proto"
	"github.com/adred-codev/natsline/internal/subject"
)

// MsgHandler is invoked for each message delivered to a subscription, on
// the caller's thread of execution inside Process (spec §5).
type MsgHandler func(msg *Msg)

// Subscription is the tuple of spec.md §3: sid, subject pattern, optional
// queue group, handler, optional auto-unsubscribe counter. Owned
// exclusively by its Conn.
type Subscription struct {
	sid     uint64
	Subject string
	Queue   string

	conn    *Conn
	handler MsgHandler

	remaining    int  // auto-unsub counter; 0 = unlimited
	hasRemaining bool
	delivered    uint64
}

// Subscribe registers handler for subject, allocating a fresh sid and
// issuing `SUB <subject> <sid>` to the broker.
func (c *Conn) Subscribe(subj string, handler MsgHandler) (*Subscription, error) {
	return c.subscribe(subj, "", handler)
}

// QueueSubscribe registers handler for subject within queue group, so the
// broker load-balances deliveries across every session subscribed to the
// same (subject, queue) pair.
func (c *Conn) QueueSubscribe(subj, queue string, handler MsgHandler) (*Subscription, error) {
	return c.subscribe(subj, queue, handler)
}

func (c *Conn) subscribe(subj, queue string, handler MsgHandler) (*Subscription, error) {
	if ok, reason := subject.ValidSubscribe(subj); !ok {
		return nil, &SubjectError{Subject: subj, Operation: "subscribe", Reason: reason}
	}
	if err := c.requireReady(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.nextSid++
	sid := c.nextSid
	sub := &Subscription{sid: sid, Subject: subj, Queue: queue, conn: c, handler: handler}
	c.subs[sid] = sub
	c.mu.Unlock()

	if err := c.writeFrame(proto.WriteSub(subj, queue, strconv.FormatUint(sid, 10))); err != nil {
		c.mu.Lock()
		delete(c.subs, sid)
		c.mu.Unlock()
		c.fail(err)
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes sub. If maxMsgs > 0, delivery continues for up to
// maxMsgs further messages (auto-unsubscribe, spec §4.4): the broker is
// told `UNSUB <sid> <max>` and the local entry is erased once exactly
// maxMsgs more deliveries have occurred.
func (c *Conn) Unsubscribe(sub *Subscription, maxMsgs int) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	c.mu.Lock()
	if _, ok := c.subs[sub.sid]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("natsline: subscription already removed")
	}
	if maxMsgs > 0 {
		sub.hasRemaining = true
		sub.remaining = maxMsgs
	} else {
		delete(c.subs, sub.sid)
	}
	c.mu.Unlock()

	if err := c.writeFrame(proto.WriteUnsub(strconv.FormatUint(sub.sid, 10), maxMsgs)); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// deliver invokes sub's handler and applies the auto-unsubscribe counter.
// Called only from Process, on the caller's goroutine (spec §5).
func (c *Conn) deliver(sub *Subscription, msg *Msg) {
	msg.sub = sub
	sub.delivered++
	sub.handler(msg)
	if sub.hasRemaining {
		sub.remaining--
		if sub.remaining <= 0 {
			c.mu.Lock()
			delete(c.subs, sub.sid)
			c.mu.Unlock()
		}
	}
}
