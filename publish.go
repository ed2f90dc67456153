package natsline

import (
	"context"
	"time"

	"github.com/adred-codev/natsline/internal/proto"
	"github.com/adred-codev/natsline/internal/subject"
)

// Publish sends a fire-and-forget message to subj (spec §4.1, scenario S1).
func (c *Conn) Publish(subj string, data []byte) error {
	return c.publish(subj, "", nil, data)
}

// PublishRequest publishes with an explicit reply-to subject, without
// waiting for a response (used internally by Request, exposed for callers
// who manage their own inbox).
func (c *Conn) PublishRequest(subj, reply string, data []byte) error {
	return c.publish(subj, reply, nil, data)
}

// PublishMsg publishes a full Msg, using HPUB when headers are present.
func (c *Conn) PublishMsg(msg *Msg) error {
	return c.publish(msg.Subject, msg.Reply, msg.Header, msg.Data)
}

func (c *Conn) publish(subj, reply string, header Header, data []byte) error {
	if ok, reason := subject.ValidPublish(subj); !ok {
		return &SubjectError{Subject: subj, Operation: "publish", Reason: reason}
	}
	if err := c.requireReady(); err != nil {
		return err
	}
	if c.info.MaxPayload > 0 && int64(len(data)) > c.info.MaxPayload {
		return ErrMaxPayload
	}
	if c.opts.PublishLimiter != nil {
		if err := c.opts.PublishLimiter.Wait(context.Background()); err != nil {
			return err
		}
	}

	start := time.Now()
	var frame []byte
	if len(header) > 0 {
		keys := headerKeysInOrder(header)
		block := proto.EncodeHeaderBlock(keys, header)
		frame = proto.WriteHPub(subj, reply, block, data)
	} else {
		frame = proto.WritePub(subj, reply, data)
	}
	if err := c.writeFrame(frame); err != nil {
		c.fail(err)
		return err
	}
	c.opts.metricsSink().MessageOut(len(data))
	c.opts.metricsSink().PublishLatency(time.Since(start))
	return nil
}

func headerKeysInOrder(h Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}
