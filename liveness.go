package natsline

import (
	"time"

	"github.com/adred-codev/natsline/internal/proto"
)

// satisfyPong wakes every HealthCheck currently blocked on a PONG, called
// by handleLine when a PONG control line arrives.
func (c *Conn) satisfyPong() {
	c.mu.Lock()
	waiters := c.pendingPongs
	c.pendingPongs = nil
	c.mu.Unlock()
	for _, w := range waiters {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// HealthCheckDue reports whether a health check should run now: both time
// since last activity and time since last check exceed 5s (spec §4.2).
func (c *Conn) HealthCheckDue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	return now.Sub(c.lastActivity) > defaultIdleThreshold && now.Sub(c.lastCheck) > defaultIdleThreshold
}

// HealthCheck sends PING and awaits PONG within deadline (default 2s). On
// timeout it increments the failed-ping counter and fails the session once
// it reaches MaxPingsOutstanding, per spec §4.2.
func (c *Conn) HealthCheck(deadline time.Duration) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if deadline <= 0 {
		deadline = defaultHealthCheckDeadline
	}

	waitCh := make(chan struct{}, 1)
	c.mu.Lock()
	c.pendingPongs = append(c.pendingPongs, waitCh)
	c.lastCheck = time.Now()
	c.mu.Unlock()

	if err := c.writeFrame(proto.WritePing()); err != nil {
		c.fail(err)
		return err
	}

	end := time.Now().Add(deadline)
	for {
		select {
		case <-waitCh:
			c.mu.Lock()
			c.failedPings = 0
			c.mu.Unlock()
			return nil
		default:
		}
		remaining := time.Until(end)
		if remaining <= 0 {
			c.mu.Lock()
			c.failedPings++
			failed := c.failedPings
			max := c.opts.MaxPingsOutstanding
			c.mu.Unlock()
			c.opts.metricsSink().PingFailure()
			if failed >= max {
				err := ErrDisconnected
				c.fail(err)
				return err
			}
			return ErrReadTimeout
		}
		slice := 50 * time.Millisecond
		if remaining < slice {
			slice = remaining
		}
		if err := c.Process(slice); err != nil {
			return err
		}
	}
}

// ProbeReadable is the non-blocking readability probe of spec §4.2: it
// checks, without blocking, whether the peer has closed the connection
// between explicit I/O operations. It returns (true, nil) when data is
// waiting to be read, (false, nil) when nothing is pending (the healthy idle
// case), and (false, ErrDisconnected) after failing the session when EOF or
// any other read error is observed.
func (c *Conn) ProbeReadable() (readable bool, err error) {
	c.netConn.SetReadDeadline(time.Now())
	defer c.netConn.SetReadDeadline(time.Time{})
	_, perr := c.br.Peek(1)
	if perr == nil {
		return true, nil
	}
	if isTimeoutErr(perr) {
		return false, nil
	}
	c.fail(ErrDisconnected)
	return false, ErrDisconnected
}
