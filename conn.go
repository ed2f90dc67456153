package natsline

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/adred-codev/natsline/internal/proto"
)

// State is a position in the session state machine of spec.md §3.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingInfo
	StateAwaitingPong
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingInfo:
		return "awaiting_info"
	case StateAwaitingPong:
		return "awaiting_pong"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn owns one full-duplex socket to one broker. It is the Session of
// spec.md §4.2: socket, read buffer, subscription table and pending-request
// table are all owned exclusively by one Conn (spec §5's "Shared
// resources"). Conn is not safe for concurrent mutation from multiple
// goroutines; callers who need parallel publish must serialize externally
// (documented choice permitted by spec §5).
type Conn struct {
	opts *Options

	mu    sync.Mutex
	state State

	netConn net.Conn
	bw      *bufio.Writer
	br      *bufio.Reader

	info proto.Info

	lastActivity time.Time
	lastCheck    time.Time
	failedPings  int
	pendingPongs []chan struct{}

	subs      map[uint64]*Subscription
	nextSid   uint64

	pending map[string]*pendingRequest

	inboxPrefix string
	inboxSub    *Subscription

	err error
}

// Connect dials host:port, performs the handshake of spec.md §4.2, and
// returns a Conn in StateReady. The handshake is synchronous and blocking,
// matching apcera-nats's connect()/processExpectedInfo()/sendConnect().
func Connect(host string, port int, options ...Option) (*Conn, error) {
	opts := defaultOptions(host, port)
	for _, o := range options {
		o(opts)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("natsline: Options.Timeout must be > 0")
	}
	if opts.credentialSchemes() > 1 {
		return nil, fmt.Errorf("natsline: exactly one credential scheme may be active")
	}

	c := &Conn{
		opts:    opts,
		state:   StateConnecting,
		subs:    make(map[uint64]*Subscription),
		pending: make(map[string]*pendingRequest),
	}
	if err := c.dial(); err != nil {
		return nil, err
	}
	if err := c.handshake(); err != nil {
		c.netConn.Close()
		return nil, err
	}
	c.opts.metricsSink().SetConnected(true)
	return c, nil
}

func (c *Conn) addr() string { return net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port)) }

func (c *Conn) dial() error {
	addr := c.addr()
	conn, err := net.DialTimeout("tcp", addr, c.opts.Timeout)
	if err != nil {
		return &ConnectError{Addr: addr, Err: classifyDialErr(err)}
	}
	if c.opts.TLSConfig != nil {
		tlsConn := tls.Client(conn, c.opts.TLSConfig)
		tlsConn.SetDeadline(time.Now().Add(c.opts.Timeout))
		if err := tlsConn.Handshake(); err != nil {
			conn.Close()
			return &ConnectError{Addr: addr, Err: fmt.Errorf("%w: %v", ErrTLSHandshake, err)}
		}
		tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}
	c.netConn = conn
	c.bw = bufio.NewWriterSize(conn, 32768)
	c.br = bufio.NewReaderSize(conn, 32768)
	c.touchActivity()
	return nil
}

// classifyDialErr maps the socket error codes of spec.md §6: ETIMEDOUT (or
// Winsock 10060) to a timeout failure, ECONNREFUSED (or 10061) to a refused
// failure, anything else is returned verbatim as a generic connect failure
// carrying the OS message.
func classifyDialErr(err error) error {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrConnectTimeout, err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %v", ErrConnectRefused, err)
	}
	return err
}

// IsConnected reports whether the session currently admits
// publish/subscribe/request (spec §3: only Ready does).
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady
}

// State returns the current session state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) requireReady() error {
	c.mu.Lock()
	state := c.state
	err := c.err
	c.mu.Unlock()
	if state != StateReady {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
		return ErrNotConnected
	}
	return nil
}

// Close enters Closing then Closed: closes the socket, clears subscriptions
// and pending requests, failing any in-flight request/fetch at its next
// pump tick (spec §5's cancellation contract).
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.state == StateClosed || c.state == StateClosing {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	if c.netConn != nil {
		c.netConn.Close()
	}
	for _, p := range c.pending {
		p.fail(ErrDisconnected)
	}
	c.subs = make(map[uint64]*Subscription)
	c.pending = make(map[string]*pendingRequest)
	c.state = StateClosed
	c.mu.Unlock()
	c.opts.metricsSink().SetConnected(false)
	return nil
}

func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.state == StateClosed || c.state == StateClosing {
		c.mu.Unlock()
		return
	}
	c.err = err
	c.state = StateClosing
	if c.netConn != nil {
		c.netConn.Close()
	}
	for _, p := range c.pending {
		p.fail(err)
	}
	c.subs = make(map[uint64]*Subscription)
	c.pending = make(map[string]*pendingRequest)
	c.state = StateClosed
	c.mu.Unlock()
	c.opts.metricsSink().SetConnected(false)
}

func (c *Conn) touchActivity() { c.lastActivity = time.Now() }
