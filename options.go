package natsline

import (
	"crypto/tls"
	"time"

	"golang.org/x/time/rate"
)

const (
	// LangString and Version are reported in the CONNECT frame, mirroring
	// apcera-nats's Version constant and nats.go's client info fields.
	LangString = "go"
	Version    = "0.1.0"

	protocolVersion = 1

	defaultTimeout             = 2 * time.Second
	defaultPingInterval        = 2 * time.Minute
	defaultMaxPingsOutstanding = 2
	defaultHealthCheckDeadline = 2 * time.Second
	defaultIdleThreshold       = 5 * time.Second
)

// Options is the immutable endpoint configuration of spec.md §3. Built via
// functional Option values, the same pattern nats.go moved to from
// apcera-nats's exported-field Options struct; Connect(host, port, opts...)
// assembles it from the defaults plus each Option, so invariants are
// enforced in one place (exactly one credential scheme, timeout > 0).
type Options struct {
	Host string
	Port int

	Timeout time.Duration

	// Credentials: exactly one of (User+Password), Token, or none.
	User     string
	Password string
	Token    string

	TLSConfig *tls.Config // nil => TLS disabled

	Name      string // client label
	Verbose   bool
	Pedantic  bool
	NoEcho    bool // inverse of the wire "echo" flag

	PingInterval        time.Duration
	MaxPingsOutstanding int

	// PublishLimiter, when non-nil, throttles outgoing PUB/HPUB frames.
	// Mirrors the ws teacher variant's MaxBroadcastRate use of
	// golang.org/x/time/rate for client-side throttling.
	PublishLimiter *rate.Limiter

	logger  zlogSink
	metrics metricsSink
}

// Option mutates an Options value under construction.
type Option func(*Options)

func defaultOptions(host string, port int) *Options {
	return &Options{
		Host:                host,
		Port:                port,
		Timeout:             defaultTimeout,
		PingInterval:        defaultPingInterval,
		MaxPingsOutstanding: defaultMaxPingsOutstanding,
	}
}

// WithTimeout sets the connect/handshake timeout. Must be > 0 (spec §3
// invariant); validated in Connect.
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }

// WithUserPassword sets the user/password credential scheme.
func WithUserPassword(user, pass string) Option {
	return func(o *Options) { o.User = user; o.Password = pass; o.Token = "" }
}

// WithToken sets the token credential scheme.
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token; o.User = ""; o.Password = "" }
}

// WithTLS enables TLS using cfg (nil selects a bare tls.Config{}).
func WithTLS(cfg *tls.Config) Option {
	return func(o *Options) {
		if cfg == nil {
			cfg = &tls.Config{}
		}
		o.TLSConfig = cfg
	}
}

// WithName sets the client label reported in CONNECT.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithVerbose toggles verbose mode (server +OK acks every frame).
func WithVerbose(v bool) Option { return func(o *Options) { o.Verbose = v } }

// WithPedantic toggles pedantic protocol checking on the server side.
func WithPedantic(v bool) Option { return func(o *Options) { o.Pedantic = v } }

// WithNoEcho disables delivery of a session's own publishes back to its own
// subscriptions.
func WithNoEcho() Option { return func(o *Options) { o.NoEcho = true } }

// WithPingInterval sets Options.PingInterval. The liveness code does not
// read it: HealthCheckDue uses a fixed 5s idle threshold.
func WithPingInterval(d time.Duration) Option { return func(o *Options) { o.PingInterval = d } }

// WithMaxPingsOutstanding sets the failed-ping threshold before the session
// is declared dead.
func WithMaxPingsOutstanding(n int) Option {
	return func(o *Options) { o.MaxPingsOutstanding = n }
}

// WithPublishRateLimit throttles outgoing publishes to at most eventsPerSecond
// with the given burst, using golang.org/x/time/rate.
func WithPublishRateLimit(eventsPerSecond float64, burst int) Option {
	return func(o *Options) { o.PublishLimiter = rate.NewLimiter(rate.Limit(eventsPerSecond), burst) }
}

// WithLogger attaches a sink for the log-only errors permitted by spec §7
// (non-handshake -ERR, dropped late replies).
func WithLogger(l zlogSink) Option { return func(o *Options) { o.logger = l } }

// WithMetrics attaches a metrics.Collector (or any metricsSink
// implementation) so the session reports connection/message/latency
// counters.
func WithMetrics(m metricsSink) Option { return func(o *Options) { o.metrics = m } }

func (o *Options) credentialSchemes() int {
	n := 0
	if o.User != "" || o.Password != "" {
		n++
	}
	if o.Token != "" {
		n++
	}
	return n
}

func (o *Options) log() zlogSink {
	if o.logger == nil {
		return noopLogger{}
	}
	return o.logger
}

func (o *Options) metricsSink() metricsSink {
	if o.metrics == nil {
		return noopMetrics{}
	}
	return o.metrics
}
