package natsline

import "github.com/rs/zerolog"

// zlogSink is the narrow logging surface the session needs: a place to put
// the handful of errors spec §7 says must be logged rather than returned
// (non-handshake -ERR frames, dropped late replies). Keeping it this small
// lets callers pass anything, but the expected implementation is
// NewZerologSink, matching the structured-logging style of
// ws/internal/shared/monitoring/logger.go.
type zlogSink interface {
	LogServerError(reason string)
	LogDroppedReply(subject string)
}

type noopLogger struct{}

func (noopLogger) LogServerError(string) {}
func (noopLogger) LogDroppedReply(string) {}

// zerologSink adapts a zerolog.Logger to zlogSink.
type zerologSink struct {
	log zerolog.Logger
}

// NewZerologSink builds a zlogSink backed by zerolog, tagged with a
// "component":"natsline" field so its lines are distinguishable in a
// process that logs from several components.
func NewZerologSink(l zerolog.Logger) zlogSink {
	return &zerologSink{log: l.With().Str("component", "natsline").Logger()}
}

func (s *zerologSink) LogServerError(reason string) {
	s.log.Warn().Str("reason", reason).Msg("server reported an error outside the handshake")
}

func (s *zerologSink) LogDroppedReply(subject string) {
	s.log.Debug().Str("subject", subject).Msg("dropped late or duplicate reply")
}
