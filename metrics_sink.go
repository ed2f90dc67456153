package natsline

import "time"

// metricsSink is the narrow reporting surface a Conn pushes counters into.
// metrics.Collector implements it; see that package for the prometheus
// wiring.
type metricsSink interface {
	SetConnected(bool)
	MessageIn(bytes int)
	MessageOut(bytes int)
	PublishLatency(time.Duration)
	RequestLatency(time.Duration)
	PingFailure()
}

type noopMetrics struct{}

func (noopMetrics) SetConnected(bool)          {}
func (noopMetrics) MessageIn(int)              {}
func (noopMetrics) MessageOut(int)             {}
func (noopMetrics) PublishLatency(time.Duration) {}
func (noopMetrics) RequestLatency(time.Duration) {}
func (noopMetrics) PingFailure()                {}
