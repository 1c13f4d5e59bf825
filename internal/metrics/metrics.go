// Package metrics defines the named counter/gauge sink consumed by the
// service. Storage and export of the measurements belong to the deployment,
// not to this package.
package metrics

import "go.uber.org/zap"

// Sink receives named counters and gauges.
type Sink interface {
	// Increment adds one to the named counter.
	Increment(name string)
	// Gauge records the current value of the named gauge.
	Gauge(name string, value float64)
}

// ZapSink writes measurements to a structured log at debug level. It is the
// default sink when no exporter is attached.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink returns a Sink logging through the given logger.
func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Increment(name string) {
	s.log.Debug("counter", zap.String("name", name))
}

func (s *ZapSink) Gauge(name string, value float64) {
	s.log.Debug("gauge", zap.String("name", name), zap.Float64("value", value))
}

// NopSink discards all measurements.
type NopSink struct{}

func (NopSink) Increment(string)      {}
func (NopSink) Gauge(string, float64) {}
