// Package metrics provides the minimal counter/gauge abstraction used by the
// traffic-model engine. The decoder and worker pool only ever need monotonic
// counters and point-in-time gauges, so unlike the ariadne lineage this
// provider does not carry histogram/timer instrumentation.
package metrics

import "context"

// Provider is the minimal metrics provider contract used internally.
type Provider interface {
	NewCounter(opts CounterOpts) Counter
	NewGauge(opts GaugeOpts) Gauge
	Health(ctx context.Context) error
}

type Counter interface{ Inc(delta float64, labels ...string) }
type Gauge interface {
	Set(v float64, labels ...string)
	Add(delta float64, labels ...string)
}

type CommonOpts struct {
	Namespace, Subsystem, Name, Help string
	Labels                           []string
}
type CounterOpts struct{ CommonOpts }
type GaugeOpts struct{ CommonOpts }

type noopProvider struct{}
type noopCounter struct{}
type noopGauge struct{}

// NewNoopProvider returns a Provider that discards all observations. Used
// when Config.MetricsProvider is nil.
func NewNoopProvider() Provider { return &noopProvider{} }

func (p *noopProvider) NewCounter(CounterOpts) Counter { return noopCounter{} }
func (p *noopProvider) NewGauge(GaugeOpts) Gauge       { return noopGauge{} }
func (p *noopProvider) Health(context.Context) error   { return nil }
func (noopCounter) Inc(float64, ...string)             {}
func (noopGauge) Set(float64, ...string)               {}
func (noopGauge) Add(float64, ...string)               {}
