package metrics

// OTel-backed Provider, offered as an alternative backend to Prometheus for
// deployments that already ship an OpenTelemetry collector pipeline for the
// surrounding relay. Gauges are simulated via an UpDownCounter delta, since
// the OTel metric API has no direct Set semantics.

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelProviderOptions configures NewOTelProvider.
type OTelProviderOptions struct {
	ServiceName string // reserved for future resource attribution
}

// NewOTelProvider returns a metrics.Provider backed by an OTel MeterProvider.
func NewOTelProvider(opts OTelProviderOptions) Provider {
	mp := sdkmetric.NewMeterProvider()
	meter := mp.Meter("tmodel")
	return &otelProvider{mp: mp, meter: meter}
}

type otelProvider struct {
	mp    *sdkmetric.MeterProvider
	meter metric.Meter

	mu     sync.Mutex
	gauges map[string]*otelGaugeState
}

type otelGaugeState struct {
	inst metric.Float64UpDownCounter
	last map[string]float64
}

func buildOTelName(c CommonOpts) string {
	name := c.Name
	if c.Subsystem != "" {
		name = c.Subsystem + "." + name
	}
	if c.Namespace != "" {
		name = c.Namespace + "." + name
	}
	return name
}

func (p *otelProvider) NewCounter(opts CounterOpts) Counter {
	name := buildOTelName(opts.CommonOpts)
	inst, err := p.meter.Float64Counter(name, metric.WithDescription(opts.Help))
	if err != nil {
		return noopCounter{}
	}
	return &otelCounter{c: inst}
}

func (p *otelProvider) NewGauge(opts GaugeOpts) Gauge {
	name := buildOTelName(opts.CommonOpts)
	inst, err := p.meter.Float64UpDownCounter(name, metric.WithDescription(opts.Help))
	if err != nil {
		return noopGauge{}
	}
	p.mu.Lock()
	if p.gauges == nil {
		p.gauges = make(map[string]*otelGaugeState)
	}
	state, ok := p.gauges[name]
	if !ok {
		state = &otelGaugeState{inst: inst, last: make(map[string]float64)}
		p.gauges[name] = state
	}
	p.mu.Unlock()
	return &otelGauge{state: state}
}

func (p *otelProvider) Health(ctx context.Context) error { return nil }

type otelCounter struct{ c metric.Float64Counter }

func (c *otelCounter) Inc(delta float64, labels ...string) {
	if delta <= 0 {
		return
	}
	c.c.Add(context.Background(), delta)
}

type otelGauge struct{ state *otelGaugeState }

func (g *otelGauge) Set(v float64, labels ...string) {
	key := fmt.Sprint(labels)
	g.state.inst.Add(context.Background(), v-g.state.last[key])
	g.state.last[key] = v
}

func (g *otelGauge) Add(delta float64, labels ...string) {
	if delta == 0 {
		return
	}
	key := fmt.Sprint(labels)
	g.state.inst.Add(context.Background(), delta)
	g.state.last[key] += delta
}
