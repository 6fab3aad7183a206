package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusProviderCounterAndGauge(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})

	ctr := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Namespace: "tmodel", Subsystem: "registry", Name: "installs_total", Help: "installs"}})
	ctr.Inc(1)
	ctr.Inc(2)

	g := p.NewGauge(GaugeOpts{CommonOpts: CommonOpts{Namespace: "tmodel", Name: "active_models", Help: "active models"}})
	g.Set(1)
	g.Add(-1)

	require.NoError(t, p.Health(context.Background()))
}

func TestPrometheusProviderReusesRegisteredCollector(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	opts := CounterOpts{CommonOpts: CommonOpts{Namespace: "tmodel", Name: "dup_total", Help: "dup"}}

	a := p.NewCounter(opts)
	b := p.NewCounter(opts)
	a.Inc(1)
	b.Inc(1)
	// Both handles wrap the same underlying collector; this must not panic
	// or register a duplicate.
	require.NoError(t, p.Health(context.Background()))
}

func TestPrometheusProviderRejectsInvalidName(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	c := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Name: ""}})
	assert.NotPanics(t, func() { c.Inc(1) })
}

func TestNoopProvider(t *testing.T) {
	p := NewNoopProvider()
	c := p.NewCounter(CounterOpts{})
	g := p.NewGauge(GaugeOpts{})
	assert.NotPanics(t, func() {
		c.Inc(1)
		g.Set(1)
		g.Add(1)
	})
	assert.NoError(t, p.Health(context.Background()))
}
