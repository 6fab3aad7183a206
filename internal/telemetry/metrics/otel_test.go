package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOTelProviderCounterAndGauge(t *testing.T) {
	p := NewOTelProvider(OTelProviderOptions{ServiceName: "tmodel-test"})

	c := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Namespace: "tmodel", Name: "decodes_total"}})
	assert.NotPanics(t, func() { c.Inc(1) })

	g := p.NewGauge(GaugeOpts{CommonOpts: CommonOpts{Namespace: "tmodel", Name: "active_models"}})
	assert.NotPanics(t, func() {
		g.Set(3)
		g.Set(5)
		g.Add(-2)
	})

	assert.NoError(t, p.Health(context.Background()))
}
