// Package registry holds the single process-wide slot for the active
// traffic model-pair (§4.2). The active pointer is swapped atomically so
// that Registry.Active, the fast path every accumulator constructor calls,
// never blocks on a lock — only Set/Clear briefly touch a mutex, and only
// to serialize concurrent installs against each other. The worker-pool
// broadcast hook runs after that mutex is released.
package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/relaytrace/tmodel/internal/model"
	"github.com/relaytrace/tmodel/internal/parser"
	"github.com/relaytrace/tmodel/internal/telemetry/logging"
	"github.com/relaytrace/tmodel/internal/telemetry/metrics"
)

// ChangeFunc is invoked after a successful Set/Clear with the newly active
// pair (nil when cleared). The worker pool subscribes one of these to
// broadcast an update job to every worker slot (§4.7).
type ChangeFunc func(pair *model.Pair)

// Registry is the mutex-protected active-model slot of §4.2.
type Registry struct {
	active atomic.Pointer[model.Pair]

	telemetryEnabled atomic.Bool

	mu         sync.Mutex // serializes Set/Clear stores and OnChange registration, never reads; the hook runs unlocked
	onChange   ChangeFunc
	logger     logging.Logger
	installCtr metrics.Counter
	clearCtr   metrics.Counter
	failCtr    metrics.Counter
}

// New constructs an empty Registry. telemetryEnabled mirrors
// Config.TelemetryEnabled (§6.4); IsActive is false whenever it is false,
// regardless of whether a model is loaded.
func New(telemetryEnabled bool, logger logging.Logger, provider metrics.Provider) *Registry {
	if logger == nil {
		logger = logging.New(nil)
	}
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}
	r := &Registry{
		logger: logger,
		installCtr: provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{
			Namespace: "tmodel", Subsystem: "registry", Name: "installs_total", Help: "models installed via Set",
		}}),
		clearCtr: provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{
			Namespace: "tmodel", Subsystem: "registry", Name: "clears_total", Help: "models cleared via Set/Clear",
		}}),
		failCtr: provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{
			Namespace: "tmodel", Subsystem: "registry", Name: "parse_failures_total", Help: "Set calls that failed to parse",
		}}),
	}
	r.telemetryEnabled.Store(telemetryEnabled)
	return r
}

// SetTelemetryEnabled updates the master on/off switch (§6.4's
// TelemetryEnabled). Safe for concurrent use.
func (r *Registry) SetTelemetryEnabled(enabled bool) { r.telemetryEnabled.Store(enabled) }

// OnChange registers the broadcast hook invoked after every successful
// Set/Clear. Only one hook is supported; the worker pool is the only
// subscriber in practice.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Set parses blob per §6.1 and installs the result. A parse error leaves
// the previously active model untouched and returns the error; the caller
// must not treat this as fatal (§7). A well-formed FALSE (or malformed
// short) blob clears the registry, equivalent to Clear.
func (r *Registry) Set(ctx context.Context, blob []byte) error {
	pair, ok, err := parser.ParseCommand(blob)
	if err != nil {
		r.logger.WarnCtx(ctx, "model hot-swap rejected", "error", err)
		r.failCtr.Inc(1)
		return err
	}

	r.mu.Lock()
	if ok {
		r.active.Store(pair)
		r.installCtr.Inc(1)
	} else {
		r.active.Store(nil)
		r.clearCtr.Inc(1)
	}
	hook := r.onChange
	r.mu.Unlock()

	if hook != nil {
		hook(r.Active())
	}
	if ok {
		r.logger.InfoCtx(ctx, "model installed", "has_packet_model", pair.Packets != nil, "has_stream_model", pair.Streams != nil)
	} else {
		r.logger.InfoCtx(ctx, "model cleared")
	}
	return nil
}

// Clear removes any installed model-pair, equivalent to Set("FALSE").
func (r *Registry) Clear(ctx context.Context) { _ = r.Set(ctx, []byte("FALSE")) }

// Active returns the currently installed model-pair, or nil. The returned
// pointer must be treated as immutable by callers; only Set ever replaces
// it.
func (r *Registry) Active() *model.Pair { return r.active.Load() }

// IsActive is the lock-free fast path every accumulator constructor calls:
// true iff telemetry is enabled by configuration and a non-empty model-pair
// is installed (§4.2).
func (r *Registry) IsActive() bool {
	if !r.telemetryEnabled.Load() {
		return false
	}
	return !r.Active().Empty()
}
