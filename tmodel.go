// Package tmodel is the embedding entry point for the traffic-analysis
// telemetry engine: it wires the registry, the optional decode worker
// pool, and the accumulator constructors behind one facade, mirroring the
// shape of an engine type composed over independent subsystems.
package tmodel

import (
	"context"
	"log/slog"

	"github.com/relaytrace/tmodel/internal/accumulator"
	"github.com/relaytrace/tmodel/internal/decoder"
	"github.com/relaytrace/tmodel/internal/model"
	"github.com/relaytrace/tmodel/internal/registry"
	"github.com/relaytrace/tmodel/internal/telemetry/logging"
	"github.com/relaytrace/tmodel/internal/telemetry/metrics"
	"github.com/relaytrace/tmodel/internal/worker"
)

// Config holds the operator-tunable knobs (§6.4).
type Config struct {
	// TelemetryEnabled is the master on/off switch; Registry.IsActive is
	// false whenever this is false regardless of whether a model is loaded.
	TelemetryEnabled bool

	// NumDecoderWorkers is the size of the decode worker pool. 0 disables
	// the pool and runs every decode inline on the calling goroutine.
	NumDecoderWorkers int

	// WorkerQueueDepth bounds each worker's FIFO job channel.
	WorkerQueueDepth int

	// DisableDNSAccounting is the exposed form of the original's DNS
	// accounting kill-switch (open question, SPEC_FULL.md). Default false:
	// DNS-related observations stay active.
	DisableDNSAccounting bool

	// Logger and MetricsProvider back the ambient stack. Both default to a
	// no-op/standard implementation when nil.
	Logger          *slog.Logger
	MetricsProvider metrics.Provider
}

// Defaults returns the zero-tuning configuration: telemetry enabled,
// inline decoding (no worker pool), DNS accounting active.
func Defaults() Config {
	return Config{
		TelemetryEnabled:     true,
		NumDecoderWorkers:    0,
		WorkerQueueDepth:     64,
		DisableDNSAccounting: false,
	}
}

// Emitter is the boundary the engine calls into once per finalised
// accumulator (§6.3). Implementations forward the encoded path string to
// the relay's control channel; the engine never inspects its return value.
type Emitter interface {
	EmitViterbiPackets(path string)
	EmitViterbiStreams(path string)
}

// Engine composes the registry, the optional worker pool, and the
// accumulator constructors behind a single embedding surface.
type Engine struct {
	cfg      Config
	registry *registry.Registry
	pool     *worker.Pool
	logger   logging.Logger
	emitter  Emitter
}

// New constructs an Engine. emitter receives every decoded path. A nil
// emitter is tolerated: decoded paths are then discarded.
func New(cfg Config, emitter Emitter) (*Engine, error) {
	logger := logging.New(cfg.Logger)
	provider := cfg.MetricsProvider
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}

	reg := registry.New(cfg.TelemetryEnabled, logger, provider)
	e := &Engine{cfg: cfg, registry: reg, logger: logger, emitter: emitter}

	if cfg.NumDecoderWorkers > 0 {
		pool, err := worker.New(cfg.NumDecoderWorkers, cfg.WorkerQueueDepth, reg.Active(), logger, provider)
		if err != nil {
			return nil, err
		}
		e.pool = pool
		reg.OnChange(pool.Broadcast)
	}
	return e, nil
}

// SetModel installs or clears the active model-pair from a raw
// control-channel blob (§6.1). A parse error leaves the previous model
// untouched.
func (e *Engine) SetModel(ctx context.Context, blob []byte) error {
	return e.registry.Set(ctx, blob)
}

// Clear removes the active model-pair.
func (e *Engine) Clear(ctx context.Context) { e.registry.Clear(ctx) }

// SetTelemetryEnabled updates the master on/off switch.
func (e *Engine) SetTelemetryEnabled(enabled bool) { e.registry.SetTelemetryEnabled(enabled) }

// ReadyFD exposes the worker pool's reply-pipe read end for a relay event
// loop to poll on, or nil when the pool is disabled (inline decoding never
// needs readiness signalling).
func (e *Engine) ReadyFD() interface{ Fd() uintptr } {
	if e.pool == nil {
		return nil
	}
	return e.pool.ReadyFD()
}

// Pump drains every reply currently queued by the worker pool and invokes
// the emitter for each (§4.7). A no-op when the pool is disabled, since
// inline decodes emit synchronously from Free*.
func (e *Engine) Pump() {
	if e.pool == nil {
		return
	}
	e.pool.Drain(func(kind worker.Kind, path string) {
		if e.emitter == nil {
			return
		}
		if kind == worker.KindDecodePacket {
			e.emitter.EmitViterbiPackets(path)
		} else {
			e.emitter.EmitViterbiStreams(path)
		}
	})
}

// NewPacketAccumulator returns a new packet accumulator, or nil if
// telemetry is disabled or no packet model is loaded — a permanent
// "don't record" decision for the life of this accumulator (§4.3).
func (e *Engine) NewPacketAccumulator() *accumulator.Packet {
	if !e.registry.IsActive() || e.activeHMM(true) == nil {
		return nil
	}
	return accumulator.NewPacket()
}

// NewStreamAccumulator returns a new stream accumulator, or nil under the
// same gating as NewPacketAccumulator but checked against the stream
// model (§4.4). isDNS lets callers honour Config.DisableDNSAccounting by
// simply not constructing an accumulator for DNS-only streams when the
// operator has disabled that accounting.
func (e *Engine) NewStreamAccumulator(isDNS bool) *accumulator.Stream {
	if isDNS && e.cfg.DisableDNSAccounting {
		return nil
	}
	if !e.registry.IsActive() || e.activeHMM(false) == nil {
		return nil
	}
	return accumulator.NewStream()
}

// FreePacket finalises a packet accumulator and dispatches its decode
// (§4.5): to the worker pool if configured, otherwise inline on the
// calling goroutine, emitting the result directly.
func (e *Engine) FreePacket(acc *accumulator.Packet) {
	if acc == nil {
		return
	}
	obs := acc.Finalize()
	if e.pool != nil {
		e.pool.SubmitDecode(worker.KindDecodePacket, obs)
		return
	}
	e.emitPacket(e.decodeInline(e.activeHMM(true), obs))
}

// FreeStream finalises a stream accumulator and dispatches its decode,
// mirroring FreePacket for the stream track.
func (e *Engine) FreeStream(acc *accumulator.Stream) {
	if acc == nil {
		return
	}
	obs := acc.Finalize()
	if e.pool != nil {
		e.pool.SubmitDecode(worker.KindDecodeStream, obs)
		return
	}
	e.emitStream(e.decodeInline(e.activeHMM(false), obs))
}

// activeHMM returns the packet or stream track of whatever is currently
// installed, or nil if nothing is installed.
func (e *Engine) activeHMM(packets bool) *model.HMM {
	pair := e.registry.Active()
	if pair == nil {
		return nil
	}
	if packets {
		return pair.Packets
	}
	return pair.Streams
}

func (e *Engine) decodeInline(h *model.HMM, obs []accumulator.Record) string {
	if h == nil {
		return decoder.EmptyPath
	}
	steps, err := decoder.Decode(h, obs)
	if err != nil {
		return decoder.EmptyPath
	}
	return decoder.EncodePath(steps)
}

func (e *Engine) emitPacket(path string) {
	if e.emitter != nil {
		e.emitter.EmitViterbiPackets(path)
	}
}

func (e *Engine) emitStream(path string) {
	if e.emitter != nil {
		e.emitter.EmitViterbiStreams(path)
	}
}

// Close stops the worker pool, if any, draining in-flight decodes before
// returning (§9: shutdown must drain or discard pending jobs, no
// mid-decode timeout).
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}
