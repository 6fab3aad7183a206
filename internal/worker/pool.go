// Package worker implements the optional decode worker pool and its reply
// pump (§4.7). Each worker owns a private deep copy of the model-pair,
// kept in sync with the registry by queued update jobs; decode jobs and
// update jobs execute in FIFO order per worker so that a decode enqueued
// before a hot-swap always sees the old model and one enqueued after
// always sees the new one.
package worker

import (
	"context"
	"os"
	"sync"

	"github.com/relaytrace/tmodel/internal/accumulator"
	"github.com/relaytrace/tmodel/internal/decoder"
	"github.com/relaytrace/tmodel/internal/model"
	"github.com/relaytrace/tmodel/internal/telemetry/logging"
	"github.com/relaytrace/tmodel/internal/telemetry/metrics"
)

// Kind distinguishes the two job shapes a worker FIFO carries (§4.7).
type Kind int

const (
	KindDecodePacket Kind = iota
	KindDecodeStream
	KindUpdate
)

// job is one FIFO entry. update jobs carry the new pair (nil clears it);
// decode jobs carry the observation sequence to run through the decoder.
type job struct {
	kind Kind
	pair *model.Pair
	obs  []accumulator.Record
}

// result is one completed decode job's outcome, queued for the reply pump.
type result struct {
	path string
	kind Kind
}

// Pool is a fixed set of decode worker goroutines, each with its own FIFO
// job queue and private model-pair copy (§4.7, §9's "strictly a tree"
// ownership graph: each worker owns its copy outright).
type Pool struct {
	queues []chan job
	next   uint64
	nextMu sync.Mutex

	reply      chan *result
	replyPipeR *os.File
	replyPipeW *os.File

	logger logging.Logger

	decodedCtr metrics.Counter
	failedCtr  metrics.Counter

	wg sync.WaitGroup
}

// New starts n worker goroutines, each initialised with a deep copy of
// initial (nil is valid: a worker may run with no model loaded and simply
// produces the empty-path sentinel for every decode it is handed, per
// §4.7's "explicitly legal for a decode to run while the worker's private
// model is none"). queueDepth bounds each worker's FIFO channel.
func New(n, queueDepth int, initial *model.Pair, logger logging.Logger, provider metrics.Provider) (*Pool, error) {
	if logger == nil {
		logger = logging.New(nil)
	}
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		queues:     make([]chan job, n),
		reply:      make(chan *result, queueDepth*n+1),
		replyPipeR: r,
		replyPipeW: w,
		logger:     logger,
		decodedCtr: provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{
			Namespace: "tmodel", Subsystem: "worker", Name: "decodes_total", Help: "decode jobs completed by workers",
		}}),
		failedCtr: provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{
			Namespace: "tmodel", Subsystem: "worker", Name: "decode_failures_total", Help: "decode jobs that produced the empty-path sentinel",
		}}),
	}

	for i := 0; i < n; i++ {
		p.queues[i] = make(chan job, queueDepth)
		p.wg.Add(1)
		go p.run(i, initial.DeepCopy())
	}
	return p, nil
}

// ReadyFD exposes the read end of the reply pipe so a relay event loop can
// poll/select on it (§4.7's "single main-thread callback bound to a
// readable descriptor owned by the reply queue").
func (p *Pool) ReadyFD() *os.File { return p.replyPipeR }

func (p *Pool) pick() int {
	p.nextMu.Lock()
	i := int(p.next % uint64(len(p.queues)))
	p.next++
	p.nextMu.Unlock()
	return i
}

// Broadcast enqueues one update job per worker (§4.7). pair may be nil,
// mirroring a registry Clear.
func (p *Pool) Broadcast(pair *model.Pair) {
	for _, q := range p.queues {
		q <- job{kind: KindUpdate, pair: pair}
	}
}

// SubmitDecode enqueues a decode job of the given kind on one worker's
// FIFO, round-robin. Ordering relative to that worker's other jobs
// (including updates) is preserved; ordering across workers is not.
func (p *Pool) SubmitDecode(kind Kind, obs []accumulator.Record) {
	p.queues[p.pick()] <- job{kind: kind, obs: obs}
}

func (p *Pool) run(id int, pair *model.Pair) {
	defer p.wg.Done()
	for j := range p.queues[id] {
		switch j.kind {
		case KindUpdate:
			pair = j.pair.DeepCopy()
			continue
		default:
			path := decodeOne(pair, j.kind, j.obs)
			if path == decoder.EmptyPath {
				p.failedCtr.Inc(1)
			} else {
				p.decodedCtr.Inc(1)
			}
			p.reply <- &result{path: path, kind: j.kind}
			if _, err := p.replyPipeW.Write([]byte{0}); err != nil {
				p.logger.WarnCtx(context.Background(), "reply pipe write failed", "error", err)
			}
		}
	}
}

func decodeOne(pair *model.Pair, kind Kind, obs []accumulator.Record) string {
	if pair == nil {
		return decoder.EmptyPath
	}
	var h *model.HMM
	if kind == KindDecodePacket {
		h = pair.Packets
	} else {
		h = pair.Streams
	}
	if h == nil {
		return decoder.EmptyPath
	}
	steps, err := decoder.Decode(h, obs)
	if err != nil {
		return decoder.EmptyPath
	}
	return decoder.EncodePath(steps)
}

// Drain runs fn for every reply currently available without blocking; it
// is the body of the reply pump (§4.7). Callers invoke this when ReadyFD
// becomes readable. The single byte read per completion keeps the pipe
// buffer from filling; losing a byte is harmless since Drain always
// empties the channel fully.
func (p *Pool) Drain(fn func(kind Kind, path string)) {
	for {
		select {
		case r := <-p.reply:
			buf := make([]byte, 1)
			_, _ = p.replyPipeR.Read(buf)
			fn(r.kind, r.path)
		default:
			return
		}
	}
}

// Close stops accepting new work and waits for all workers to drain their
// queues. Per §9's cancellation policy there is no mid-job timeout: a
// decode in flight always runs to completion.
func (p *Pool) Close() {
	for _, q := range p.queues {
		close(q)
	}
	p.wg.Wait()
	close(p.reply)
	_ = p.replyPipeW.Close()
	_ = p.replyPipeR.Close()
}
