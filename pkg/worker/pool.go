// Package worker implements the clip engine's owned worker threads:
// the recorder-finalize worker, an audio-cache worker that
// loads source material off the audio thread, and a pre-buffer worker
// that keeps every registered PreBuffer's ring topped up. Lifecycle is
// a context.Context + sync.WaitGroup pair per goroutine, the standard
// cancel-and-join shape for a supervised background processing
// goroutine.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/justyntemme/clipgrid/pkg/enginelog"
	"github.com/justyntemme/clipgrid/pkg/recorder"
	"github.com/justyntemme/clipgrid/pkg/supplier"
)

// CacheLoadJob asks the audio-cache worker to build a Supplier from a
// file off the audio thread (e.g. a newly-dropped-in clip's source
// material), replying on Response.
type CacheLoadJob struct {
	Path     string
	Load     func(path string) (supplier.Supplier, error)
	Response chan CacheLoadResult
}

// CacheLoadResult is the audio-cache worker's reply to a CacheLoadJob.
type CacheLoadResult struct {
	Source supplier.Supplier
	Err    error
}

// Refiller is the subset of *supplier.PreBuffer the pre-buffer worker
// needs; satisfied by every PreBuffer a running chain creates.
type Refiller interface{ Refill() }

// Pool owns the engine's three worker goroutines — recorder-finalize,
// audio-cache, and pre-buffer — and their clean shutdown.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *enginelog.Logger

	finalizeJobs chan recorder.FinishAudioRecording
	cacheJobs    chan CacheLoadJob

	refillMu       sync.Mutex
	refillTargets  []Refiller
	refillInterval time.Duration
}

// New starts the pool's three goroutines. refillInterval is how often
// the pre-buffer worker sweeps every registered Refiller (a few
// milliseconds at typical project rates, a 5ms/200Hz background
// processing cadence).
func New(log *enginelog.Logger, refillInterval time.Duration) *Pool {
	if refillInterval <= 0 {
		refillInterval = 5 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:            ctx,
		cancel:         cancel,
		log:            log,
		finalizeJobs:   make(chan recorder.FinishAudioRecording, 32),
		cacheJobs:      make(chan CacheLoadJob, 32),
		refillInterval: refillInterval,
	}
	p.wg.Add(3)
	go p.finalizeWorker()
	go p.cacheWorker()
	go p.prebufferWorker()
	return p
}

// Submit implements recorder.FinalizeSubmitter: it hands a finalize
// job to the worker goroutine without the recorder package needing to
// import worker.
func (p *Pool) Submit(job recorder.FinishAudioRecording) {
	select {
	case <-p.ctx.Done():
		job.Response <- recorder.FinalizeResult{Err: context.Canceled}
		return
	default:
	}
	select {
	case p.finalizeJobs <- job:
	case <-p.ctx.Done():
		job.Response <- recorder.FinalizeResult{Err: context.Canceled}
	}
}

// SubmitCacheLoad hands off a file load; never called from the audio
// thread, since the channel send can block under load.
func (p *Pool) SubmitCacheLoad(job CacheLoadJob) {
	select {
	case <-p.ctx.Done():
		job.Response <- CacheLoadResult{Err: context.Canceled}
		return
	default:
	}
	select {
	case p.cacheJobs <- job:
	case <-p.ctx.Done():
		job.Response <- CacheLoadResult{Err: context.Canceled}
	}
}

// RegisterRefiller adds pb to the set the pre-buffer worker sweeps
// every tick. Safe to call concurrently with the worker running.
func (p *Pool) RegisterRefiller(pb Refiller) {
	p.refillMu.Lock()
	defer p.refillMu.Unlock()
	p.refillTargets = append(p.refillTargets, pb)
}

func (p *Pool) finalizeWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.finalizeJobs:
			source, err := job.Sink.Finalize()
			if err != nil && p.log != nil {
				p.log.Warn("recorder finalize failed: %v", err)
			}
			job.Response <- recorder.FinalizeResult{Source: source, Err: err}
		}
	}
}

func (p *Pool) cacheWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.cacheJobs:
			source, err := job.Load(job.Path)
			if err != nil && p.log != nil {
				p.log.Warn("cache load of %q failed: %v", job.Path, err)
			}
			job.Response <- CacheLoadResult{Source: source, Err: err}
		}
	}
}

func (p *Pool) prebufferWorker() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.refillInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.refillMu.Lock()
			targets := append([]Refiller(nil), p.refillTargets...)
			p.refillMu.Unlock()
			for _, r := range targets {
				r.Refill()
			}
		}
	}
}

// Shutdown cancels every worker goroutine and joins them. Worker loops
// exit when their context is canceled, the idiomatic Go equivalent of
// dropping a channel to signal a receiver to stop.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
