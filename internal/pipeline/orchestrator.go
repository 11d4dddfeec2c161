package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docvet/internal/config"
)

// Orchestrator runs queued checks for serve mode.
type Orchestrator struct {
	runs  *RunStore
	stats *RunStats
	queue chan *Run
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the run queue. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runs:  NewRunStore(cfg.RunTTL),
		stats: NewRunStats(cfg.RunTTL),
		queue: make(chan *Run, cfg.MaxQueueSize),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches the run worker and the cleanup loop. Runs are processed
// one at a time; each run fans out over its documents.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		w := NewWorker(o.cfg, o.stats, o.log)
		for {
			select {
			case <-workerCtx.Done():
				return
			case run, ok := <-o.queue:
				if !ok {
					return
				}
				w.Process(workerCtx, run)
			}
		}
	}()

	// Start run store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a run of the configured root. entryPoints, if non-empty,
// replaces the configured entry points for this run only.
func (o *Orchestrator) Submit(entryPoints []string) (*Run, error) {
	run := NewRun(o.cfg.Root, entryPoints)
	o.runs.Put(run)
	select {
	case o.queue <- run:
		return run, nil
	default:
		run.Fail("queued", fmt.Errorf("queue_full"))
		return run, fmt.Errorf("run queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling run statistics.
func (o *Orchestrator) Stats() *RunStats {
	return o.stats
}
