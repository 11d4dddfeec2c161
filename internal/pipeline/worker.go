package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/docvet/internal/config"
	"github.com/dgallion1/docvet/internal/loader"
)

// Worker processes queued runs.
type Worker struct {
	cfg   config.Config
	stats *RunStats
	log   *slog.Logger
}

func NewWorker(cfg config.Config, stats *RunStats, log *slog.Logger) *Worker {
	return &Worker{cfg: cfg, stats: stats, log: log}
}

// Process loads the run's root and checks it.
func (w *Worker) Process(ctx context.Context, run *Run) {
	log := w.log.With("run_id", run.ID, "root", run.Root)
	start := time.Now()

	cfg := w.cfg
	cfg.Root = run.Root
	if len(run.EntryPoints) > 0 {
		cfg.EntryPoints = run.EntryPoints
	}

	// Phase 1: Load
	run.SetStatus(StatusLoading, "loading")
	corpus, err := loader.Load(ctx, cfg.Root, cfg.LoaderOptions())
	if err != nil {
		log.Error("load failed", "error", err)
		run.Fail("loading", err)
		return
	}
	log.Info("loaded corpus", "documents", len(corpus.Files), "assets", len(corpus.Assets))

	// Phase 2: Check
	run.SetStatus(StatusChecking, "checking")
	v, err := NewValidator(cfg, log)
	if err != nil {
		log.Error("bad check options", "error", err)
		run.Fail("checking", err)
		return
	}
	rep, err := v.Validate(ctx, corpus)
	if err != nil {
		log.Error("check interrupted", "error", err)
		run.Fail("checking", err)
		return
	}

	d := time.Since(start)
	if w.stats != nil {
		w.stats.Record(d, len(corpus.Files), rep.Failed())
	}
	run.Complete(rep, Fingerprint(corpus), d)
}
