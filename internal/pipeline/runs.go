package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docvet/internal/loader"
	"github.com/dgallion1/docvet/internal/report"
)

// RunStatus represents the state of a queued check.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusLoading   RunStatus = "loading"
	StatusChecking  RunStatus = "checking"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run tracks one check requested through the API.
type Run struct {
	mu sync.Mutex

	ID          string    `json:"run_id"`
	Root        string    `json:"root"`
	EntryPoints []string  `json:"entry_points"`
	Status      RunStatus `json:"status"`
	Phase       string    `json:"phase"`

	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	report   *report.Report
	err      string
	duration time.Duration
}

// NewRun returns a queued run with a fresh ID.
func NewRun(root string, entryPoints []string) *Run {
	now := time.Now()
	return &Run{
		ID:          uuid.NewString(),
		Root:        root,
		EntryPoints: slices.Clone(entryPoints),
		Status:      StatusQueued,
		Phase:       "queued",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// Fail marks the run failed with a run-level error.
func (r *Run) Fail(phase string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusFailed
	r.Phase = phase
	r.err = err.Error()
	r.UpdatedAt = time.Now()
}

// Complete stores the finished report.
func (r *Run) Complete(rep *report.Report, fingerprint string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = rep
	r.Fingerprint = fingerprint
	r.duration = d
	r.Status = StatusCompleted
	r.Phase = "done"
	r.UpdatedAt = time.Now()
}

// Report returns the finished report, or nil while the run is pending or
// after it failed.
func (r *Run) Report() *report.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string          `json:"run_id"`
	Root        string          `json:"root"`
	EntryPoints []string        `json:"entry_points"`
	Status      RunStatus       `json:"status"`
	Phase       string          `json:"phase"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
	ExitCode    *int            `json:"exit_code,omitempty"`
	Summary     *report.Summary `json:"summary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.EntryPoints
	if entries == nil {
		entries = []string{}
	}
	snap := RunSnapshot{
		ID:          r.ID,
		Root:        r.Root,
		EntryPoints: slices.Clone(entries),
		Status:      r.Status,
		Phase:       r.Phase,
		Fingerprint: r.Fingerprint,
		Error:       r.err,
		DurationMs:  r.duration.Milliseconds(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.report != nil {
		s := r.report.Summary()
		code := r.report.ExitCode()
		snap.Summary = &s
		snap.ExitCode = &code
	}
	return snap
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes expired runs. Runs still queued or in progress are kept.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		done := run.Status == StatusCompleted || run.Status == StatusFailed
		expired := now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if done && expired {
			delete(s.runs, id)
		}
	}
}

// Fingerprint hashes the paths and contents of every file and asset of a
// corpus. Identical trees give identical fingerprints, and so identical
// reports.
func Fingerprint(c *loader.Corpus) string {
	h := sha256.New()
	for _, f := range c.Files {
		fmt.Fprintf(h, "doc %s %d\n", f.Path, len(f.Data))
		h.Write(f.Data)
	}
	for _, a := range c.Assets {
		fmt.Fprintf(h, "asset %s\n", a)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
