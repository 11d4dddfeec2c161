package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docvet/internal/pipeline"
	"github.com/dgallion1/docvet/internal/report"
)

const maxRunRequestBytes = 64 << 10

type runRequest struct {
	EntryPoints []string `json:"entry_points"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRunRequestBytes)

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	run, err := s.orchestrator.Submit(req.EntryPoints)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/runs/%s", run.ID),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

var reportContentTypes = map[report.Format]string{
	report.FormatText: "text/plain; charset=utf-8",
	report.FormatJSON: "application/json",
	report.FormatYAML: "application/yaml",
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(report.FormatJSON)
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	contentType, ok := reportContentTypes[format]
	if !ok {
		jsonError(w, fmt.Sprintf("format %q is not served over http", format), http.StatusBadRequest)
		return
	}

	rep := run.Report()
	if rep == nil {
		snap := run.Snapshot()
		jsonError(w, fmt.Sprintf("run is %s", snap.Status), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Docvet-Exit-Code", fmt.Sprint(rep.ExitCode()))
	if err := report.Write(w, rep, format); err != nil {
		s.log.Error("write report", "run_id", run.ID, "error", err)
	}
}
