package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docvet/internal/check"
	"github.com/dgallion1/docvet/internal/config"
	"github.com/dgallion1/docvet/internal/doctree"
	"github.com/dgallion1/docvet/internal/linkgraph"
	"github.com/dgallion1/docvet/internal/loader"
	"github.com/dgallion1/docvet/internal/parser"
	"github.com/dgallion1/docvet/internal/report"
)

// Validator runs one check over a loaded corpus.
type Validator struct {
	checker *check.Checker
	cfg     config.Config
	log     *slog.Logger
}

func NewValidator(cfg config.Config, log *slog.Logger) (*Validator, error) {
	c, err := check.New(cfg.CheckOptions())
	if err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Validator{checker: c, cfg: cfg, log: log}, nil
}

type docResult struct {
	idx      int
	doc      *doctree.Document
	findings []report.Finding
}

// Validate parses and checks every file of corpus. Documents are parsed and
// checked on a bounded pool; graph rules run once every document is parsed.
// The only error is cancellation of ctx.
func (v *Validator) Validate(ctx context.Context, corpus *loader.Corpus) (*report.Report, error) {
	start := time.Now()
	log := v.log.With("root", corpus.Root)

	results := make(chan docResult, len(corpus.Files))
	sem := make(chan struct{}, v.cfg.Workers)

	launched := 0
launch:
	for i, f := range corpus.Files {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break launch
		}
		launched++
		go func(i int, f loader.File) {
			defer func() { <-sem }()
			results <- v.processFile(i, f)
		}(i, f)
	}

	docs := make([]*doctree.Document, len(corpus.Files))
	b := report.NewBuilder()
	for range launched {
		r := <-results
		docs[r.idx] = r.doc
		b.Add(r.findings...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := linkgraph.Build(docs, v.cfg.LinkOptions(corpus.Assets))
	b.Add(v.checker.CheckGraph(res)...)
	b.AddDocuments(corpus.Paths()...)

	rep := b.Finalize()
	s := rep.Summary()
	log.Info("check complete",
		"documents", s.Documents,
		"edges", res.Graph.EdgeCount(),
		"errors", s.Errors,
		"warnings", s.Warnings,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}

// processFile parses and checks one file. A panic becomes an internal-error
// finding and the document joins the graph with no links.
func (v *Validator) processFile(idx int, f loader.File) (res docResult) {
	res.idx = idx
	log := v.log.With("path", f.Path)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while checking document", "panic", r)
			res.doc = &doctree.Document{Path: f.Path}
			res.findings = append(res.findings, check.ParseFailure(f.Path, fmt.Errorf("panic: %v", r)))
		}
	}()

	p, err := parser.ForFile(f.Path)
	if err != nil {
		res.doc = &doctree.Document{Path: f.Path}
		res.findings = append(res.findings, check.ParseFailure(f.Path, err))
		return res
	}

	doc, err := p.Parse(bytes.NewReader(f.Data), f.Path)
	if err != nil {
		log.Debug("parse failed", "error", err)
		res.findings = append(res.findings, check.ParseFailure(f.Path, err))
	}
	if doc == nil {
		doc = &doctree.Document{Path: f.Path}
	}
	res.doc = doc
	res.findings = append(res.findings, v.checker.CheckDocument(doc)...)

	log.Debug("checked document",
		"headings", len(doc.Headings),
		"links", len(doc.Links),
		"code_blocks", len(doc.CodeBlocks),
		"findings", len(res.findings),
	)
	return res
}
