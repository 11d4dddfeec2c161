package report

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Severity indicates how serious a finding is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifies the check that produced a finding.
type Rule string

const (
	RuleUnterminatedBlock Rule = "unterminated-code-block"
	RuleInternal          Rule = "internal-error"
	RuleHeadingSkip       Rule = "heading-skip"
	RuleDanglingLink      Rule = "dangling-link"
	RuleBrokenAnchor      Rule = "broken-anchor"
	RuleUnbalanced        Rule = "unbalanced-delimiter"
	RuleOrphan            Rule = "orphan"
)

// ruleRank orders findings that share a path and line.
var ruleRank = map[Rule]int{
	RuleUnterminatedBlock: 0,
	RuleInternal:          1,
	RuleHeadingSkip:       2,
	RuleDanglingLink:      3,
	RuleBrokenAnchor:      4,
	RuleUnbalanced:        5,
	RuleOrphan:            6,
}

// Severity is the default severity of findings produced by r.
func (r Rule) Severity() Severity {
	switch r {
	case RuleHeadingSkip, RuleOrphan:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Finding is one reported issue. Line is 0 for findings about a document
// as a whole.
type Finding struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path" yaml:"path"`
	Line     int      `json:"line" yaml:"line"`
	Rule     Rule     `json:"rule" yaml:"rule"`
	Message  string   `json:"message" yaml:"message"`
}

// New builds a finding with the rule's default severity.
func New(rule Rule, path string, line int, format string, args ...any) Finding {
	return Finding{
		Severity: rule.Severity(),
		Path:     path,
		Line:     line,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	}
}

// String renders the line-oriented form severity:path:line:message.
func (f Finding) String() string {
	return fmt.Sprintf("%s:%s:%d:%s", f.Severity, f.Path, f.Line, f.Message)
}

func compareFindings(a, b Finding) int {
	return cmp.Or(
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(ruleRank[a.Rule], ruleRank[b.Rule]),
		cmp.Compare(a.Message, b.Message),
		cmp.Compare(a.Severity, b.Severity),
	)
}

// Builder accumulates findings from concurrent checkers. Order of Add calls
// does not matter; Finalize sorts.
type Builder struct {
	mu        sync.Mutex
	findings  []Finding
	documents []string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends findings.
func (b *Builder) Add(f ...Finding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.findings = append(b.findings, f...)
}

// AddDocuments records documents that took part in the run.
func (b *Builder) AddDocuments(paths ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.documents = append(b.documents, paths...)
}

// Finalize sorts and freezes the findings into a Report. The builder must
// not be used afterwards.
func (b *Builder) Finalize() *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	findings := slices.Clone(b.findings)
	slices.SortStableFunc(findings, compareFindings)

	docs := slices.Clone(b.documents)
	slices.Sort(docs)
	docs = slices.Compact(docs)

	return &Report{findings: findings, documents: docs}
}

// Report is an immutable, ordered set of findings.
type Report struct {
	findings  []Finding
	documents []string
}

// Findings returns a copy of the ordered findings.
func (r *Report) Findings() []Finding {
	return slices.Clone(r.findings)
}

// Documents returns the sorted document paths the run covered.
func (r *Report) Documents() []string {
	return slices.Clone(r.documents)
}

// Counts tallies findings by severity.
type Counts struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
}

// Summary aggregates a report.
type Summary struct {
	Documents   int               `json:"documents" yaml:"documents"`
	Errors      int               `json:"errors" yaml:"errors"`
	Warnings    int               `json:"warnings" yaml:"warnings"`
	PerDocument map[string]Counts `json:"per_document" yaml:"per_document"`
}

// Summary counts findings per severity, overall and per document.
func (r *Report) Summary() Summary {
	s := Summary{
		Documents:   len(r.documents),
		PerDocument: make(map[string]Counts, len(r.documents)),
	}
	for _, d := range r.documents {
		s.PerDocument[d] = Counts{}
	}
	for _, f := range r.findings {
		c := s.PerDocument[f.Path]
		switch f.Severity {
		case SeverityError:
			s.Errors++
			c.Errors++
		case SeverityWarning:
			s.Warnings++
			c.Warnings++
		}
		s.PerDocument[f.Path] = c
	}
	return s
}

// Failed reports whether any finding is an error. Warnings alone never fail
// a run.
func (r *Report) Failed() bool {
	for _, f := range r.findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Process exit codes for the CLI.
const (
	ExitOK       = 0
	ExitFindings = 1
	ExitFatal    = 2
)

// ExitCode maps the report to a process exit status.
func (r *Report) ExitCode() int {
	if r.Failed() {
		return ExitFindings
	}
	return ExitOK
}
