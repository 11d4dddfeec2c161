// Package check turns parsed documents and their link graph into findings.
package check

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dgallion1/docvet/internal/doctree"
	"github.com/dgallion1/docvet/internal/linkgraph"
	"github.com/dgallion1/docvet/internal/parser"
	"github.com/dgallion1/docvet/internal/report"
)

// Options configures a Checker.
type Options struct {
	// EntryPoints are exempt from the orphan rule (e.g. README.md).
	EntryPoints []string
	// Languages enables the delimiter smoke check per fence tag. Empty
	// enables every known grammar.
	Languages []string
}

// Checker applies the document and graph rules. It holds no per-run state
// and is safe for concurrent use.
type Checker struct {
	entry    map[string]struct{}
	grammars map[string]*Grammar
}

func New(opts Options) (*Checker, error) {
	gs, err := grammarSet(opts.Languages)
	if err != nil {
		return nil, err
	}
	c := &Checker{
		entry:    make(map[string]struct{}, len(opts.EntryPoints)),
		grammars: gs,
	}
	for _, e := range opts.EntryPoints {
		c.entry[NormalizeEntry(e)] = struct{}{}
	}
	return c, nil
}

// NormalizeEntry cleans an entry point path to a document identity.
func NormalizeEntry(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// IsEntryPoint reports whether p is exempt from the orphan rule.
func (c *Checker) IsEntryPoint(p string) bool {
	_, ok := c.entry[p]
	return ok
}

// CheckDocument runs the rules that need only one document: heading level
// skips and the code block smoke check. Unclosed blocks are skipped; the
// parser already reported them.
func (c *Checker) CheckDocument(doc *doctree.Document) []report.Finding {
	var out []report.Finding

	for i := 1; i < len(doc.Headings); i++ {
		prev, h := doc.Headings[i-1], doc.Headings[i]
		if h.Level > prev.Level+1 {
			out = append(out, report.New(report.RuleHeadingSkip, doc.Path, h.Line,
				"heading level skips from H%d to H%d (%q)", prev.Level, h.Level, h.Title))
		}
	}

	for _, b := range doc.CodeBlocks {
		if !b.Closed {
			continue
		}
		g, ok := LookupGrammar(b.Lang)
		if !ok {
			continue
		}
		if _, enabled := c.grammars[g.Name]; !enabled {
			continue
		}
		for _, issue := range g.balance(b.Content) {
			out = append(out, report.New(report.RuleUnbalanced, doc.Path, b.ContentLine(issue.line),
				"%s code block: %s", g.Name, issue.msg))
		}
	}
	return out
}

// CheckGraph runs the rules that need every document: dangling links,
// broken anchors and orphans.
func (c *Checker) CheckGraph(res *linkgraph.Result) []report.Finding {
	var out []report.Finding

	for _, r := range res.Resolutions {
		switch r.Status {
		case linkgraph.StatusMissing:
			msg := fmt.Sprintf("link target %q does not resolve to a document", r.Link.Raw)
			if strings.TrimSpace(r.Link.Raw) == "" {
				msg = "link has an empty target"
			}
			out = append(out, report.New(report.RuleDanglingLink, r.Source, r.Link.Line, "%s", msg))
		case linkgraph.StatusBrokenAnchor:
			out = append(out, report.New(report.RuleBrokenAnchor, r.Source, r.Link.Line,
				"anchor #%s not found in %s", r.Link.Fragment, r.Target))
		}
	}

	for _, p := range res.Graph.Nodes() {
		if c.IsEntryPoint(p) || res.Graph.InDegree(p) > 0 {
			continue
		}
		out = append(out, report.New(report.RuleOrphan, p, 0, "document is not linked from any other document"))
	}
	return out
}

// ParseFailure turns a parser error into a finding for the document.
func ParseFailure(p string, err error) report.Finding {
	var ube *parser.UnterminatedBlockError
	if errors.As(err, &ube) {
		return report.New(report.RuleUnterminatedBlock, p, ube.Line, "%s", ube.Error())
	}
	return report.New(report.RuleInternal, p, 0, "could not check document: %v", err)
}
