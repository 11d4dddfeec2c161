// Package linkgraph resolves the links of a document set against the set's
// identities and builds the document reference graph.
package linkgraph

import (
	"path"
	"slices"
	"strings"

	"github.com/dgallion1/docvet/internal/doctree"
	"github.com/dgallion1/docvet/internal/slug"
)

// Status is the outcome of resolving one link.
type Status int

const (
	StatusResolved Status = iota
	StatusExternal
	StatusAsset
	StatusMissing
	StatusBrokenAnchor
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusExternal:
		return "external"
	case StatusAsset:
		return "asset"
	case StatusMissing:
		return "missing"
	case StatusBrokenAnchor:
		return "broken_anchor"
	default:
		return "unknown"
	}
}

// Resolution pairs a link with where it landed.
type Resolution struct {
	Source string // Document the link appears in
	Link   doctree.Link
	Target string // Resolved document or asset path; empty if missing or external
	Status Status
}

// Options configures resolution.
type Options struct {
	Slug       slug.Options
	Assets     []string // Non-document files links may point at
	IndexFiles []string // Tried, in order, for links naming a directory
}

// DefaultIndexFiles are the conventional directory landing pages.
var DefaultIndexFiles = []string{"README.md", "index.md"}

// Result is the output of Build.
type Result struct {
	Graph       *Graph
	Resolutions []Resolution // Sorted by source path, then link order
}

// Unresolved returns the resolutions that are missing or have a broken anchor.
func (r *Result) Unresolved() []Resolution {
	var out []Resolution
	for _, res := range r.Resolutions {
		if res.Status == StatusMissing || res.Status == StatusBrokenAnchor {
			out = append(out, res)
		}
	}
	return out
}

type resolver struct {
	docs    map[string]*doctree.Document
	anchors map[string]map[string]struct{}
	assets  map[string]struct{}
	index   []string
}

// Build resolves every link of docs and records document-to-document edges.
// Cycles are fine; they are just edges.
func Build(docs []*doctree.Document, opts Options) *Result {
	r := &resolver{
		docs:    make(map[string]*doctree.Document, len(docs)),
		anchors: make(map[string]map[string]struct{}, len(docs)),
		assets:  make(map[string]struct{}, len(opts.Assets)),
		index:   opts.IndexFiles,
	}
	if len(r.index) == 0 {
		r.index = DefaultIndexFiles
	}
	if opts.Slug == (slug.Options{}) {
		opts.Slug = slug.DefaultOptions()
	}
	for _, a := range opts.Assets {
		r.assets[a] = struct{}{}
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		r.docs[d.Path] = d
		r.anchors[d.Path] = anchorSet(d, opts.Slug)
		paths = append(paths, d.Path)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	res := &Result{Graph: newGraph(paths)}
	for _, p := range paths {
		d := r.docs[p]
		for _, l := range d.Links {
			rv := r.resolve(d.Path, l)
			if rv.Status == StatusResolved || rv.Status == StatusBrokenAnchor {
				res.Graph.addEdge(d.Path, rv.Target)
			}
			res.Resolutions = append(res.Resolutions, rv)
		}
	}
	return res
}

func (r *resolver) resolve(source string, l doctree.Link) Resolution {
	rv := Resolution{Source: source, Link: l}

	if l.External {
		rv.Status = StatusExternal
		return rv
	}
	if l.Target == "" && l.Fragment == "" {
		rv.Status = StatusMissing
		return rv
	}

	var target string
	if l.Target == "" {
		target = source
	} else {
		p, ok := normalize(source, l.Target)
		if !ok {
			rv.Status = StatusMissing
			return rv
		}
		target, ok = r.lookup(p, strings.HasSuffix(l.Target, "/"))
		if !ok {
			if _, isAsset := r.assets[p]; isAsset {
				rv.Target = p
				rv.Status = StatusAsset
				return rv
			}
			rv.Status = StatusMissing
			return rv
		}
	}

	rv.Target = target
	rv.Status = StatusResolved
	if l.Fragment != "" {
		if _, ok := r.anchors[target][l.Fragment]; !ok {
			rv.Status = StatusBrokenAnchor
		}
	}
	return rv
}

// lookup finds the document a normalized path names, trying index files
// when the path is a directory.
func (r *resolver) lookup(p string, dir bool) (string, bool) {
	if !dir {
		if _, ok := r.docs[p]; ok {
			return p, true
		}
	}
	for _, name := range r.index {
		candidate := name
		if p != "" {
			candidate = p + "/" + name
		}
		if _, ok := r.docs[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// normalize joins target onto the directory of source and cleans the result.
// A leading '/' is relative to the corpus root. Paths that climb out of the
// root do not resolve.
func normalize(source, target string) (string, bool) {
	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(strings.TrimLeft(target, "/"))
	} else {
		p = path.Join(path.Dir(source), target)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	if p == "." {
		p = ""
	}
	return p, true
}

func anchorSet(d *doctree.Document, opts slug.Options) map[string]struct{} {
	set := make(map[string]struct{}, len(d.Headings)+len(d.Anchors))
	s := slug.New(opts)
	for _, h := range d.Headings {
		set[s.Next(h.Title)] = struct{}{}
	}
	for _, a := range d.Anchors {
		set[a] = struct{}{}
	}
	return set
}
