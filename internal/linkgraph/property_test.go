package linkgraph

import (
	"fmt"
	"testing"

	"github.com/dgallion1/docvet/internal/doctree"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var names = []string{"a.md", "b.md", "dir/c.md", "dir/sub/d.md", "README.md", "e.md"}

var targets = []string{
	"a.md", "b.md", "../a.md", "c.md", "dir/c.md", "sub/d.md", "./sub/../c.md",
	"/README.md", "../../x.md", "dir/", "e.md", "missing.md",
}

// corpus builds documents from generated indices: present selects which
// names exist, and each pair in linkIx is (source, target).
func corpus(present []bool, linkIx []int) []*doctree.Document {
	var docs []*doctree.Document
	for i, ok := range present {
		if ok && i < len(names) {
			docs = append(docs, &doctree.Document{Path: names[i]})
		}
	}
	if len(docs) == 0 {
		return nil
	}
	for i := 0; i+1 < len(linkIx); i += 2 {
		d := docs[linkIx[i]%len(docs)]
		t := targets[linkIx[i+1]%len(targets)]
		d.Links = append(d.Links, doctree.Link{Raw: t, Target: t, Line: i + 1})
	}
	return docs
}

func TestResolutionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every resolved target exists in the input set", prop.ForAll(
		func(present []bool, linkIx []int) bool {
			docs := corpus(present, linkIx)
			known := map[string]bool{}
			for _, d := range docs {
				known[d.Path] = true
			}
			res := Build(docs, Options{})
			for _, r := range res.Resolutions {
				if r.Status == StatusResolved && !known[r.Target] {
					return false
				}
			}
			for _, n := range res.Graph.Nodes() {
				for _, tgt := range res.Graph.Targets(n) {
					if !known[tgt] || tgt == n {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(len(names), gen.Bool()),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.Property("building twice yields the same resolutions", prop.ForAll(
		func(present []bool, linkIx []int) bool {
			r1 := Build(corpus(present, linkIx), Options{})
			r2 := Build(corpus(present, linkIx), Options{})
			return fmt.Sprint(r1.Resolutions) == fmt.Sprint(r2.Resolutions)
		},
		gen.SliceOfN(len(names), gen.Bool()),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
