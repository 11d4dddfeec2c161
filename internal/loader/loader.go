// Package loader walks a documentation root and reads its documents.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docvet/internal/parser"
)

// Options controls which files are read.
type Options struct {
	// Extensions are the document extensions, with the leading dot. Empty
	// means every extension the parser supports.
	Extensions []string
	// Exclude holds path.Match patterns tried against both the slash path
	// relative to the root and the base name.
	Exclude []string
	// Concurrency bounds parallel reads. Zero or less means 8.
	Concurrency int
}

// File is one document read from disk.
type File struct {
	Path string // Slash separated, relative to the root
	Data []byte
}

// Corpus is everything a run sees.
type Corpus struct {
	Root   string
	Files  []File   // Sorted by Path
	Assets []string // Non-document files, sorted
}

// Paths returns the document paths in order.
func (c *Corpus) Paths() []string {
	out := make([]string, len(c.Files))
	for i, f := range c.Files {
		out[i] = f.Path
	}
	return out
}

// Matcher decides whether a relative path is part of the corpus.
type Matcher struct {
	exts    map[string]bool
	exclude []string
}

func NewMatcher(opts Options) (*Matcher, error) {
	m := &Matcher{exts: make(map[string]bool), exclude: opts.Exclude}
	if len(opts.Extensions) == 0 {
		for ext := range parser.SupportedExtensions {
			m.exts[ext] = true
		}
	}
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.exts[ext] = true
	}
	for _, p := range opts.Exclude {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", p, err)
		}
	}
	return m, nil
}

// Excluded reports whether rel matches an exclude pattern.
func (m *Matcher) Excluded(rel string) bool {
	base := path.Base(rel)
	for _, p := range m.exclude {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}

// IsDocument reports whether rel has a document extension.
func (m *Matcher) IsDocument(rel string) bool {
	return m.exts[strings.ToLower(path.Ext(rel))]
}

// Hidden reports whether any element of rel starts with a dot.
func Hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

// Load walks root and reads every document. Any read failure aborts the
// load.
func Load(ctx context.Context, root string, opts Options) (*Corpus, error) {
	m, err := NewMatcher(opts)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	var docs, assets []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if Hidden(rel) || m.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if Hidden(rel) || m.Excluded(rel) || !d.Type().IsRegular() {
			return nil
		}
		if m.IsDocument(rel) {
			docs = append(docs, rel)
		} else {
			assets = append(assets, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(docs)
	slices.Sort(assets)

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 8
	}
	files := make([]File, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rel := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			files[i] = File{Path: rel, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Corpus{Root: root, Files: files, Assets: assets}, nil
}
