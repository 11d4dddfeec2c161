package parser

import (
	"bytes"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/dgallion1/docvet/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark for headings and
// links and a line scanner for fenced code blocks.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, path string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &doctree.Document{Path: path}
	idx := newLineIndex(src)

	// Lines goldmark reads as prose or indented code cannot open a fence.
	prose := make(map[int]bool)
	markLines := func(lines *text.Segments) {
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			prose[idx.lineAt(seg.Start)] = true
		}
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(src))

	// Line of the last heading seen; used to place headings with no text.
	lastHeadingLine := 0

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.CodeBlock:
			markLines(n.Lines())

		case *ast.Heading:
			markLines(node.Lines())
			h := doctree.Heading{Level: node.Level, Title: inlineText(node, src)}
			if node.Lines().Len() > 0 {
				h.Line = idx.lineAt(node.Lines().At(0).Start)
			} else {
				h.Line = idx.findEmptyATX(node.Level, lastHeadingLine+1)
			}
			lastHeadingLine = h.Line
			doc.Headings = append(doc.Headings, h)

		case *ast.Link:
			line := idx.lineAt(inlineOffset(node, node.Destination, src))
			doc.Links = append(doc.Links, newLink(string(node.Destination), doctree.LinkInline, line))

		case *ast.Image:
			line := idx.lineAt(inlineOffset(node, node.Destination, src))
			doc.Links = append(doc.Links, newLink(string(node.Destination), doctree.LinkImage, line))

		case *ast.AutoLink:
			dest := node.URL(src)
			l := newLink(string(dest), doctree.LinkAuto, idx.lineAt(inlineOffset(node, dest, src)))
			if node.AutoLinkType == ast.AutoLinkEmail {
				l.External = true
			}
			doc.Links = append(doc.Links, l)

		case *ast.HTMLBlock:
			markLines(node.Lines())
			var raw bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				raw.Write(seg.Value(src))
			}
			if node.HasClosure() {
				closure := node.ClosureLine
				raw.Write(closure.Value(src))
			}
			if lines.Len() > 0 {
				links, anchors := scanHTML(raw.Bytes(), idx.lineAt(lines.At(0).Start))
				doc.Links = append(doc.Links, links...)
				doc.Anchors = append(doc.Anchors, anchors...)
			}

		case *ast.RawHTML:
			if node.Segments.Len() == 0 {
				break
			}
			var raw bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw.Write(seg.Value(src))
			}
			links, anchors := scanHTML(raw.Bytes(), idx.lineAt(node.Segments.At(0).Start))
			doc.Links = append(doc.Links, links...)
			doc.Anchors = append(doc.Anchors, anchors...)
		}
		return ast.WalkContinue, nil
	})

	blocks, fenceErr := scanFences(idx.lines, prose)
	doc.CodeBlocks = blocks
	if fenceErr != nil {
		return doc, fenceErr
	}
	return doc, nil
}

// newLink splits a destination into path and fragment and classifies it.
func newLink(raw string, kind doctree.LinkKind, line int) doctree.Link {
	l := doctree.Link{Raw: raw, Kind: kind, Line: line}
	dest := strings.TrimSpace(raw)

	if strings.HasPrefix(dest, "//") {
		l.External = true
		return l
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		l.External = true
		return l
	}

	target, fragment := dest, ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		target, fragment = dest[:i], dest[i+1:]
	}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	if dec, err := url.PathUnescape(target); err == nil {
		target = dec
	}
	if dec, err := url.PathUnescape(fragment); err == nil {
		fragment = dec
	}
	l.Target = target
	l.Fragment = fragment
	return l
}

// inlineText collects the plain text of an inline subtree.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// inlineOffset finds a source offset for an inline node: the first text
// segment beneath it, or for nodes with no text (empty labels, autolinks)
// the destination searched for after the preceding sibling.
func inlineOffset(n ast.Node, dest, src []byte) int {
	if off, ok := firstSegment(n); ok {
		return off
	}
	from := blockStart(n)
	for p := n.PreviousSibling(); p != nil; p = p.PreviousSibling() {
		end, ok := lastSegment(p)
		if !ok {
			continue
		}
		from = end
		if t, isText := p.(*ast.Text); isText && (t.SoftLineBreak() || t.HardLineBreak()) && (from == 0 || src[from-1] != '\n') {
			if j := bytes.IndexByte(src[from:], '\n'); j >= 0 {
				from += j + 1
			}
		}
		break
	}
	if len(dest) > 0 && from < len(src) {
		if i := bytes.Index(src[from:], dest); i >= 0 {
			return from + i
		}
	}
	return from
}

// blockStart is the offset of the first line of the block enclosing n.
func blockStart(n ast.Node) int {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start
		}
	}
	return 0
}

func firstSegment(n ast.Node) (int, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := firstSegment(c); ok {
			return off, true
		}
	}
	return 0, false
}

func lastSegment(n ast.Node) (int, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Stop, true
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if off, ok := lastSegment(c); ok {
			return off, true
		}
	}
	return 0, false
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int
	lines  []string
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts, lines: splitLines(src)}
}

func (ix *lineIndex) lineAt(offset int) int {
	i, found := slices.BinarySearch(ix.starts, offset)
	if !found {
		i--
	}
	if i < 0 {
		i = 0
	}
	return i + 1
}

// findEmptyATX locates an ATX heading with no text ("##") at or after line
// from. goldmark keeps no segment for such headings.
func (ix *lineIndex) findEmptyATX(level, from int) int {
	marker := strings.Repeat("#", level)
	for i := max(from-1, 0); i < len(ix.lines); i++ {
		t := strings.TrimSpace(ix.lines[i])
		if !strings.HasPrefix(t, marker) {
			continue
		}
		if strings.Trim(t, "# \t") == "" {
			n := 0
			for n < len(t) && t[n] == '#' {
				n++
			}
			if n == level {
				return i + 1
			}
		}
	}
	return min(from, max(len(ix.lines), 1))
}
