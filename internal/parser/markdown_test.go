package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docvet/internal/doctree"
)

func TestMarkdownParser_Headings(t *testing.T) {
	input := `# Title

Intro text.

## Section A

### Subsection A1

## Section B
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Path != "doc.md" {
		t.Errorf("expected path %q, got %q", "doc.md", doc.Path)
	}

	want := []doctree.Heading{
		{Level: 1, Title: "Title", Line: 1},
		{Level: 2, Title: "Section A", Line: 5},
		{Level: 3, Title: "Subsection A1", Line: 7},
		{Level: 2, Title: "Section B", Line: 9},
	}
	if len(doc.Headings) != len(want) {
		t.Fatalf("expected %d headings, got %d", len(want), len(doc.Headings))
	}
	for i, w := range want {
		if doc.Headings[i] != w {
			t.Errorf("heading[%d]: expected %+v, got %+v", i, w, doc.Headings[i])
		}
	}
}

func TestMarkdownParser_HashWithoutSpaceIsNotHeading(t *testing.T) {
	input := "#include <vector>\n\nplain\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "inc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Headings) != 0 {
		t.Errorf("expected no headings, got %+v", doc.Headings)
	}
}

func TestMarkdownParser_SetextAndEmptyHeadings(t *testing.T) {
	input := "Overview\n========\n\ntext\n\n##\n\nDetails\n-------\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "setext.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Headings) != 3 {
		t.Fatalf("expected 3 headings, got %d: %+v", len(doc.Headings), doc.Headings)
	}
	if doc.Headings[0].Title != "Overview" || doc.Headings[0].Level != 1 || doc.Headings[0].Line != 1 {
		t.Errorf("unexpected first heading %+v", doc.Headings[0])
	}
	if doc.Headings[1].Title != "" || doc.Headings[1].Level != 2 || doc.Headings[1].Line != 6 {
		t.Errorf("unexpected empty heading %+v", doc.Headings[1])
	}
	if doc.Headings[2].Title != "Details" || doc.Headings[2].Level != 2 || doc.Headings[2].Line != 8 {
		t.Errorf("unexpected last heading %+v", doc.Headings[2])
	}
}

func TestMarkdownParser_Links(t *testing.T) {
	input := `# Links

See [B](b.md#intro) and [up](../c/d.md).

Jump to [intro](#intro), visit <https://example.com>,
or [the docs](https://example.com/docs#x).

![diagram](img/flow.png)

Read [ref][r] too.

[r]: ref.md
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []doctree.Link{
		{Raw: "b.md#intro", Target: "b.md", Fragment: "intro", Line: 3, Kind: doctree.LinkInline},
		{Raw: "../c/d.md", Target: "../c/d.md", Line: 3, Kind: doctree.LinkInline},
		{Raw: "#intro", Fragment: "intro", Line: 5, Kind: doctree.LinkInline},
		{Raw: "https://example.com", Line: 5, Kind: doctree.LinkAuto, External: true},
		{Raw: "https://example.com/docs#x", Line: 6, Kind: doctree.LinkInline, External: true},
		{Raw: "img/flow.png", Target: "img/flow.png", Line: 8, Kind: doctree.LinkImage},
		{Raw: "ref.md", Target: "ref.md", Line: 10, Kind: doctree.LinkInline},
	}
	if len(doc.Links) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(doc.Links), doc.Links)
	}
	for i, w := range want {
		if doc.Links[i] != w {
			t.Errorf("link[%d]: expected %+v, got %+v", i, w, doc.Links[i])
		}
	}
	if !doc.Links[2].SelfReference() {
		t.Errorf("expected fragment-only link to be a self reference")
	}
}

func TestMarkdownParser_PercentEncodedTarget(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("[x](my%20notes.md?plain=1#top)\n"), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(doc.Links))
	}
	if doc.Links[0].Target != "my notes.md" || doc.Links[0].Fragment != "top" {
		t.Errorf("unexpected link %+v", doc.Links[0])
	}
}

func TestMarkdownParser_LinksInCodeAreIgnored(t *testing.T) {
	input := "```md\n[not a link](nowhere.md)\n# not a heading\n```\n\n`[inline](skip.md)`\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "code.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Links) != 0 {
		t.Errorf("expected no links, got %+v", doc.Links)
	}
	if len(doc.Headings) != 0 {
		t.Errorf("expected no headings, got %+v", doc.Headings)
	}
	if len(doc.CodeBlocks) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(doc.CodeBlocks))
	}
}

func TestMarkdownParser_RawHTML(t *testing.T) {
	input := `# Page

<div id="custom-anchor">
  <a name="legacy"></a>
  <img src="pic.svg">
</div>

Inline <a href="other.md#top">other</a> link.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "html.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(doc.Anchors, ",") != "custom-anchor,legacy" {
		t.Errorf("unexpected anchors %v", doc.Anchors)
	}
	if len(doc.Links) != 2 {
		t.Fatalf("expected 2 links, got %+v", doc.Links)
	}
	img := doc.Links[0]
	if img.Target != "pic.svg" || img.Kind != doctree.LinkHTML || img.Line != 5 {
		t.Errorf("unexpected img link %+v", img)
	}
	a := doc.Links[1]
	if a.Target != "other.md" || a.Fragment != "top" || a.Line != 8 {
		t.Errorf("unexpected anchor link %+v", a)
	}
}

func TestMarkdownParser_UnterminatedBlockKeepsPartialDocument(t *testing.T) {
	input := "# Intro\n\n[B](b.md)\n\n```cpp\nint main(){}\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "broken.md")
	if err == nil {
		t.Fatal("expected unterminated block error")
	}
	var ube *UnterminatedBlockError
	if !errors.As(err, &ube) {
		t.Fatalf("expected *UnterminatedBlockError, got %T", err)
	}
	if ube.Line != 5 || ube.Lang != "cpp" {
		t.Errorf("unexpected error detail %+v", ube)
	}
	if doc == nil {
		t.Fatal("expected partial document alongside error")
	}
	if len(doc.Links) != 1 || len(doc.Headings) != 1 {
		t.Errorf("expected content before the fence to survive, got %+v", doc)
	}
}

func TestMarkdownParser_EmptyLabelLinksUseOwnLine(t *testing.T) {
	input := "intro line one\nline two\n![](missing.png) and [](gone.md)\n\n*[](deep.md)*\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		target string
		line   int
	}{
		{"missing.png", 3},
		{"gone.md", 3},
		{"deep.md", 5},
	}
	if len(doc.Links) != len(want) {
		t.Fatalf("expected %d links, got %+v", len(want), doc.Links)
	}
	for i, w := range want {
		if doc.Links[i].Target != w.target || doc.Links[i].Line != w.line {
			t.Errorf("link[%d]: expected %s at line %d, got %+v", i, w.target, w.line, doc.Links[i])
		}
	}
}

func TestMarkdownParser_IndentedCodeShowingFence(t *testing.T) {
	input := "    ```cpp\n    int x;\n\nSee [b](b.md)\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "a.md")
	if err != nil {
		t.Fatalf("expected no error for an indented code block, got %v", err)
	}
	if len(doc.CodeBlocks) != 0 {
		t.Errorf("expected no fenced blocks, got %+v", doc.CodeBlocks)
	}
	if len(doc.Links) != 1 || doc.Links[0].Line != 4 {
		t.Errorf("expected one link at line 4, got %+v", doc.Links)
	}
}

func TestMarkdownParser_FenceInsideParagraphTextIsNotAFence(t *testing.T) {
	input := "Some text\n    ```cpp\ncontinues here.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.CodeBlocks) != 0 {
		t.Errorf("expected no fenced blocks, got %+v", doc.CodeBlocks)
	}
}

func TestMarkdownParser_ShorterClosingFence(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("````cpp\nint main(){}\n```\n"), "a.md")
	if err != nil {
		t.Fatalf("expected three backticks to close the block, got %v", err)
	}
	if len(doc.CodeBlocks) != 1 || !doc.CodeBlocks[0].Closed || doc.CodeBlocks[0].EndLine != 3 {
		t.Errorf("unexpected blocks %+v", doc.CodeBlocks)
	}
}

func TestMarkdownParser_BlockquoteFence(t *testing.T) {
	input := "# Notes\n\n> Example:\n>\n> ```cpp\n> int x = (1;\n> ```\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.CodeBlocks) != 1 {
		t.Fatalf("expected 1 code block, got %+v", doc.CodeBlocks)
	}
	b := doc.CodeBlocks[0]
	if b.Lang != "cpp" || b.Content != "int x = (1;" || b.StartLine != 5 || !b.Closed {
		t.Errorf("unexpected block %+v", b)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Headings) != 0 || len(doc.Links) != 0 || len(doc.CodeBlocks) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		ok       bool
	}{
		{"readme.md", true},
		{"notes.markdown", true},
		{"UPPER.MD", true},
		{"main.cpp", false},
		{"image.png", false},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if (err == nil) != tt.ok {
			t.Errorf("ForFile(%q): expected ok=%v, got err=%v", tt.filename, tt.ok, err)
		}
		if IsSupportedExtension(tt.filename) != tt.ok {
			t.Errorf("IsSupportedExtension(%q): expected %v", tt.filename, tt.ok)
		}
	}
}
