package doctree

// Document is one parsed Markdown file. It is built once by the parser and
// never mutated afterwards.
type Document struct {
	Path       string      // Slash-separated path relative to the corpus root
	Headings   []Heading   // In source order
	Links      []Link      // In source order
	CodeBlocks []CodeBlock // In source order
	Anchors    []string    // Explicit HTML anchors (id/name attributes)
}

// Heading is a section heading.
type Heading struct {
	Level int // 1-6
	Title string
	Line  int
}

// LinkKind records the syntax a link was written in.
type LinkKind string

const (
	LinkInline LinkKind = "inline"
	LinkImage  LinkKind = "image"
	LinkAuto   LinkKind = "auto"
	LinkHTML   LinkKind = "html"
)

// Link is a reference as written in the document.
type Link struct {
	Raw      string   // Destination exactly as written
	Target   string   // Path component; empty for fragment-only links
	Fragment string   // Text after '#', without the '#'
	Line     int
	Kind     LinkKind
	External bool // Scheme-qualified or protocol-relative
}

// SelfReference reports whether the link points into its own document.
func (l Link) SelfReference() bool {
	return !l.External && l.Target == "" && l.Fragment != ""
}

// CodeBlock is a fenced code block.
type CodeBlock struct {
	Lang      string // First token of the info string; may be empty
	Content   string // Text between the fences
	StartLine int    // Line of the opening fence
	EndLine   int    // Line of the closing fence, or last line if unclosed
	Closed    bool
}

// ContentLine maps a 0-based line offset inside Content to a document line.
func (b CodeBlock) ContentLine(offset int) int {
	return b.StartLine + 1 + offset
}
