package check

import (
	"fmt"
	"slices"
	"strings"
)

// quote describes a string-like literal.
type quote struct {
	open      string
	multiline bool
	escapes   bool
	kind      string // For messages: "string", "character", ...
}

// Grammar is the lexical subset needed to balance delimiters in a snippet:
// where comments and literals start and end, so brackets inside them are
// ignored. It is a smoke test, not a tokenizer.
type Grammar struct {
	Name         string
	lineComments []string
	blockComment [2]string
	nestComments bool
	quotes       []quote // Longest opener first
	rawStrings   bool    // C++ R"delim(...)delim"
	digitSeps    bool    // C++14 1'000'000
	lifetimes    bool    // Rust 'a
}

var (
	cQuotes = []quote{
		{open: `"`, escapes: true, kind: "string"},
		{open: `'`, escapes: true, kind: "character"},
	}

	grammars = map[string]*Grammar{
		"c": {
			Name:         "c",
			lineComments: []string{"//"},
			blockComment: [2]string{"/*", "*/"},
			quotes:       cQuotes,
		},
		"cpp": {
			Name:         "cpp",
			lineComments: []string{"//"},
			blockComment: [2]string{"/*", "*/"},
			quotes:       cQuotes,
			rawStrings:   true,
			digitSeps:    true,
		},
		"go": {
			Name:         "go",
			lineComments: []string{"//"},
			blockComment: [2]string{"/*", "*/"},
			quotes: []quote{
				{open: `"`, escapes: true, kind: "string"},
				{open: `'`, escapes: true, kind: "rune"},
				{open: "`", multiline: true, kind: "raw string"},
			},
		},
		"java": {
			Name:         "java",
			lineComments: []string{"//"},
			blockComment: [2]string{"/*", "*/"},
			quotes: []quote{
				{open: `"""`, multiline: true, escapes: true, kind: "text block"},
				{open: `"`, escapes: true, kind: "string"},
				{open: `'`, escapes: true, kind: "character"},
			},
		},
		"javascript": {
			Name:         "javascript",
			lineComments: []string{"//"},
			blockComment: [2]string{"/*", "*/"},
			quotes: []quote{
				{open: `"`, escapes: true, kind: "string"},
				{open: `'`, escapes: true, kind: "string"},
				{open: "`", multiline: true, escapes: true, kind: "template literal"},
			},
		},
		"rust": {
			Name:         "rust",
			lineComments: []string{"//"},
			blockComment: [2]string{"/*", "*/"},
			nestComments: true,
			quotes: []quote{
				{open: `"`, multiline: true, escapes: true, kind: "string"},
				{open: `'`, escapes: true, kind: "character"},
			},
			lifetimes: true,
		},
		"python": {
			Name:         "python",
			lineComments: []string{"#"},
			quotes: []quote{
				{open: `"""`, multiline: true, escapes: true, kind: "string"},
				{open: `'''`, multiline: true, escapes: true, kind: "string"},
				{open: `"`, escapes: true, kind: "string"},
				{open: `'`, escapes: true, kind: "string"},
			},
		},
		"json": {
			Name:   "json",
			quotes: []quote{{open: `"`, escapes: true, kind: "string"}},
		},
	}

	aliases = map[string]string{
		"c": "c", "h": "c",
		"cpp": "cpp", "c++": "cpp", "cxx": "cpp", "cc": "cpp", "hpp": "cpp", "hxx": "cpp", "h++": "cpp",
		"go": "go", "golang": "go",
		"java": "java",
		"javascript": "javascript", "js": "javascript", "jsx": "javascript", "mjs": "javascript",
		"rust": "rust", "rs": "rust",
		"python": "python", "py": "python", "python3": "python",
		"json": "json",
	}
)

func init() {
	// The TypeScript lexical subset is JavaScript's; give it its own name.
	ts := *grammars["javascript"]
	ts.Name = "typescript"
	grammars["typescript"] = &ts
	for _, a := range []string{"typescript", "ts", "tsx"} {
		aliases[a] = "typescript"
	}
}

// LookupGrammar resolves a fence language tag to a grammar.
func LookupGrammar(tag string) (*Grammar, bool) {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return nil, false
	}
	return grammars[name], true
}

// Languages lists the canonical language names with a grammar.
func Languages() []string {
	out := make([]string, 0, len(grammars))
	for name := range grammars {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// grammarSet returns the grammars for the given canonical names or aliases.
// An empty list enables every grammar.
func grammarSet(names []string) (map[string]*Grammar, error) {
	set := make(map[string]*Grammar)
	if len(names) == 0 {
		for name, g := range grammars {
			set[name] = g
		}
		return set, nil
	}
	var unknown []string
	for _, n := range names {
		g, ok := LookupGrammar(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		set[g.Name] = g
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("no smoke-check grammar for %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(Languages(), ", "))
	}
	return set, nil
}
