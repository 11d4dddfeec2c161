package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docvet/internal/doctree"
)

// UnterminatedBlockError reports a fenced code block that is still open at
// end of document, or at the end of the blockquote holding it. It is the
// only error the parser produces for well-formed input bytes.
type UnterminatedBlockError struct {
	Line int
	Lang string
}

func (e *UnterminatedBlockError) Error() string {
	if e.Lang != "" {
		return fmt.Sprintf("unterminated code block (%s) opened at line %d", e.Lang, e.Line)
	}
	return fmt.Sprintf("unterminated code block opened at line %d", e.Line)
}

type fence struct {
	char  byte
	depth int // Blockquote nesting of the opening line
}

// scanFences extracts fenced code blocks line by line. A block closes at
// the next line made only of three or more of its fence character. Fences
// may be indented or sit inside blockquotes; a block whose blockquote ends
// before a closing fence is unterminated. prose holds 1-based lines that
// cannot open a fence (paragraph text, indented code).
func scanFences(lines []string, prose map[int]bool) ([]doctree.CodeBlock, error) {
	var (
		blocks   []doctree.CodeBlock
		open     *fence
		current  doctree.CodeBlock
		body     []string
		firstErr error
	)

	unclosed := func(lastLine int) {
		current.Content = strings.Join(body, "\n")
		current.EndLine = lastLine
		blocks = append(blocks, current)
		if firstErr == nil {
			firstErr = &UnterminatedBlockError{Line: current.StartLine, Lang: current.Lang}
		}
		open = nil
	}

	for i, line := range lines {
		lineNo := i + 1
		if open != nil {
			inner, depth := stripQuotes(line, open.depth)
			switch {
			case depth < open.depth:
				unclosed(lineNo - 1)
			case closingFence(inner, *open):
				current.Content = strings.Join(body, "\n")
				current.EndLine = lineNo
				current.Closed = true
				blocks = append(blocks, current)
				open = nil
				continue
			default:
				body = append(body, inner)
				continue
			}
		}

		if prose[lineNo] {
			continue
		}
		inner, depth := stripQuotes(line, -1)
		f, info, ok := openingFence(inner)
		if !ok {
			continue
		}
		f.depth = depth
		open = &f
		current = doctree.CodeBlock{Lang: langTag(info), StartLine: lineNo}
		body = body[:0]
	}

	if open != nil {
		unclosed(len(lines))
	}
	return blocks, firstErr
}

// stripQuotes removes up to limit blockquote markers ("> ") from the start
// of line, or all of them when limit is negative.
func stripQuotes(line string, limit int) (string, int) {
	depth := 0
	for limit < 0 || depth < limit {
		rest := line
		for n := 0; n < 3 && strings.HasPrefix(rest, " "); n++ {
			rest = rest[1:]
		}
		if !strings.HasPrefix(rest, ">") {
			break
		}
		rest = rest[1:]
		if strings.HasPrefix(rest, " ") {
			rest = rest[1:]
		}
		line = rest
		depth++
	}
	return line, depth
}

func openingFence(line string) (fence, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" || (trimmed[0] != '`' && trimmed[0] != '~') {
		return fence{}, "", false
	}
	ch := trimmed[0]
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, "", false
	}
	info := strings.TrimSpace(trimmed[n:])
	// A backtick fence cannot carry backticks in its info string; such a
	// line is an inline code span.
	if ch == '`' && strings.IndexByte(info, '`') >= 0 {
		return fence{}, "", false
	}
	return fence{char: ch}, info, true
}

// closingFence matches three or more fence characters and nothing else.
// The length need not match the opening fence.
func closingFence(line string, f fence) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != f.char {
			return false
		}
	}
	return true
}

// langTag returns the first token of a fence info string, e.g. "cpp" for
// "cpp title=main.cpp". Braced attribute forms like "{.cpp}" are unwrapped.
func langTag(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	tag := fields[0]
	tag = strings.TrimPrefix(tag, "{")
	tag = strings.TrimSuffix(tag, "}")
	tag = strings.TrimPrefix(tag, ".")
	return tag
}

// splitLines splits src into lines without terminators. A trailing newline
// does not produce an extra empty line.
func splitLines(src []byte) []string {
	if len(src) == 0 {
		return nil
	}
	s := strings.ReplaceAll(string(src), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
