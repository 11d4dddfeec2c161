package check

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// imbalance is one delimiter problem. line is 0-based within the snippet.
type imbalance struct {
	line int
	msg  string
}

type opener struct {
	ch   byte
	line int
}

var closerFor = map[byte]byte{'(': ')', '[': ']', '{': '}'}
var openerFor = map[byte]byte{')': '(', ']': '[', '}': '{'}

// balance checks that (), [] and {} pair up outside comments and literals,
// and that every literal and block comment is closed.
func (g *Grammar) balance(src string) []imbalance {
	var (
		issues []imbalance
		stack  []opener
		line   int
	)

	n := len(src)
	for i := 0; i < n; {
		c := src[i]

		if c == '\n' {
			line++
			i++
			continue
		}

		if g.lineComment(src[i:]) {
			for i < n && src[i] != '\n' {
				i++
			}
			continue
		}

		if open := g.blockComment[0]; open != "" && strings.HasPrefix(src[i:], open) {
			end, lines, ok := g.skipBlockComment(src, i)
			if !ok {
				issues = append(issues, imbalance{line: line, msg: "unterminated block comment"})
				break
			}
			line += lines
			i = end
			continue
		}

		if g.rawStrings && isRawStringStart(src, i) {
			end, lines, ok := skipRawString(src, i)
			if !ok {
				issues = append(issues, imbalance{line: line, msg: "unterminated raw string literal"})
				break
			}
			line += lines
			i = end
			continue
		}

		if q, ok := g.quoteAt(src, i); ok {
			end, lines, closed := skipQuoted(src, i, q)
			if !closed {
				issues = append(issues, imbalance{line: line, msg: fmt.Sprintf("unterminated %s literal", q.kind)})
			}
			line += lines
			i = end
			continue
		}

		switch c {
		case '(', '[', '{':
			stack = append(stack, opener{ch: c, line: line})
		case ')', ']', '}':
			want := openerFor[c]
			idx := -1
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].ch == want {
					idx = j
					break
				}
			}
			if idx < 0 {
				issues = append(issues, imbalance{line: line, msg: fmt.Sprintf("unexpected '%c' with no matching '%c'", c, want)})
				break
			}
			for j := len(stack) - 1; j > idx; j-- {
				o := stack[j]
				issues = append(issues, imbalance{line: o.line, msg: fmt.Sprintf("unclosed '%c' (found '%c' before its '%c')", o.ch, c, closerFor[o.ch])})
			}
			stack = stack[:idx]
		}
		i++
	}

	for _, o := range stack {
		issues = append(issues, imbalance{line: o.line, msg: fmt.Sprintf("unclosed '%c'", o.ch)})
	}
	return issues
}

func (g *Grammar) lineComment(s string) bool {
	for _, p := range g.lineComments {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// skipBlockComment returns the index just past the comment opened at i.
func (g *Grammar) skipBlockComment(src string, i int) (end, lines int, ok bool) {
	start, stop := g.blockComment[0], g.blockComment[1]
	depth := 0
	for j := i; j < len(src); {
		switch {
		case strings.HasPrefix(src[j:], start) && (depth == 0 || g.nestComments):
			depth++
			j += len(start)
		case strings.HasPrefix(src[j:], stop):
			depth--
			j += len(stop)
			if depth == 0 {
				return j, lines, true
			}
		default:
			if src[j] == '\n' {
				lines++
			}
			j++
		}
	}
	return len(src), lines, false
}

// quoteAt returns the literal opening at i, if any, after applying the
// language's exceptions for apostrophes that are not literals.
func (g *Grammar) quoteAt(src string, i int) (quote, bool) {
	for _, q := range g.quotes {
		if !strings.HasPrefix(src[i:], q.open) {
			continue
		}
		if q.open == "'" {
			if g.digitSeps && i > 0 && isAlnum(src[i-1]) && i+1 < len(src) && isAlnum(src[i+1]) && startsWithDigit(src, i) {
				return quote{}, false
			}
			if g.lifetimes && !isCharLiteral(src, i) {
				return quote{}, false
			}
		}
		return q, true
	}
	return quote{}, false
}

// skipQuoted returns the index just past the literal opened at i. A
// single-line literal that reaches a newline is unterminated; scanning
// resumes at the newline.
func skipQuoted(src string, i int, q quote) (end, lines int, closed bool) {
	j := i + len(q.open)
	for j < len(src) {
		if q.escapes && src[j] == '\\' {
			if j+1 < len(src) && src[j+1] == '\n' {
				lines++
			}
			j += 2
			continue
		}
		if strings.HasPrefix(src[j:], q.open) {
			return j + len(q.open), lines, true
		}
		if src[j] == '\n' {
			if !q.multiline {
				return j, lines, false
			}
			lines++
		}
		j++
	}
	return len(src), lines, false
}

// isRawStringStart matches R"delim( with an optional u8/u/U/L prefix.
func isRawStringStart(src string, i int) bool {
	if src[i] != 'R' || i+1 >= len(src) || src[i+1] != '"' {
		return false
	}
	if i == 0 {
		return true
	}
	prev := src[i-1]
	if !isAlnum(prev) && prev != '_' {
		return true
	}
	for _, p := range []string{"u8", "u", "U", "L"} {
		if strings.HasSuffix(src[:i], p) {
			k := i - len(p)
			if k == 0 || (!isAlnum(src[k-1]) && src[k-1] != '_') {
				return true
			}
		}
	}
	return false
}

func skipRawString(src string, i int) (end, lines int, ok bool) {
	j := i + 2 // past R"
	paren := strings.IndexByte(src[j:], '(')
	if paren < 0 || paren > 16 {
		return len(src), 0, false
	}
	delim := src[j : j+paren]
	if strings.ContainsAny(delim, " \\)\t\n") {
		return len(src), 0, false
	}
	closing := ")" + delim + `"`
	body := j + paren + 1
	k := strings.Index(src[body:], closing)
	if k < 0 {
		return len(src), strings.Count(src[body:], "\n"), false
	}
	end = body + k + len(closing)
	return end, strings.Count(src[i:end], "\n"), true
}

// isCharLiteral distinguishes a Rust char literal ('a', '\n', 'é') from a
// lifetime or loop label ('a, 'static).
func isCharLiteral(src string, i int) bool {
	if i+1 >= len(src) {
		return false
	}
	if src[i+1] == '\\' {
		return true
	}
	_, size := utf8.DecodeRuneInString(src[i+1:])
	k := i + 1 + size
	return k < len(src) && src[k] == '\''
}

// startsWithDigit reports whether the token containing position i begins
// with a digit, i.e. the apostrophe sits inside a numeric literal.
func startsWithDigit(src string, i int) bool {
	k := i
	for k > 0 && (isAlnum(src[k-1]) || src[k-1] == '\'' || src[k-1] == '.') {
		k--
	}
	return k < len(src) && src[k] >= '0' && src[k] <= '9'
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
