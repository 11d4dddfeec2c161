// Package slug derives heading anchors the way documentation renderers do.
// The rule is configurable because renderers disagree on punctuation and on
// how repeated headings are disambiguated.
package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Style selects which characters survive slugging.
type Style string

const (
	// StyleGitHub keeps letters, digits, '-' and '_'; spaces become '-'.
	StyleGitHub Style = "github"
	// StylePlain keeps letters and digits only; spaces become '-'.
	StylePlain Style = "plain"
)

// DuplicatePolicy decides what a repeated heading slug becomes.
type DuplicatePolicy string

const (
	// DuplicateSuffix appends -1, -2, ... to the second and later repeats.
	DuplicateSuffix DuplicatePolicy = "suffix"
	// DuplicateNone lets repeated headings share a slug.
	DuplicateNone DuplicatePolicy = "none"
)

// Options configures a Slugger.
type Options struct {
	Style      Style
	Duplicates DuplicatePolicy
}

// DefaultOptions matches GitHub's renderer.
func DefaultOptions() Options {
	return Options{Style: StyleGitHub, Duplicates: DuplicateSuffix}
}

// Validate reports unknown styles or policies.
func (o Options) Validate() error {
	switch o.Style {
	case StyleGitHub, StylePlain:
	default:
		return fmt.Errorf("unknown slug style %q", o.Style)
	}
	switch o.Duplicates {
	case DuplicateSuffix, DuplicateNone:
	default:
		return fmt.Errorf("unknown duplicate slug policy %q", o.Duplicates)
	}
	return nil
}

// Slugger assigns slugs to the headings of one document. It is stateful
// (it remembers slugs already issued) and not safe for concurrent use.
type Slugger struct {
	opts  Options
	lower cases.Caser
	seen  map[string]int
}

func New(opts Options) *Slugger {
	return &Slugger{
		opts:  opts,
		lower: cases.Lower(language.Und),
		seen:  make(map[string]int),
	}
}

// Next returns the slug for the next heading title in document order.
func (s *Slugger) Next(title string) string {
	base := makeSlug(s.lower, s.opts.Style, title)
	if s.opts.Duplicates == DuplicateNone {
		return base
	}
	result := base
	for {
		if _, taken := s.seen[result]; !taken {
			break
		}
		s.seen[base]++
		result = fmt.Sprintf("%s-%d", base, s.seen[base])
	}
	s.seen[result] = 0
	return result
}

// All slugs a sequence of titles in order.
func All(opts Options, titles []string) []string {
	s := New(opts)
	out := make([]string, len(titles))
	for i, t := range titles {
		out[i] = s.Next(t)
	}
	return out
}

// Make slugs a single title without duplicate tracking.
func Make(style Style, title string) string {
	return makeSlug(cases.Lower(language.Und), style, title)
}

func makeSlug(lower cases.Caser, style Style, title string) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	title = lower.String(title)

	var sb strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r):
			sb.WriteRune(r)
		case r == ' ' || r == '\t':
			sb.WriteByte('-')
		case r == '-' && style == StyleGitHub:
			sb.WriteByte('-')
		case r == '_' && style == StyleGitHub:
			sb.WriteByte('_')
		}
	}
	out := sb.String()
	if style == StylePlain {
		for strings.Contains(out, "--") {
			out = strings.ReplaceAll(out, "--", "-")
		}
		out = strings.Trim(out, "-")
	}
	return out
}
