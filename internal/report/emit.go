package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format selects a rendering.
type Format string

const (
	FormatText   Format = "text"   // severity:path:line:message, one per line
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatPretty Format = "pretty" // Colored, grouped by document
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatPretty:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json, yaml or pretty)", s)
	}
}

// Write renders r to w in format f.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatPretty:
		return WritePretty(w, r)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// WriteText writes one severity:path:line:message line per finding.
func WriteText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	for _, f := range r.findings {
		bw.WriteString(f.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

type document struct {
	Summary  Summary   `json:"summary" yaml:"summary"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

func (r *Report) document() document {
	findings := r.findings
	if findings == nil {
		findings = []Finding{}
	}
	return document{Summary: r.Summary(), Findings: findings}
}

// WriteJSON writes the summary and findings as an indented JSON object.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.document())
}

// WriteYAML writes the summary and findings as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.document()); err != nil {
		return err
	}
	return enc.Close()
}

// WritePretty writes a human oriented listing. Colors follow fatih/color's
// terminal detection and color.NoColor.
func WritePretty(w io.Writer, r *Report) error {
	var (
		pathStyle = color.New(color.Bold)
		errStyle  = color.New(color.FgRed)
		warnStyle = color.New(color.FgYellow)
		ruleStyle = color.New(color.Faint)
		okStyle   = color.New(color.FgGreen, color.Bold)
		failStyle = color.New(color.FgRed, color.Bold)
	)

	bw := bufio.NewWriter(w)
	current := ""
	for _, f := range r.findings {
		if f.Path != current {
			if current != "" {
				bw.WriteByte('\n')
			}
			current = f.Path
			pathStyle.Fprintln(bw, f.Path)
		}
		sev := warnStyle.Sprintf("%-7s", f.Severity)
		if f.Severity == SeverityError {
			sev = errStyle.Sprintf("%-7s", f.Severity)
		}
		fmt.Fprintf(bw, "  %5d  %s  %s  %s\n", f.Line, sev, f.Message, ruleStyle.Sprint(f.Rule))
	}

	s := r.Summary()
	if len(r.findings) > 0 {
		bw.WriteByte('\n')
	}
	line := fmt.Sprintf("%d %s, %d %s in %d %s",
		s.Errors, plural(s.Errors, "error"),
		s.Warnings, plural(s.Warnings, "warning"),
		s.Documents, plural(s.Documents, "document"))
	if r.Failed() {
		failStyle.Fprintln(bw, "✗ "+line)
	} else {
		okStyle.Fprintln(bw, "✓ "+line)
	}
	return bw.Flush()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
