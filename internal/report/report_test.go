package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() *Report {
	b := NewBuilder()
	b.AddDocuments("b.md", "a.md", "c.md")
	// Added out of order on purpose; Finalize sorts.
	b.Add(
		New(RuleOrphan, "c.md", 0, "document has no inbound links"),
		New(RuleUnbalanced, "a.md", 12, "unclosed '{'"),
		New(RuleDanglingLink, "a.md", 3, "link target %q does not exist", "missing.md"),
		New(RuleHeadingSkip, "a.md", 3, "heading level jumps from 2 to 4"),
	)
	return b.Finalize()
}

func TestFinalize_OrdersByPathLineRule(t *testing.T) {
	r := sample()
	got := r.Findings()
	require.Len(t, got, 4)

	assert.Equal(t, RuleHeadingSkip, got[0].Rule)
	assert.Equal(t, RuleDanglingLink, got[1].Rule)
	assert.Equal(t, 12, got[2].Line)
	assert.Equal(t, "c.md", got[3].Path)
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, r.Documents())
}

func TestFinalize_IndependentOfInsertionOrder(t *testing.T) {
	fs := []Finding{
		New(RuleDanglingLink, "x.md", 1, "one"),
		New(RuleDanglingLink, "x.md", 1, "two"),
		New(RuleBrokenAnchor, "x.md", 1, "zero"),
		New(RuleOrphan, "w.md", 0, "orphan"),
	}
	b1, b2 := NewBuilder(), NewBuilder()
	b1.Add(fs...)
	for i := len(fs) - 1; i >= 0; i-- {
		b2.Add(fs[i])
	}

	var out1, out2 bytes.Buffer
	require.NoError(t, WriteText(&out1, b1.Finalize()))
	require.NoError(t, WriteText(&out2, b2.Finalize()))
	assert.Equal(t, out1.String(), out2.String())
}

func TestSummaryAndExitCode(t *testing.T) {
	r := sample()
	s := r.Summary()
	assert.Equal(t, 3, s.Documents)
	assert.Equal(t, 2, s.Errors)
	assert.Equal(t, 2, s.Warnings)
	assert.Equal(t, Counts{Errors: 2, Warnings: 1}, s.PerDocument["a.md"])
	assert.Equal(t, Counts{}, s.PerDocument["b.md"])
	assert.Equal(t, Counts{Warnings: 1}, s.PerDocument["c.md"])

	assert.True(t, r.Failed())
	assert.Equal(t, ExitFindings, r.ExitCode())
}

func TestWarningsAloneDoNotFail(t *testing.T) {
	b := NewBuilder()
	b.Add(New(RuleOrphan, "a.md", 0, "orphan"), New(RuleHeadingSkip, "a.md", 4, "skip"))
	r := b.Finalize()
	assert.False(t, r.Failed())
	assert.Equal(t, ExitOK, r.ExitCode())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sample()))
	want := strings.Join([]string{
		"warning:a.md:3:heading level jumps from 2 to 4",
		`error:a.md:3:link target "missing.md" does not exist`,
		"error:a.md:12:unclosed '{'",
		"warning:c.md:0:document has no inbound links",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var doc struct {
		Summary  Summary   `json:"summary"`
		Findings []Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Summary.Errors)
	require.Len(t, doc.Findings, 4)
	assert.Equal(t, RuleDanglingLink, doc.Findings[1].Rule)
}

func TestWriteJSON_EmptyFindingsIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewBuilder().Finalize()))
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sample()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	summary, ok := doc["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, summary["warnings"])
}

func TestWritePretty(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	require.NoError(t, WritePretty(&buf, sample()))
	out := buf.String()
	assert.Contains(t, out, "a.md\n")
	assert.Contains(t, out, "unclosed '{'")
	assert.Contains(t, out, "✗ 2 errors, 2 warnings in 3 documents")

	buf.Reset()
	require.NoError(t, WritePretty(&buf, NewBuilder().Finalize()))
	assert.Equal(t, "✓ 0 errors, 0 warnings in 0 documents\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", " yaml ", "pretty"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
