package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestScanFences_BalancedBlock(t *testing.T) {
	lines := splitLines([]byte("intro\n```cpp\nint main(){}\n```\n"))
	blocks, err := scanFences(lines, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Lang != "cpp" || b.Content != "int main(){}" || b.StartLine != 2 || b.EndLine != 4 || !b.Closed {
		t.Errorf("unexpected block %+v", b)
	}
	if b.ContentLine(0) != 3 {
		t.Errorf("expected first content line 3, got %d", b.ContentLine(0))
	}
}

func TestScanFences_Unterminated(t *testing.T) {
	lines := splitLines([]byte("```cpp\nint main(){}\n"))
	blocks, err := scanFences(lines, nil)
	var ube *UnterminatedBlockError
	if !errors.As(err, &ube) {
		t.Fatalf("expected unterminated block error, got %v", err)
	}
	if ube.Line != 1 {
		t.Errorf("expected opening line 1, got %d", ube.Line)
	}
	if len(blocks) != 1 || blocks[0].Closed {
		t.Fatalf("expected one unclosed block, got %+v", blocks)
	}
	if blocks[0].EndLine != 2 {
		t.Errorf("expected block to run to last line, got %d", blocks[0].EndLine)
	}
}

func TestScanFences_FenceRules(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		blocks int
		langs  []string
		err    bool
	}{
		{"no tag", "```\nx\n```\n", 1, []string{""}, false},
		{"tilde fence", "~~~python\nx = 1\n~~~\n", 1, []string{"python"}, false},
		{"info string extras", "``` c title=\"a.c\"\nx;\n```\n", 1, []string{"c"}, false},
		{"braced attribute", "```{.rust}\nfn x() {}\n```\n", 1, []string{"rust"}, false},
		{"longer closing fence", "```go\nx\n`````\n", 1, []string{"go"}, false},
		{"shorter fence closes", "````cpp\nint main(){}\n```\n", 1, []string{"cpp"}, false},
		{"inner fence closes outer", "````md\n```\ninner\n```\n````\n", 2, []string{"md", ""}, false},
		{"blockquote fence", "> ```cpp\n> int x;\n> ```\n", 1, []string{"cpp"}, false},
		{"nested blockquote fence", "> > ```go\n> > x\n> > ```\n", 1, []string{"go"}, false},
		{"blockquote ends before closing fence", "> ```c\n> x;\n\n```\n", 2, []string{"c", ""}, true},
		{"tilde does not close backtick", "```c\n~~~\n", 1, []string{"c"}, true},
		{"closing fence with text does not close", "```c\n``` nope\n", 1, []string{"c"}, true},
		{"inline span is not a fence", "```x``` inline\n", 0, nil, false},
		{"two backticks", "``\ncode\n``\n", 0, nil, false},
		{"indented fence", "- item\n\n  ```sh\n  ls\n  ```\n", 1, []string{"sh"}, false},
		{"two blocks", "```c\na\n```\ntext\n```cpp\nb\n```\n", 2, []string{"c", "cpp"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := scanFences(splitLines([]byte(tt.input)), nil)
			if (err != nil) != tt.err {
				t.Fatalf("expected err=%v, got %v", tt.err, err)
			}
			if len(blocks) != tt.blocks {
				t.Fatalf("expected %d blocks, got %d", tt.blocks, len(blocks))
			}
			for i, lang := range tt.langs {
				if blocks[i].Lang != lang {
					t.Errorf("block %d: expected lang %q, got %q", i, lang, blocks[i].Lang)
				}
			}
		})
	}
}

func TestScanFences_BlockquoteContent(t *testing.T) {
	lines := splitLines([]byte("Intro\n\n> ```cpp\n> int f() {\n>   return (1;\n> ```\n"))
	blocks, err := scanFences(lines, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Content != "int f() {\n  return (1;" {
		t.Errorf("expected quote markers stripped, got %q", b.Content)
	}
	if b.StartLine != 3 || b.EndLine != 6 || !b.Closed {
		t.Errorf("unexpected block %+v", b)
	}
}

func TestScanFences_BlockquoteEndIsUnterminated(t *testing.T) {
	lines := splitLines([]byte("> ```c\n> x;\nafter\n"))
	blocks, err := scanFences(lines, nil)
	var ube *UnterminatedBlockError
	if !errors.As(err, &ube) || ube.Line != 1 {
		t.Fatalf("expected unterminated block at line 1, got %v", err)
	}
	if len(blocks) != 1 || blocks[0].Closed || blocks[0].EndLine != 2 {
		t.Errorf("expected one unclosed block ending at line 2, got %+v", blocks)
	}
}

func TestScanFences_ProseLinesDoNotOpen(t *testing.T) {
	lines := splitLines([]byte("    ```cpp\n    int x;\n\nSee [b](b.md)\n"))
	blocks, err := scanFences(lines, map[int]bool{1: true, 2: true, 4: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected no blocks, got %+v", blocks)
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines([]byte("a\r\nb\n\nc\n"))
	if strings.Join(got, "|") != "a|b||c" {
		t.Errorf("unexpected lines %q", got)
	}
	if splitLines(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
