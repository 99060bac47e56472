package script

import (
	"strings"
	"testing"
)

func TestSplitTextKeepsParagraphsIntact(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	chunks := SplitText(text, 40)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk indices must be sequential: %+v", chunks)
		}
		for _, p := range strings.Split(c.Text, "\n\n") {
			if !strings.HasSuffix(p, "paragraph.") {
				t.Fatalf("paragraph split mid-way: %q", p)
			}
		}
	}
}

func TestSplitTextSingleChunkWhenSmall(t *testing.T) {
	chunks := SplitText("Short text.", 1000)
	if len(chunks) != 1 || chunks[0].Text != "Short text." {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestSplitTextOversizedParagraphOwnChunk(t *testing.T) {
	big := strings.Repeat("x", 100)
	chunks := SplitText("small\n\n"+big+"\n\nsmall", 50)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[1].Text != big {
		t.Fatalf("oversized paragraph must stand alone")
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	if chunks := SplitText("  \n\n \n", 100); chunks != nil {
		t.Fatalf("expected no chunks, got %+v", chunks)
	}
}
