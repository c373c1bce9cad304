package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	got := SplitText("short text", 100, 10)
	if len(got) != 1 || got[0] != "short text" {
		t.Fatalf("short input should come back whole, got %v", got)
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	if got := SplitText("   ", 100, 10); got != nil {
		t.Fatalf("whitespace-only input should yield no chunks, got %v", got)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 runes
	got := SplitText(text, 40, 10)

	if len(got) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(got))
	}
	for i := 0; i < len(got)-1; i++ {
		tail := got[i][len(got[i])-10:]
		head := got[i+1][:10]
		if tail != head {
			t.Errorf("chunks %d/%d should share a 10-rune overlap: %q vs %q", i, i+1, tail, head)
		}
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 95)
	got := SplitText(text, 40, 10)

	var total int
	for _, c := range got {
		total += len(c)
	}
	// With overlap, the chunks together must at least cover the input.
	if total < len(text) {
		t.Fatalf("chunks cover %d runes of %d", total, len(text))
	}
	last := got[len(got)-1]
	if !strings.HasSuffix(text, last) {
		t.Error("last chunk should end where the input ends")
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("y", 50)
	// Overlap >= chunk size would never advance; the splitter falls
	// back to disjoint chunks instead of looping.
	got := SplitText(text, 10, 10)
	if len(got) != 5 {
		t.Fatalf("expected 5 disjoint chunks, got %d", len(got))
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("привет мир ", 20)
	got := SplitText(text, 30, 5)
	for i, c := range got {
		if n := len([]rune(c)); n > 30 {
			t.Errorf("chunk %d has %d runes, limit is 30", i, n)
		}
	}
}
