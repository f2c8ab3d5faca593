package textproc

import (
	"strings"
	"testing"
)

func collect(c Chunker, text string) (idxs []int, chunks []string) {
	for i, ch := range c.Chunks(text) {
		idxs = append(idxs, i)
		chunks = append(chunks, ch)
	}
	return idxs, chunks
}

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", DefaultChunkSize, DefaultChunkOverlap, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative size", -1, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if tt.wantErr && err == nil {
				t.Errorf("NewChunker(%d, %d) expected error", tt.size, tt.overlap)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewChunker(%d, %d) unexpected error: %v", tt.size, tt.overlap, err)
			}
		})
	}
}

func TestChunks_ShortTextSingleChunk(t *testing.T) {
	c, _ := NewChunker(100, 10)

	idxs, chunks := collect(c, "short text")

	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected one chunk, got %q", chunks)
	}
	if idxs[0] != 0 {
		t.Errorf("expected index 0, got %d", idxs[0])
	}
}

func TestChunks_Empty(t *testing.T) {
	c, _ := NewChunker(100, 10)

	if _, chunks := collect(c, ""); chunks != nil {
		t.Errorf("expected no chunks for empty text, got %q", chunks)
	}
	if _, chunks := collect(c, "   \n\t  "); chunks != nil {
		t.Errorf("expected no chunks for whitespace text, got %q", chunks)
	}
}

func TestChunks_OverlapCoverage(t *testing.T) {
	c, _ := NewChunker(10, 3)
	text := "abcdefghijklmnopqrstuvwxyz"

	_, chunks := collect(c, text)

	// Step is 7: windows start at 0, 7, 14, 21.
	want := []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i] != w {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i], w)
		}
	}

	// Every input character must appear in at least one chunk.
	joined := strings.Join(chunks, "")
	for _, r := range text {
		if !strings.ContainsRune(joined, r) {
			t.Errorf("rune %q lost during chunking", r)
		}
	}
}

func TestChunks_RuneWindows(t *testing.T) {
	// Arabic text: windows must count runes, not bytes.
	c, _ := NewChunker(4, 1)
	text := "صيدلةعلم"

	_, chunks := collect(c, text)

	for i, ch := range chunks {
		if n := len([]rune(ch)); n > 4 {
			t.Errorf("chunk[%d] has %d runes, window is 4", i, n)
		}
	}
	if chunks[0] != "صيدل" {
		t.Errorf("first window = %q", chunks[0])
	}
}

func TestChunks_SkipsBlankWindowsWithSequentialIndexes(t *testing.T) {
	c, _ := NewChunker(4, 0)
	// Second window is pure whitespace and must be dropped without leaving
	// a gap in the index sequence.
	text := "abcd    efgh"

	idxs, chunks := collect(c, text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if idxs[0] != 0 || idxs[1] != 1 {
		t.Errorf("expected indexes [0 1], got %v", idxs)
	}
	if chunks[0] != "abcd" || chunks[1] != "efgh" {
		t.Errorf("unexpected chunks %q", chunks)
	}
}

func TestChunks_Restartable(t *testing.T) {
	c, _ := NewChunker(5, 1)
	text := "the quick brown fox jumps over"

	seq := c.Chunks(text)
	_, first := collect(c, text)

	var second []string
	for _, ch := range seq {
		second = append(second, ch)
	}
	var third []string
	for _, ch := range seq {
		third = append(third, ch)
	}

	if strings.Join(second, "|") != strings.Join(first, "|") ||
		strings.Join(third, "|") != strings.Join(first, "|") {
		t.Error("iterating the same sequence twice gave different chunks")
	}
}

func TestChunks_EarlyBreak(t *testing.T) {
	c, _ := NewChunker(5, 0)
	text := strings.Repeat("x", 50)

	n := 0
	for range c.Chunks(text) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected early break after 2 chunks, got %d", n)
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("pharm101.pdf", 0)
	b := ChunkID("pharm101.pdf", 0)

	if a != b {
		t.Errorf("same inputs produced different ids: %q vs %q", a, b)
	}
	if len(a) != 40 {
		t.Errorf("expected 40 hex chars, got %d (%q)", len(a), a)
	}
	// SHA-1 of "pharm101.pdf-0".
	if a != "fac7584cfe06e7f5f1cd11953f43400262f7f9a4" {
		t.Errorf("unexpected id %q", a)
	}
}

func TestChunkID_DistinctInputs(t *testing.T) {
	ids := map[string]string{
		"pharm101.pdf/0": ChunkID("pharm101.pdf", 0),
		"pharm101.pdf/1": ChunkID("pharm101.pdf", 1),
		"pharm102.pdf/0": ChunkID("pharm102.pdf", 0),
	}

	seen := make(map[string]string)
	for input, id := range ids {
		if prev, ok := seen[id]; ok {
			t.Errorf("collision between %q and %q", prev, input)
		}
		seen[id] = input
	}
}
