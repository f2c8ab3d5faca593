package textproc

import (
	"crypto/sha1" //nolint:gosec // content addressing, not authentication
	"encoding/hex"
	"fmt"
	"iter"
	"strings"
)

// Default chunking parameters.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 150
)

// Chunker slides a fixed-size window across text, advancing by
// size-overlap characters each step.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters. overlap >= size would make
// zero progress, so it is rejected as a configuration error.
func NewChunker(size, overlap int) (Chunker, error) {
	if size <= 0 {
		return Chunker{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return Chunker{}, fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return Chunker{}, fmt.Errorf("chunk overlap %d must be smaller than size %d", overlap, size)
	}
	return Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in characters.
func (c Chunker) Size() int { return c.size }

// Overlap returns the window overlap in characters.
func (c Chunker) Overlap() int { return c.overlap }

// Chunks returns a lazy, restartable sequence of (index, text) pairs.
// Windows are measured in runes, trimmed, and skipped when empty after
// trimming; indexes are assigned to emitted chunks in order.
func (c Chunker) Chunks(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		runes := []rune(text)
		step := c.size - c.overlap

		idx := 0
		for start := 0; start < len(runes); start += step {
			end := start + c.size
			if end > len(runes) {
				end = len(runes)
			}

			chunk := strings.TrimSpace(string(runes[start:end]))
			if chunk == "" {
				continue
			}

			if !yield(idx, chunk) {
				return
			}
			idx++
		}
	}
}

// ChunkID derives the stable content-addressed identifier for a chunk:
// lowercase-hex SHA-1 of "{documentName}-{chunkIndex}". Same inputs yield
// the same id across runs and processes, which is what makes re-ingestion
// an idempotent overwrite instead of a duplicate.
func ChunkID(documentName string, chunkIndex int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s-%d", documentName, chunkIndex))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
