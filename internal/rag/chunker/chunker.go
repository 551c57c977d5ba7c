package chunker

import (
	"errors"
	"strings"
)

// ErrNoChunks reports degenerate input that produced no usable chunks.
var ErrNoChunks = errors.New("chunking produced no chunks")

// Default window parameters, in runes.
const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 200
	DefaultMinChunkSize = 100
)

// Chunker splits normalized text into bounded, overlapping segments cut at
// natural boundaries: sentence end first, then paragraph break, then word
// boundary, then a hard cut at the size cap.
type Chunker struct {
	MaxChunkSize int
	Overlap      int
	MinChunkSize int
}

// New creates a Chunker, substituting defaults for non-positive parameters.
func New(maxChunkSize, overlap, minChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	if minChunkSize <= 0 {
		minChunkSize = DefaultMinChunkSize
	}
	return &Chunker{MaxChunkSize: maxChunkSize, Overlap: overlap, MinChunkSize: minChunkSize}
}

// Split slices text into ordered chunk texts. Chunks shorter than
// MinChunkSize are dropped; the window always advances at least one rune so
// progress is guaranteed even when Overlap >= MaxChunkSize.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.MaxChunkSize {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.MaxChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.findBoundary(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(piece)) >= c.MinChunkSize {
			chunks = append(chunks, piece)
		}

		if end >= len(runes) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// findBoundary searches backward from end for the best cut point, never
// closer to start than MinChunkSize: sentence terminator, then paragraph
// break, then word boundary, else the hard cap.
func (c *Chunker) findBoundary(runes []rune, start, end int) int {
	limit := start + c.MinChunkSize

	for i := end - 1; i > limit; i-- {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			return i + 1
		}
	}

	for i := end - 1; i > limit; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}

	for i := end - 1; i > limit; i-- {
		if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
			return i
		}
	}

	return end
}
