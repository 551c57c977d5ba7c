package chunker

import (
	"strings"
	"testing"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := New(1000, 200, 100)
	chunks := c.Split("A short document that fits comfortably in one chunk.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c := New(1000, 200, 100)
	if chunks := c.Split("   \n\t  "); chunks != nil {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestSplit_BoundsAndCoverage(t *testing.T) {
	c := New(1000, 200, 100)

	// Sentences of ~50 runes each, roughly 2500 runes total.
	sentence := "The quick brown fox jumps over the lazy sleeping dog. "
	text := strings.Repeat(sentence, 46)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		n := len([]rune(chunk))
		if n > c.MaxChunkSize {
			t.Errorf("chunk %d has %d runes, exceeds max %d", i, n, c.MaxChunkSize)
		}
		if n < c.MinChunkSize {
			t.Errorf("chunk %d has %d runes, below min %d", i, n, c.MinChunkSize)
		}
		// Sentence-terminated input should cut at sentence ends.
		if !strings.HasSuffix(chunk, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk[len(chunk)-20:])
		}
	}

	// Every sentence survives in at least one chunk.
	joined := strings.Join(chunks, " ")
	if !strings.Contains(joined, strings.TrimSpace(sentence)) {
		t.Error("chunk text lost the source sentence")
	}
}

func TestSplit_OverlapCarriesTrailingText(t *testing.T) {
	c := New(300, 100, 50)
	sentence := "Alpha beta gamma delta epsilon zeta eta theta iota kappa. "
	text := strings.Repeat(sentence, 20)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevTail := []rune(chunks[i-1])
		tail := string(prevTail[len(prevTail)-20:])
		if !strings.Contains(chunks[i], strings.TrimSpace(tail)) {
			t.Errorf("chunk %d does not overlap the tail of chunk %d", i, i-1)
		}
	}
}

func TestSplit_ProgressWhenOverlapExceedsMax(t *testing.T) {
	// Overlap >= max chunk size must still terminate.
	c := &Chunker{MaxChunkSize: 50, Overlap: 60, MinChunkSize: 10}
	text := strings.Repeat("word and more text here. ", 40)

	done := make(chan []string, 1)
	go func() { done <- c.Split(text) }()

	chunks := <-done
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite pathological overlap")
	}
}

func TestSplit_DropsUndersizedTail(t *testing.T) {
	c := New(100, 20, 50)
	// 100 runes of prose then a tiny trailing fragment separated far enough
	// that it lands in its own window after overlap.
	text := strings.Repeat("sentence text here padding out. ", 4) + "End."
	chunks := c.Split(text)
	for i, chunk := range chunks {
		if len([]rune(chunk)) < c.MinChunkSize {
			t.Errorf("chunk %d below min size survived: %q", i, chunk)
		}
	}
}

func TestSplit_NoSentenceBoundaryFallsBackToWords(t *testing.T) {
	c := New(100, 20, 30)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if strings.Contains(chunk, "  ") {
			t.Errorf("chunk %d retained doubled spaces: %q", i, chunk)
		}
		if len([]rune(chunk)) > c.MaxChunkSize {
			t.Errorf("chunk %d exceeds max size", i)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, 0, 0)
	if c.MaxChunkSize != DefaultMaxChunkSize || c.Overlap != DefaultOverlap || c.MinChunkSize != DefaultMinChunkSize {
		t.Errorf("unexpected defaults: %+v", c)
	}
}
