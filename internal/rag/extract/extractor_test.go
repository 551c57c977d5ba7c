package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docqa/pkg/logger"
)

func newTestExtractor() *TextExtractor {
	return NewTextExtractor(nil, 2.0, logger.New("test", ""))
}

func TestExtract_PlainText(t *testing.T) {
	x := newTestExtractor()
	got, err := x.Extract(context.Background(), []byte("Hello,\n  document   world.\n"), ".txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Text != "Hello, document world." {
		t.Errorf("unexpected normalized text: %q", got.Text)
	}
}

func TestExtract_MarkdownTreatedAsPlain(t *testing.T) {
	x := newTestExtractor()
	got, err := x.Extract(context.Background(), []byte("# Title\n\nBody text."), ".md")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got.Text, "Body text.") {
		t.Errorf("markdown body lost: %q", got.Text)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	x := newTestExtractor()
	_, err := x.Extract(context.Background(), []byte("   \n\t "), ".txt")
	if err == nil {
		t.Fatal("expected error for empty document")
	}
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Errorf("expected ExtractionError, got %T", err)
	}
}

func TestExtract_HTMLConvertsToMarkdown(t *testing.T) {
	x := newTestExtractor()
	html := `<html><body><h1>Report</h1><p>Quarterly <strong>results</strong> improved.</p></body></html>`
	got, err := x.Extract(context.Background(), []byte(html), ".html")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.Contains(got.Text, "<p>") || strings.Contains(got.Text, "<h1>") {
		t.Errorf("html tags survived conversion: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Report") || !strings.Contains(got.Text, "results") {
		t.Errorf("html content lost: %q", got.Text)
	}
}

func TestExtract_UnknownExtensionFallsBackToRawDecode(t *testing.T) {
	x := newTestExtractor()
	got, err := x.Extract(context.Background(), []byte("plain content in a strange file"), ".dat")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Text != "plain content in a strange file" {
		t.Errorf("unexpected fallback text: %q", got.Text)
	}
}

func TestExtract_InvalidUTF8Dropped(t *testing.T) {
	x := newTestExtractor()
	data := append([]byte("valid prefix "), 0xff, 0xfe)
	data = append(data, []byte(" valid suffix")...)
	got, err := x.Extract(context.Background(), data, ".txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got.Text, "valid prefix") || !strings.Contains(got.Text, "valid suffix") {
		t.Errorf("valid runs lost: %q", got.Text)
	}
	if strings.ContainsRune(got.Text, '�') {
		t.Errorf("replacement runes leaked into text: %q", got.Text)
	}
}
