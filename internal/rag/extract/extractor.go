package extract

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/unidoc/unioffice/v2/document"
	"github.com/xuri/excelize/v2"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// TextExtractor converts raw file bytes into normalized text, dispatching on
// the declared file extension. PDFs go through the OCR-augmented per-page
// path; unknown formats are sniffed and fall back to raw UTF-8 decoding.
type TextExtractor struct {
	ocr   OCRFactory
	scale float64
	log   *logger.Logger
}

// NewTextExtractor creates a TextExtractor. ocr may be nil to disable the
// OCR pass; scale is the PDF page render factor relative to 72 DPI.
func NewTextExtractor(ocr OCRFactory, scale float64, log *logger.Logger) *TextExtractor {
	if scale <= 0 {
		scale = 2.0
	}
	return &TextExtractor{ocr: ocr, scale: scale, log: log}
}

// Extract dispatches by extension and returns the extraction result.
func (x *TextExtractor) Extract(ctx context.Context, data []byte, ext string) (*schema.Extraction, error) {
	ext = strings.ToLower(ext)

	switch ext {
	case ".txt", ".md":
		return plainResult(decodeUTF8(data))
	case ".docx":
		text, err := extractDocx(data)
		if err != nil {
			return nil, &ExtractionError{Reason: "cannot read docx", Err: err}
		}
		return plainResult(text)
	case ".xlsx":
		text, err := extractXlsx(data)
		if err != nil {
			return nil, &ExtractionError{Reason: "cannot read xlsx", Err: err}
		}
		return plainResult(text)
	case ".html", ".htm":
		text, err := htmltomarkdown.ConvertString(string(data))
		if err != nil {
			return nil, &ExtractionError{Reason: "cannot convert html", Err: err}
		}
		return plainResult(text)
	case ".pdf":
		return x.extractPDF(ctx, data)
	default:
		// The declared extension did not match a handler; sniff the content
		// before falling back to a raw decode.
		mtype := mimetype.Detect(data)
		switch {
		case mtype.Is("application/pdf"):
			return x.extractPDF(ctx, data)
		case mtype.Is("text/html"):
			text, err := htmltomarkdown.ConvertString(string(data))
			if err == nil {
				return plainResult(text)
			}
		}
		return plainResult(decodeUTF8(data))
	}
}

// plainResult normalizes whitespace and validates non-emptiness.
func plainResult(text string) (*schema.Extraction, error) {
	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if normalized == "" {
		return nil, &ExtractionError{Reason: "document contains no extractable text"}
	}
	return &schema.Extraction{Text: normalized}, nil
}

// decodeUTF8 keeps valid UTF-8 and drops invalid byte runs.
func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

// extractDocx walks the paragraph runs of a word-processor document.
func extractDocx(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// extractXlsx converts each sheet to a Markdown table.
func extractXlsx(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}
		sb.WriteString(sheetName + "\n")
		sb.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(rows[0])) + "\n")
		for _, row := range rows[1:] {
			sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// compile-time check to ensure TextExtractor implements the Extractor interface
var _ interfaces.Extractor = (*TextExtractor)(nil)
