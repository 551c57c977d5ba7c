package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"docqa/internal/rag/schema"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// mergeRatio is the length ratio above which one extraction source is
// preferred outright over the other.
const mergeRatio = 0.8

// extractPDF runs the OCR-augmented per-page extraction: the structured text
// layer is merged with an OCR pass over a rendering of each page. Page
// images and per-page text are retained as artifacts.
func (x *TextExtractor) extractPDF(ctx context.Context, data []byte) (*schema.Extraction, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &ExtractionError{Reason: "cannot open pdf", Err: err}
	}
	defer doc.Close()

	textLayers := pdfTextLayers(data, doc.NumPage())

	var engine OCREngine
	if x.ocr != nil {
		engine, err = x.ocr()
		if err != nil {
			x.log.Warn(fmt.Sprintf("OCR engine unavailable, continuing with text layer only: %v", err))
			engine = nil
		}
	}
	// The engine is held for this document only and released on every exit
	// path.
	defer func() {
		if engine != nil {
			engine.Close()
		}
	}()

	pages := make([]schema.PageContent, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := schema.PageContent{Number: i + 1, TextLayer: textLayers[i]}

		img, err := doc.ImageDPI(i, 72*x.scale)
		if err != nil {
			x.log.Warn(fmt.Sprintf("cannot render pdf page %d: %v", i+1, err))
		} else {
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err == nil {
				page.Image = buf.Bytes()
			}
		}

		if engine != nil && page.Image != nil {
			ocrText, err := engine.Recognize(page.Image)
			if err != nil {
				x.log.Warn(fmt.Sprintf("OCR failed on pdf page %d: %v", i+1, err))
			} else {
				page.OCRText = ocrText
			}
		}

		page.Merged = FormatPageText(MergePageText(page.TextLayer, page.OCRText))
		pages = append(pages, page)
	}

	var parts []string
	for _, p := range pages {
		if p.Merged != "" {
			parts = append(parts, p.Merged)
		}
	}
	full := strings.Join(parts, "\n\n")
	if strings.TrimSpace(full) == "" {
		return nil, &ExtractionError{Reason: "no text recovered from any page"}
	}

	return &schema.Extraction{
		Text:      full,
		Pages:     pages,
		Meta:      doc.Metadata(),
		PageCount: doc.NumPage(),
	}, nil
}

// pdfTextLayers extracts the structured text layer of every page. A corrupt
// text layer yields empty strings and lets the OCR pass carry the page.
func pdfTextLayers(data []byte, numPages int) []string {
	texts := make([]string, numPages)

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return texts
	}

	for i := 1; i <= numPages && i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts
}

// MergePageText picks the page content from the text layer and the OCR pass
// by comparing their lengths. The shorter source is dropped when the longer
// one dominates; otherwise both are kept and downstream chunking tolerates
// the redundancy.
func MergePageText(textLayer, ocrText string) string {
	textLayer = strings.TrimSpace(textLayer)
	ocrText = strings.TrimSpace(ocrText)

	lt := float64(len(textLayer))
	lo := float64(len(ocrText))

	switch {
	case lt == 0:
		return ocrText
	case lo == 0:
		return textLayer
	case lt >= mergeRatio*lo:
		return textLayer
	case lo >= mergeRatio*lt:
		return ocrText
	default:
		return textLayer + "\n" + ocrText
	}
}
