package extract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// OCREngine recognizes text in a rendered page image. An engine is a scoped
// resource: acquired once per document-processing invocation and closed on
// every exit path.
type OCREngine interface {
	Recognize(image []byte) (string, error)
	Close() error
}

// OCRFactory acquires a fresh engine. A nil factory disables OCR.
type OCRFactory func() (OCREngine, error)

// tesseractEngine wraps a gosseract client.
type tesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractFactory returns an OCRFactory backed by tesseract for the
// given language.
func NewTesseractFactory(language string) OCRFactory {
	if language == "" {
		language = "eng"
	}
	return func() (OCREngine, error) {
		client := gosseract.NewClient()
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("cannot set OCR language '%s': %w", language, err)
		}
		return &tesseractEngine{client: client}, nil
	}
}

func (e *tesseractEngine) Recognize(image []byte) (string, error) {
	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("cannot load image for OCR: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR recognition failed: %w", err)
	}
	return text, nil
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}
