package extract

import (
	"regexp"
	"strings"
)

// paragraphTarget is the soft length at which a paragraph break is emitted.
const paragraphTarget = 200

var (
	// Common OCR artifacts: a digit glued to a letter and a capitalized word
	// glued to terminal punctuation.
	letterDigitRe = regexp.MustCompile(`([a-zA-Z])(\d)`)
	digitLetterRe = regexp.MustCompile(`(\d)([a-zA-Z])`)
	sentenceCapRe = regexp.MustCompile(`([.!?])([A-Z])`)

	sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// FormatPageText repairs common OCR artifacts and re-inserts paragraph
// structure: sentences accumulate into a paragraph until the soft length
// target is exceeded.
func FormatPageText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = letterDigitRe.ReplaceAllString(text, "$1 $2")
	text = digitLetterRe.ReplaceAllString(text, "$1 $2")
	text = sentenceCapRe.ReplaceAllString(text, "$1 $2")
	text = spaceRe.ReplaceAllString(text, " ")

	sentences := splitSentences(text)

	var paragraphs []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		if current.Len() > paragraphTarget {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	return strings.Join(paragraphs, "\n\n")
}

// splitSentences cuts text after terminal punctuation followed by a space.
func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
