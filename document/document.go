// Package document extracts plain text from uploaded documents.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultCharLimit bounds how much extracted text is sent on to the model.
const DefaultCharLimit = 1500

// ErrNoText is returned when a document parses but holds no extractable text.
var ErrNoText = errors.New("document contains no extractable text")

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PDFExtractor reads PDF text layers.
type PDFExtractor struct{}

func (PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	if len(data) == 0 {
		return "", errors.New("empty document")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Truncate keeps the first limit characters (runes) of text.
// A non-positive limit leaves text unchanged.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
