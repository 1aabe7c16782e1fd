// Package labels reads printed text off a product frame and checks it against
// the product the vision model identified.
package labels

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Reader extracts visible text from an encoded image.
type Reader interface {
	ReadText(ctx context.Context, data []byte) (string, error)
}

// TesseractReader runs Tesseract OCR. A gosseract client is not safe for
// concurrent use, so calls are serialized.
type TesseractReader struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractReader creates a reader for the given Tesseract language code.
func NewTesseractReader(language string) (*TesseractReader, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR language %q: %w", language, err)
		}
	}
	return &TesseractReader{client: client}, nil
}

func (r *TesseractReader) ReadText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the Tesseract engine.
func (r *TesseractReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
