package extractor

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// ocrWhitelist limits recognition to alphanumerics and common punctuation.
const ocrWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,:;!?'\"()[]/-+%<>=#&*_"

type tesseractOCR struct {
	language string
}

// NewTesseractOCR returns an OCR backed by the local tesseract install.
func NewTesseractOCR(language string) OCR {
	if language == "" {
		language = "eng"
	}
	return &tesseractOCR{language: language}
}

// Recognize uses a fresh client per call and always closes it, including
// when the caller has already given up on the result.
func (t *tesseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetWhitelist(ocrWhitelist); err != nil {
		return "", fmt.Errorf("failed to set OCR whitelist: %w", err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", fmt.Errorf("failed to set OCR variable: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image for OCR: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
