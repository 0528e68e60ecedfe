// Package extractor turns uploaded report bytes into plain text.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/utils"
)

// Sentinel texts returned when extraction ran but found nothing.
const (
	NoTextDetected = "No text detected"
	NoTextInPDF    = "No text found in PDF"
)

// MinContentLength is the shortest text considered readable content.
const MinContentLength = 50

const (
	defaultOCRTimeout  = 30 * time.Second
	defaultMaxPDFPages = 10
)

var (
	ErrExtractionTimeout = errors.New("text extraction timed out")
	ErrUnsupportedType   = errors.New("unsupported file type")
)

// ExtractionError wraps an OCR or PDF failure.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var supportedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// IsSupported reports whether contentType can be extracted.
func IsSupported(contentType string) bool {
	return supportedTypes[baseType(contentType)]
}

// IsSentinel reports whether text is one of the "nothing found" markers.
func IsSentinel(text string) bool {
	return text == NoTextDetected || text == NoTextInPDF
}

// HasSufficientContent reports whether text is worth sending to analysis.
func HasSufficientContent(text string) bool {
	return len(text) > MinContentLength && !IsSentinel(text)
}

// OCR recognizes the text in a single image.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Rasterizer renders the first maxPages pages of a PDF to images, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, maxPages int) ([][]byte, error)
}

type Options struct {
	OCRTimeout  time.Duration
	MaxPDFPages int
	// PDFText reads the PDF text layer. Defaults to ReadPDFText.
	PDFText func(data []byte) (string, error)
}

type Extractor struct {
	ocr         OCR
	rasterizer  Rasterizer
	ocrTimeout  time.Duration
	maxPDFPages int
	pdfText     func(data []byte) (string, error)
	logger      *utils.Logger
}

func New(ocr OCR, rasterizer Rasterizer, opts Options, logger *utils.Logger) *Extractor {
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = defaultOCRTimeout
	}
	if opts.MaxPDFPages <= 0 {
		opts.MaxPDFPages = defaultMaxPDFPages
	}
	if opts.PDFText == nil {
		opts.PDFText = ReadPDFText
	}
	return &Extractor{
		ocr:         ocr,
		rasterizer:  rasterizer,
		ocrTimeout:  opts.OCRTimeout,
		maxPDFPages: opts.MaxPDFPages,
		pdfText:     opts.PDFText,
		logger:      logger,
	}
}

// Extract returns the text of an image or PDF. Empty results come back as
// NoTextDetected or NoTextInPDF, never as an empty string.
func (e *Extractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	start := time.Now()

	var (
		text string
		err  error
	)
	switch baseType(contentType) {
	case "application/pdf":
		text, err = e.extractPDF(ctx, data)
	case "image/jpeg", "image/jpg", "image/png":
		text, err = e.extractImage(ctx, data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if err != nil {
		e.logger.Error("Text extraction failed", "content_type", contentType, "error", err)
		return "", err
	}

	e.logger.Info("Text extracted",
		"content_type", contentType,
		"characters", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	text, err := e.recognize(ctx, data)
	if err != nil {
		return "", err
	}
	if text == "" {
		return NoTextDetected, nil
	}
	return text, nil
}

// recognize runs one OCR call bounded by the OCR timeout. Tesseract cannot be
// interrupted, so after a timeout the call still runs to completion in its
// goroutine; its result lands in the buffered channel and is dropped.
func (e *Extractor) recognize(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.ocrTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.ocr.Recognize(ctx, image)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w after %s", ErrExtractionTimeout, e.ocrTimeout)
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w after %s", ErrExtractionTimeout, e.ocrTimeout)
			}
			return "", &ExtractionError{Op: "ocr", Err: r.err}
		}
		return Clean(r.text), nil
	}
}

func baseType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
