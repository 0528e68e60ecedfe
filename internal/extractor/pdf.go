package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadPDFText concatenates the text layer of every page. A PDF without a text
// layer yields an empty string and no error.
func ReadPDFText(data []byte) (string, error) {
	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	direct, textErr := e.pdfText(data)
	if textErr != nil {
		e.logger.Warn("PDF text layer unreadable, trying OCR", "error", textErr)
	}
	direct = cleanTextLayer(direct)

	if len(direct) >= MinContentLength {
		return direct, nil
	}

	e.logger.Info("PDF text layer below threshold, rasterizing for OCR",
		"characters", len(direct),
		"max_pages", e.maxPDFPages,
	)

	ocrText, err := e.ocrPages(ctx, data)
	if err != nil {
		if errors.Is(err, ErrExtractionTimeout) || textErr != nil {
			return "", err
		}
		// The text layer parsed; keep what it gave rather than failing.
		e.logger.Warn("PDF OCR fallback failed", "error", err)
		ocrText = ""
	}

	best := direct
	if len(ocrText) > len(best) {
		best = ocrText
	}
	if best == "" {
		return NoTextInPDF, nil
	}
	return best, nil
}

func (e *Extractor) ocrPages(ctx context.Context, data []byte) (string, error) {
	if e.rasterizer == nil {
		return "", &ExtractionError{Op: "pdf", Err: errors.New("no rasterizer configured")}
	}

	pages, err := e.rasterizer.Rasterize(ctx, data, e.maxPDFPages)
	if err != nil {
		return "", &ExtractionError{Op: "pdf", Err: err}
	}
	if len(pages) > e.maxPDFPages {
		pages = pages[:e.maxPDFPages]
	}

	var parts []string
	for i, page := range pages {
		text, err := e.recognize(ctx, page)
		if err != nil {
			if errors.Is(err, ErrExtractionTimeout) {
				return "", err
			}
			e.logger.Warn("OCR failed for PDF page", "page", i+1, "error", err)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
