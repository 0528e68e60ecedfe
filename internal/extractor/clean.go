package extractor

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean normalizes extracted text: NFKC, CRLF to LF, trimmed line ends and no
// runs of blank lines. Spacing inside a line is kept so OCR'd table columns
// stay aligned.
func Clean(text string) string {
	return cleanLines(text, func(line string) string {
		return strings.TrimSpace(line)
	})
}

// cleanTextLayer is Clean plus single spacing within each line. The PDF text
// layer pads words with arbitrary runs of spaces that carry no layout.
func cleanTextLayer(text string) string {
	return cleanLines(text, func(line string) string {
		return strings.Join(strings.Fields(line), " ")
	})
}

func cleanLines(text string, fix func(string) string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = fix(line)
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
