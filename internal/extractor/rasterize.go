package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
)

type pdftoppm struct {
	bin string
	dpi int
}

// NewPdftoppmRasterizer renders pages with poppler's pdftoppm binary.
func NewPdftoppmRasterizer(bin string) Rasterizer {
	if bin == "" {
		bin = "pdftoppm"
	}
	return &pdftoppm{bin: bin, dpi: 200}
}

func (p *pdftoppm) Rasterize(ctx context.Context, data []byte, maxPages int) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "report_pages_*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	args := []string{
		"-r", strconv.Itoa(p.dpi),
		"-png",
		"-f", "1",
		"-l", strconv.Itoa(maxPages),
		input,
		filepath.Join(tmpDir, "page"),
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, stderr.String())
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order.
	paths, err := filepath.Glob(filepath.Join(tmpDir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	pages := make([][]byte, 0, len(paths))
	for _, path := range paths {
		img, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page image: %w", err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
