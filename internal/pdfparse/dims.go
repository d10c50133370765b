package pdfparse

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

// PageDims reads the media box of every page with pdfcpu and returns
// the sizes keyed by zero-based page index.
func PageDims(pdfPath string) (textproc.PageDimensions, error) {
	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	out := make(textproc.PageDimensions, len(dims))
	for i, d := range dims {
		out[i] = textproc.PageSize{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// PageCount returns the number of pages with pdfcpu. It is cheaper
// than opening the document with an extraction engine.
func PageCount(pdfPath string) (int, error) {
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}
