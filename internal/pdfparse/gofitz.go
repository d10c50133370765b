package pdfparse

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

// FitzExtractor uses the embedded go-fitz library. It has no external
// tool dependency but cannot report sub-page positions, so each page
// becomes a single full-page fragment.
type FitzExtractor struct{}

// NewFitzExtractor creates a go-fitz based extractor.
func NewFitzExtractor() *FitzExtractor {
	return &FitzExtractor{}
}

// IsAvailable always returns true since go-fitz is embedded.
func (g *FitzExtractor) IsAvailable() bool {
	return true
}

// GetPageCount returns the number of pages in a PDF.
func (g *FitzExtractor) GetPageCount(pdfPath string) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// ExtractFragments produces one fragment per non-empty page, spanning
// the page box from dims when known and left zero-sized otherwise.
func (g *FitzExtractor) ExtractFragments(pdfPath string, dims textproc.PageDimensions) ([]textproc.TextFragment, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var fragments []textproc.TextFragment
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("Failed to extract text from page")
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		f := textproc.TextFragment{
			Text:      text,
			PageIndex: i,
		}
		if size, ok := dims[i]; ok {
			f.X1 = size.Width
			f.Y1 = size.Height
			f.Width = size.Width
			f.Height = size.Height
		}
		fragments = append(fragments, f)
	}

	log.Debug().
		Int("pages", doc.NumPage()).
		Int("fragments", len(fragments)).
		Msg("Extracted page text with go-fitz")

	return fragments, nil
}

// ExtractText extracts all text from a PDF as plain text with blank
// lines between pages.
func (g *FitzExtractor) ExtractText(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var result strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("Failed to extract text from page")
			continue
		}
		if i > 0 {
			result.WriteString("\n\n")
		}
		result.WriteString(text)
	}
	return result.String(), nil
}
