package pdfparse

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

// Method names the engine that produced a Result.
type Method string

const (
	MethodStext Method = "mutool_stext"
	MethodFitz  Method = "gofitz"
)

// Result is the output of a full document extraction.
type Result struct {
	Fragments []textproc.TextFragment
	Dims      textproc.PageDimensions
	PageCount int
	Method    Method
}

// Extract pulls positioned fragments and page dimensions from a PDF.
// It prefers mutool structured text and falls back to go-fitz page
// text when mutool is not installed. Fragment text is normalized
// before return.
func Extract(ctx context.Context, pdfPath string) (*Result, error) {
	dims, err := PageDims(pdfPath)
	if err != nil {
		// Extraction can still proceed; the spatial grid will simply
		// skip pages with unknown dimensions.
		log.Warn().Err(err).Str("pdf", pdfPath).Msg("Could not read page dimensions")
		dims = textproc.PageDimensions{}
	}

	stext := NewStextExtractor()
	if stext.IsAvailable() {
		fragments, err := stext.ExtractFragments(ctx, pdfPath)
		if err == nil {
			return &Result{
				Fragments: textproc.NormalizeFragments(fragments),
				Dims:      dims,
				PageCount: pageCountOrZero(pdfPath),
				Method:    MethodStext,
			}, nil
		}
		log.Warn().Err(err).Str("pdf", pdfPath).Msg("mutool extraction failed, falling back to go-fitz")
	}

	fitz := NewFitzExtractor()
	fragments, err := fitz.ExtractFragments(pdfPath, dims)
	if err != nil {
		return nil, err
	}
	return &Result{
		Fragments: textproc.NormalizeFragments(fragments),
		Dims:      dims,
		PageCount: pageCountOrZero(pdfPath),
		Method:    MethodFitz,
	}, nil
}

func pageCountOrZero(pdfPath string) int {
	count, err := PageCount(pdfPath)
	if err != nil {
		log.Warn().Err(err).Str("pdf", pdfPath).Msg("Could not count pages")
		return 0
	}
	return count
}
