package pdfparse

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"

	fitz "github.com/gen2brain/go-fitz"
)

// DefaultTextThreshold is the minimum number of non-whitespace runes a
// sampled document must yield to count as having a text layer.
const DefaultTextThreshold = 300

// ProbeResult reports how a text-layer probe sampled the document.
type ProbeResult struct {
	TotalPages   int   `json:"total_pages"`
	SampledPages []int `json:"sampled_pages"`
	CharCount    int   `json:"char_count"`
	Threshold    int   `json:"threshold"`
	HasText      bool  `json:"has_text"`
}

// docReader is the slice of document behavior the probe needs,
// separated out so tests can fake it.
type docReader interface {
	NumPage() int
	Text(pageIndex int) (string, error)
	Close() error
}

type fitzReader struct{ doc *fitz.Document }

func (r fitzReader) NumPage() int               { return r.doc.NumPage() }
func (r fitzReader) Text(i int) (string, error) { return r.doc.Text(i) }
func (r fitzReader) Close() error               { return r.doc.Close() }

var openProbeDoc = func(path string) (docReader, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzReader{doc: doc}, nil
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// HasTextLayer samples a few pages and reports whether the PDF
// contains enough extractable text to be worth running through the
// structured extractors. Scanned documents without OCR come back
// false. A non-positive threshold uses DefaultTextThreshold.
func HasTextLayer(pdfPath string, threshold int) (bool, ProbeResult, error) {
	if threshold <= 0 {
		threshold = DefaultTextThreshold
	}

	doc, err := openProbeDoc(pdfPath)
	if err != nil {
		return false, ProbeResult{}, fmt.Errorf("open pdf for probe: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	result := ProbeResult{TotalPages: total, Threshold: threshold, SampledPages: []int{}}
	if total <= 0 {
		return false, result, nil
	}

	result.SampledPages = samplePages(total)
	for _, idx := range result.SampledPages {
		text, err := doc.Text(idx)
		if err != nil {
			continue
		}
		stripped := whitespaceRE.ReplaceAllString(text, "")
		result.CharCount += len([]rune(stripped))
		if result.CharCount >= threshold {
			break
		}
	}

	result.HasText = result.CharCount >= threshold
	return result.HasText, result, nil
}

// samplePages picks up to five page indices: all pages for short
// documents, otherwise first, middle, last plus random fill.
func samplePages(total int) []int {
	if total <= 5 {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	picked := map[int]struct{}{0: {}, total / 2: {}, total - 1: {}}
	for len(picked) < 5 {
		picked[rand.Intn(total)] = struct{}{}
	}

	out := make([]int, 0, len(picked))
	for i := range picked {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
