// Package textproc turns positioned text fragments into reading-order
// groupings (lines, blocks) and fixed-shape numeric feature
// representations. Every operation is a pure function of its input:
// nothing here mutates fragments, touches disk, or keeps state between
// calls, so concurrent callers need no locking.
package textproc

import "sort"

// TextFragment is one unit of extracted text with its bounding box in
// page coordinates. Fragments are produced by the extraction layer
// (mutool/go-fitz) and consumed read-only by everything in this package.
type TextFragment struct {
	Text      string   `json:"text"`
	X0        float64  `json:"x0"`
	Y0        float64  `json:"y0"`
	X1        float64  `json:"x1"`
	Y1        float64  `json:"y1"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	PageIndex int      `json:"page_index"`
	FontSize  *float64 `json:"font_size,omitempty"`
	FontName  string   `json:"font_name,omitempty"`
}

// PageSize holds the dimensions of a single page in page units.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageDimensions maps page index to page size. Pages absent from the
// map are skipped by grid construction.
type PageDimensions map[int]PageSize

// CenterX returns the X coordinate of the fragment center.
func (f TextFragment) CenterX() float64 { return (f.X0 + f.X1) / 2 }

// CenterY returns the Y coordinate of the fragment center.
func (f TextFragment) CenterY() float64 { return (f.Y0 + f.Y1) / 2 }

// Area returns the bounding box area.
func (f TextFragment) Area() float64 { return (f.X1 - f.X0) * (f.Y1 - f.Y0) }

// FeatureVector encodes the fragment geometry as a fixed-length numeric
// vector: x0, y0, x1, y1, centerX, centerY, width, height, area,
// font size (0 when absent) and page index.
func (f TextFragment) FeatureVector() []float64 {
	size := 0.0
	if f.FontSize != nil {
		size = *f.FontSize
	}
	return []float64{
		f.X0, f.Y0, f.X1, f.Y1,
		f.CenterX(), f.CenterY(),
		f.Width, f.Height, f.Area(),
		size,
		float64(f.PageIndex),
	}
}

// FeatureVectorLen is the length of the vector returned by FeatureVector.
const FeatureVectorLen = 11

// splitByPage partitions fragments by page index, preserving input
// order within each page.
func splitByPage(fragments []TextFragment) map[int][]TextFragment {
	pages := make(map[int][]TextFragment)
	for _, f := range fragments {
		pages[f.PageIndex] = append(pages[f.PageIndex], f)
	}
	return pages
}

// sortedPageIndices returns page keys in ascending order.
func sortedPageIndices(pages map[int][]TextFragment) []int {
	idx := make([]int, 0, len(pages))
	for p := range pages {
		idx = append(idx, p)
	}
	sort.Ints(idx)
	return idx
}
