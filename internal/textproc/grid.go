package textproc

import (
	"math"
	"unicode/utf8"
)

// Default spatial grid shape.
const (
	DefaultGridRows = 10
	DefaultGridCols = 10
)

// BuildSpatialGrid rasterizes fragments into a rows×cols text-density
// grid per page and returns the element-wise mean across pages. A
// fragment contributes its full text length to every cell its bounding
// box spans; the over-count on multi-cell spans is deliberate and
// callers depend on the magnitude. Pages missing from dims are skipped
// entirely. With no eligible pages the zero grid is returned.
func BuildSpatialGrid(fragments []TextFragment, dims PageDimensions, rows, cols int) [][]float64 {
	if rows <= 0 {
		rows = DefaultGridRows
	}
	if cols <= 0 {
		cols = DefaultGridCols
	}

	pages := splitByPage(fragments)

	var pageGrids [][][]float64
	for _, p := range sortedPageIndices(pages) {
		size, ok := dims[p]
		if !ok {
			continue
		}
		cellW := size.Width / float64(cols)
		cellH := size.Height / float64(rows)
		if cellW <= 0 || cellH <= 0 {
			continue
		}

		grid := newGrid(rows, cols)
		for _, f := range pages[p] {
			startCol := clampIndex(int(math.Floor(f.X0/cellW)), cols)
			endCol := clampIndex(int(math.Floor(f.X1/cellW)), cols)
			startRow := clampIndex(int(math.Floor(f.Y0/cellH)), rows)
			endRow := clampIndex(int(math.Floor(f.Y1/cellH)), rows)

			textLen := float64(utf8.RuneCountInString(f.Text))
			for r := startRow; r <= endRow; r++ {
				for c := startCol; c <= endCol; c++ {
					grid[r][c] += textLen
				}
			}
		}
		pageGrids = append(pageGrids, grid)
	}

	if len(pageGrids) == 0 {
		return newGrid(rows, cols)
	}

	mean := newGrid(rows, cols)
	for _, grid := range pageGrids {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				mean[r][c] += grid[r][c]
			}
		}
	}
	n := float64(len(pageGrids))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mean[r][c] /= n
		}
	}
	return mean
}

func newGrid(rows, cols int) [][]float64 {
	grid := make([][]float64, rows)
	for r := range grid {
		grid[r] = make([]float64, cols)
	}
	return grid
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
