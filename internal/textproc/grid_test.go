package textproc

import (
	"math"
	"testing"
)

func gridSum(grid [][]float64) float64 {
	var sum float64
	for _, row := range grid {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}

func TestBuildSpatialGrid_Empty(t *testing.T) {
	grid := BuildSpatialGrid(nil, nil, DefaultGridRows, DefaultGridCols)

	if len(grid) != DefaultGridRows {
		t.Fatalf("Expected %d rows, got %d", DefaultGridRows, len(grid))
	}
	for r, row := range grid {
		if len(row) != DefaultGridCols {
			t.Fatalf("Expected %d cols in row %d, got %d", DefaultGridCols, r, len(row))
		}
	}
	if gridSum(grid) != 0 {
		t.Errorf("Expected zero grid, got sum %v", gridSum(grid))
	}
}

func TestBuildSpatialGrid_SingleCellFragment(t *testing.T) {
	dims := PageDimensions{0: {Width: 100, Height: 100}}
	fragments := []TextFragment{frag("abcde", 2, 2, 8, 8)}

	grid := BuildSpatialGrid(fragments, dims, 10, 10)

	if grid[0][0] != 5 {
		t.Errorf("Expected 5 in cell (0,0), got %v", grid[0][0])
	}
	if gridSum(grid) != 5 {
		t.Errorf("Expected total mass 5, got %v", gridSum(grid))
	}
}

// A fragment spanning several cells deposits its full text length in
// each spanned cell.
func TestBuildSpatialGrid_SpanOverCounts(t *testing.T) {
	dims := PageDimensions{0: {Width: 100, Height: 100}}
	// Spans columns 0..2 within row 0.
	fragments := []TextFragment{frag("abc", 2, 2, 25, 8)}

	grid := BuildSpatialGrid(fragments, dims, 10, 10)

	for c := 0; c <= 2; c++ {
		if grid[0][c] != 3 {
			t.Errorf("Expected 3 in cell (0,%d), got %v", c, grid[0][c])
		}
	}
	if gridSum(grid) != 9 {
		t.Errorf("Expected total 9 across spanned cells, got %v", gridSum(grid))
	}
}

func TestBuildSpatialGrid_ClampsOutOfBounds(t *testing.T) {
	dims := PageDimensions{0: {Width: 100, Height: 100}}
	fragments := []TextFragment{
		frag("edge", 95, 95, 105, 105),
		frag("neg", -5, -5, 2, 2),
	}

	grid := BuildSpatialGrid(fragments, dims, 10, 10)

	if grid[9][9] != 4 {
		t.Errorf("Expected 4 in bottom-right cell, got %v", grid[9][9])
	}
	if grid[0][0] != 3 {
		t.Errorf("Expected 3 in top-left cell, got %v", grid[0][0])
	}
}

func TestBuildSpatialGrid_SkipsPagesWithoutDims(t *testing.T) {
	dims := PageDimensions{0: {Width: 100, Height: 100}}
	fragments := []TextFragment{
		fragOnPage("kept", 2, 2, 8, 8, 0),
		fragOnPage("dropped", 2, 2, 8, 8, 1),
	}

	grid := BuildSpatialGrid(fragments, dims, 10, 10)

	if gridSum(grid) != 4 {
		t.Errorf("Expected only page 0 mass (4), got %v", gridSum(grid))
	}
}

func TestBuildSpatialGrid_MeanAcrossPages(t *testing.T) {
	dims := PageDimensions{
		0: {Width: 100, Height: 100},
		1: {Width: 100, Height: 100},
	}
	fragments := []TextFragment{
		fragOnPage("ab", 2, 2, 8, 8, 0),
		fragOnPage("abcd", 2, 2, 8, 8, 1),
	}

	grid := BuildSpatialGrid(fragments, dims, 10, 10)

	if math.Abs(grid[0][0]-3) > 1e-9 {
		t.Errorf("Expected mean 3 in cell (0,0), got %v", grid[0][0])
	}
}

func TestBuildSpatialGrid_DefaultsOnBadShape(t *testing.T) {
	grid := BuildSpatialGrid(nil, nil, 0, -1)

	if len(grid) != DefaultGridRows || len(grid[0]) != DefaultGridCols {
		t.Errorf("Expected %dx%d grid, got %dx%d",
			DefaultGridRows, DefaultGridCols, len(grid), len(grid[0]))
	}
}
