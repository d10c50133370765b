package textproc

import (
	"math"
	"unicode/utf8"
)

// FeatureSet bundles every numeric view of a fragment collection that
// downstream consumers need: a per-fragment matrix plus document-level
// aggregate and pattern vectors.
type FeatureSet struct {
	Matrix    [][]float64       `json:"matrix"`
	Aggregate AggregateFeatures `json:"aggregate"`
	Patterns  PatternFeatures   `json:"patterns"`
	Grid      [][]float64       `json:"grid"`
}

// AssembleFeatureMatrix computes per-fragment feature rows together with
// the aggregate, pattern and grid summaries. The matrix row order
// matches the input fragment order. An empty input yields a nil matrix,
// zero-valued summaries and a zero grid.
func AssembleFeatureMatrix(fragments []TextFragment, dims PageDimensions) FeatureSet {
	return AssembleFeatureMatrixGrid(fragments, dims, DefaultGridRows, DefaultGridCols)
}

// AssembleFeatureMatrixGrid is AssembleFeatureMatrix with an explicit
// spatial grid shape. Non-positive rows or cols fall back to the
// defaults.
func AssembleFeatureMatrixGrid(fragments []TextFragment, dims PageDimensions, gridRows, gridCols int) FeatureSet {
	var matrix [][]float64
	if len(fragments) > 0 {
		matrix = make([][]float64, 0, len(fragments))
		for _, f := range fragments {
			matrix = append(matrix, f.FeatureVector())
		}
	}
	return FeatureSet{
		Matrix:    matrix,
		Aggregate: ComputeAggregateFeatures(fragments),
		Patterns:  ExtractPatterns(fragments),
		Grid:      BuildSpatialGrid(fragments, dims, gridRows, gridCols),
	}
}

// NormalizeFragments cleans every fragment's text in place and drops
// fragments whose text is empty after cleaning. Coordinates are left
// untouched.
func NormalizeFragments(fragments []TextFragment) []TextFragment {
	if len(fragments) == 0 {
		return nil
	}
	out := make([]TextFragment, 0, len(fragments))
	for _, f := range fragments {
		f.Text = CleanText(f.Text)
		if f.Text == "" {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeCoordinates scales fragment geometry into [0,1] page
// space using the page dimensions. Fragments on pages missing from
// dims, or on pages with non-positive dimensions, pass through
// unchanged. The input is not mutated.
func NormalizeCoordinates(fragments []TextFragment, dims PageDimensions) []TextFragment {
	if len(fragments) == 0 {
		return nil
	}
	out := make([]TextFragment, 0, len(fragments))
	for _, f := range fragments {
		size, ok := dims[f.PageIndex]
		if !ok || size.Width <= 0 || size.Height <= 0 {
			out = append(out, f)
			continue
		}
		f.X0 /= size.Width
		f.X1 /= size.Width
		f.Y0 /= size.Height
		f.Y1 /= size.Height
		f.Width = f.X1 - f.X0
		f.Height = f.Y1 - f.Y0
		out = append(out, f)
	}
	return out
}

// ClusteringVectorLen is the width of each row produced by ClusteringVectors.
const ClusteringVectorLen = 7

// ClusteringVectors builds compact spatial rows suited for clustering:
// [centerX, centerY, width, height, area, textLength, fontSize]. Missing
// font sizes contribute 0. The returned labels slice carries the cleaned
// text for each row, aligned by index.
func ClusteringVectors(fragments []TextFragment) ([][]float64, []string) {
	if len(fragments) == 0 {
		return nil, nil
	}
	vectors := make([][]float64, 0, len(fragments))
	labels := make([]string, 0, len(fragments))
	for _, f := range fragments {
		size := 0.0
		if f.FontSize != nil {
			size = *f.FontSize
		}
		vectors = append(vectors, []float64{
			f.CenterX(), f.CenterY(),
			f.X1 - f.X0, f.Y1 - f.Y0,
			f.Area(),
			float64(utf8.RuneCountInString(f.Text)),
			size,
		})
		labels = append(labels, CleanText(f.Text))
	}
	return vectors, labels
}

// ScalerParams holds per-column standardization parameters so the same
// transform can be replayed on new rows.
type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Standardize centers each matrix column to zero mean and unit variance,
// returning the transformed copy and the fitted parameters. Columns with
// zero variance keep a scale of 1 so they map to all zeros rather than
// dividing by zero. Rows must share a width.
func Standardize(matrix [][]float64) ([][]float64, ScalerParams) {
	if len(matrix) == 0 {
		return nil, ScalerParams{}
	}
	cols := len(matrix[0])
	mean := make([]float64, cols)
	scale := make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		for i := range matrix {
			sum += matrix[i][j]
		}
		mean[j] = sum / float64(len(matrix))
	}
	for j := 0; j < cols; j++ {
		var sq float64
		for i := range matrix {
			d := matrix[i][j] - mean[j]
			sq += d * d
		}
		s := math.Sqrt(sq / float64(len(matrix)))
		if s == 0 {
			s = 1
		}
		scale[j] = s
	}

	out := make([][]float64, len(matrix))
	for i := range matrix {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = (matrix[i][j] - mean[j]) / scale[j]
		}
		out[i] = row
	}
	return out, ScalerParams{Mean: mean, Scale: scale}
}
