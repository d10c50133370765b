package textproc

import (
	"math"
	"sort"
)

// DefaultLineYTolerance is the default Y-distance tolerance for
// grouping fragments into one line, in page units.
const DefaultLineYTolerance = 3.0

// GroupIntoLines partitions fragments into horizontal text lines.
// Pages are processed independently in ascending page-index order;
// within a page, fragments are scanned in (y0, x0) order and a fragment
// joins the open line while its y0 is within yTolerance of the line's
// anchor. The anchor is the y0 of the fragment that opened the line and
// never moves, so a long run of slowly drifting Y values cannot merge
// into a single line. Each emitted line is sorted left to right by x0.
func GroupIntoLines(fragments []TextFragment, yTolerance float64) [][]TextFragment {
	if len(fragments) == 0 {
		return nil
	}

	pages := splitByPage(fragments)

	var lines [][]TextFragment
	for _, p := range sortedPageIndices(pages) {
		lines = append(lines, groupPageLines(pages[p], yTolerance)...)
	}
	return lines
}

func groupPageLines(fragments []TextFragment, yTolerance float64) [][]TextFragment {
	sorted := make([]TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var lines [][]TextFragment
	current := []TextFragment{sorted[0]}
	anchorY := sorted[0].Y0

	for _, f := range sorted[1:] {
		if math.Abs(f.Y0-anchorY) <= yTolerance {
			current = append(current, f)
			continue
		}
		lines = append(lines, sortLineByX(current))
		current = []TextFragment{f}
		anchorY = f.Y0
	}
	return append(lines, sortLineByX(current))
}

func sortLineByX(line []TextFragment) []TextFragment {
	sort.SliceStable(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })
	return line
}
