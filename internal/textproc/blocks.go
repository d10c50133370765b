package textproc

import "math"

// Default block tolerances. Paragraphs tolerate wide horizontal
// indentation but only tight vertical gaps, hence the asymmetry.
const (
	DefaultBlockXTolerance = 50.0
	DefaultBlockYTolerance = 20.0

	// blockLineYTolerance is the tight line-level tolerance used when
	// building the intermediate lines for block detection. It is
	// independent of the caller's block-level yTolerance.
	blockLineYTolerance = 5.0
)

// GroupIntoBlocks merges consecutive lines into paragraph-like blocks.
// A line joins the open block when the vertical gap between the
// previous line's bottom and the line's top is within yTolerance AND
// the left edges of the two lines align within xTolerance. The test is
// deliberately a left-edge alignment check, not an overlap check, so a
// block may absorb a much narrower or wider line than its predecessor.
// Blocks never span pages. Each returned block is the flattened
// fragment sequence of its member lines, in reading order.
func GroupIntoBlocks(fragments []TextFragment, xTolerance, yTolerance float64) [][]TextFragment {
	lines := GroupIntoLines(fragments, blockLineYTolerance)
	if len(lines) == 0 {
		return nil
	}

	var blocks [][][]TextFragment
	current := [][]TextFragment{lines[0]}

	for _, line := range lines[1:] {
		prev := current[len(current)-1]

		samePage := line[0].PageIndex == prev[0].PageIndex
		yGap := line[0].Y0 - prev[len(prev)-1].Y1
		xAligned := math.Abs(leftEdge(line)-leftEdge(prev)) <= xTolerance

		if samePage && yGap <= yTolerance && xAligned {
			current = append(current, line)
			continue
		}
		blocks = append(blocks, current)
		current = [][]TextFragment{line}
	}
	blocks = append(blocks, current)

	flattened := make([][]TextFragment, 0, len(blocks))
	for _, block := range blocks {
		var flat []TextFragment
		for _, line := range block {
			flat = append(flat, line...)
		}
		flattened = append(flattened, flat)
	}
	return flattened
}

func leftEdge(line []TextFragment) float64 {
	left := line[0].X0
	for _, f := range line[1:] {
		if f.X0 < left {
			left = f.X0
		}
	}
	return left
}
