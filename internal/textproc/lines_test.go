package textproc

import "testing"

func TestGroupIntoLines_Empty(t *testing.T) {
	if got := GroupIntoLines(nil, DefaultLineYTolerance); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
}

func TestGroupIntoLines_SingleFragment(t *testing.T) {
	lines := GroupIntoLines([]TextFragment{frag("Hello", 100, 700, 140, 712)}, DefaultLineYTolerance)

	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if len(lines[0]) != 1 || lines[0][0].Text != "Hello" {
		t.Errorf("Expected single 'Hello' fragment, got %v", lines[0])
	}
}

func TestGroupIntoLines_TwoLines(t *testing.T) {
	fragments := []TextFragment{
		frag("Hello", 10, 10, 50, 22),
		frag("World", 60, 11, 100, 23),
		frag("Below", 10, 40, 50, 52),
	}

	lines := GroupIntoLines(fragments, DefaultLineYTolerance)

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if got := lineText(lines[0]); got != "Hello World" {
		t.Errorf("Expected 'Hello World', got %q", got)
	}
	if got := lineText(lines[1]); got != "Below" {
		t.Errorf("Expected 'Below', got %q", got)
	}
}

func TestGroupIntoLines_SortsWithinLineByX(t *testing.T) {
	fragments := []TextFragment{
		frag("World", 60, 10, 100, 22),
		frag("Hello", 10, 10, 50, 22),
	}

	lines := GroupIntoLines(fragments, DefaultLineYTolerance)

	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if got := lineText(lines[0]); got != "Hello World" {
		t.Errorf("Expected 'Hello World', got %q", got)
	}
}

// A slow vertical drift must not chain into one line: the tolerance is
// measured against the fragment that opened the line, not the latest
// member.
func TestGroupIntoLines_AnchoredTolerance(t *testing.T) {
	fragments := []TextFragment{
		frag("a", 10, 0, 20, 10),
		frag("b", 30, 2, 40, 12),
		frag("c", 50, 4, 60, 14),
		frag("d", 70, 6, 80, 16),
	}

	lines := GroupIntoLines(fragments, 3)

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if got := lineText(lines[0]); got != "a b" {
		t.Errorf("Expected first line 'a b', got %q", got)
	}
	if got := lineText(lines[1]); got != "c d" {
		t.Errorf("Expected second line 'c d', got %q", got)
	}
}

func TestGroupIntoLines_PagesNeverMix(t *testing.T) {
	fragments := []TextFragment{
		fragOnPage("p1", 10, 10, 50, 22, 1),
		fragOnPage("p0", 10, 10, 50, 22, 0),
	}

	lines := GroupIntoLines(fragments, DefaultLineYTolerance)

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0][0].PageIndex != 0 || lines[1][0].PageIndex != 1 {
		t.Errorf("Expected ascending page order, got pages %d then %d",
			lines[0][0].PageIndex, lines[1][0].PageIndex)
	}
}

func TestGroupIntoLines_Partition(t *testing.T) {
	fragments := []TextFragment{
		frag("a", 10, 10, 20, 22),
		frag("b", 30, 11, 40, 23),
		frag("c", 10, 40, 20, 52),
		fragOnPage("d", 10, 10, 20, 22, 2),
	}

	lines := GroupIntoLines(fragments, DefaultLineYTolerance)

	total := 0
	seen := map[string]bool{}
	for _, line := range lines {
		for _, f := range line {
			total++
			seen[f.Text] = true
		}
	}
	if total != len(fragments) {
		t.Errorf("Expected %d fragments across lines, got %d", len(fragments), total)
	}
	for _, f := range fragments {
		if !seen[f.Text] {
			t.Errorf("Fragment %q missing from output", f.Text)
		}
	}
}

func TestGroupIntoLines_DoesNotMutateInput(t *testing.T) {
	fragments := []TextFragment{
		frag("b", 30, 40, 40, 52),
		frag("a", 10, 10, 20, 22),
	}

	GroupIntoLines(fragments, DefaultLineYTolerance)

	if fragments[0].Text != "b" || fragments[1].Text != "a" {
		t.Errorf("Input slice was reordered: %v", fragments)
	}
}
