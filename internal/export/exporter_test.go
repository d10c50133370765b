package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

func testFragments() []textproc.TextFragment {
	size := 12.0
	return []textproc.TextFragment{
		{Text: "Hello", X0: 10, Y0: 10, X1: 50, Y1: 22, Width: 40, Height: 12, FontSize: &size, FontName: "Helvetica"},
		{Text: "World", X0: 60, Y0: 11, X1: 100, Y1: 23, Width: 40, Height: 12, FontName: "Helvetica"},
		{Text: "Next page", X0: 10, Y0: 10, X1: 80, Y1: 22, Width: 70, Height: 12, PageIndex: 1},
	}
}

func newTestExporter(t *testing.T, sourceFile string) *Exporter {
	t.Helper()
	e, err := NewExporter(t.TempDir(), sourceFile)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	e.now = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC) }
	return e
}

func writeSourceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	return path
}

func TestNewExporter_OutputDirFromHash(t *testing.T) {
	src := writeSourceFile(t)
	e := newTestExporter(t, src)

	base := filepath.Base(e.OutputDir())
	if !strings.HasPrefix(base, "report_") {
		t.Errorf("Expected dir name 'report_<hash8>', got %q", base)
	}
	suffix := strings.TrimPrefix(base, "report_")
	if len(suffix) != 8 {
		t.Errorf("Expected 8-char hash suffix, got %q", suffix)
	}
	if !strings.HasSuffix(e.FileHash(), suffix) {
		t.Errorf("Dir suffix %q should be the tail of hash %q", suffix, e.FileHash())
	}

	if info, err := os.Stat(e.OutputDir()); err != nil || !info.IsDir() {
		t.Errorf("Output dir not created: %v", err)
	}
}

func TestNewExporter_SameFileSameDir(t *testing.T) {
	src := writeSourceFile(t)
	base := t.TempDir()

	e1, err := NewExporter(base, src)
	if err != nil {
		t.Fatalf("First exporter failed: %v", err)
	}
	e2, err := NewExporter(base, src)
	if err != nil {
		t.Fatalf("Second exporter failed: %v", err)
	}
	if e1.OutputDir() != e2.OutputDir() {
		t.Errorf("Expected identical dirs, got %q and %q", e1.OutputDir(), e2.OutputDir())
	}
}

func TestCopyOriginal(t *testing.T) {
	src := writeSourceFile(t)
	e := newTestExporter(t, src)

	dst, err := e.CopyOriginal()
	if err != nil {
		t.Fatalf("CopyOriginal failed: %v", err)
	}

	want := e.FileHash() + ".pdf"
	if filepath.Base(dst) != want {
		t.Errorf("Expected %q, got %q", want, filepath.Base(dst))
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("Failed to read copy: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("Copy content mismatch: %q", data)
	}
}

func TestCopyOriginal_NoSource(t *testing.T) {
	e := newTestExporter(t, "")
	if _, err := e.CopyOriginal(); err == nil {
		t.Error("Expected error without a source file")
	}
}

func TestWriteJSON(t *testing.T) {
	e := newTestExporter(t, "")

	path, err := e.WriteJSON(testFragments(), map[string]any{"source": "test.pdf"})
	if err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.HasSuffix(path, "extracted_text_20240601_123045.json") {
		t.Errorf("Unexpected filename: %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var doc struct {
		TotalElements int                     `json:"total_elements"`
		Elements      []textproc.TextFragment `json:"elements"`
		Metadata      map[string]any          `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if doc.TotalElements != 3 || len(doc.Elements) != 3 {
		t.Errorf("Expected 3 elements, got %d / %d", doc.TotalElements, len(doc.Elements))
	}
	if doc.Metadata["source"] != "test.pdf" {
		t.Errorf("Metadata not preserved: %v", doc.Metadata)
	}
	if doc.Elements[0].Text != "Hello" {
		t.Errorf("Expected first element 'Hello', got %q", doc.Elements[0].Text)
	}
}

func TestWriteCSV(t *testing.T) {
	e := newTestExporter(t, "")

	path, err := e.WriteCSV(testFragments())
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "text,x0,y0") {
		t.Errorf("Unexpected header: %q", lines[0])
	}
	// Second fragment has no font size: the column is empty.
	if !strings.Contains(lines[2], ",,Helvetica") {
		t.Errorf("Expected empty font_size column in row: %q", lines[2])
	}
}

func TestWriteFeatureVectors(t *testing.T) {
	e := newTestExporter(t, "")
	dims := textproc.PageDimensions{
		0: {Width: 612, Height: 792},
		1: {Width: 612, Height: 792},
	}

	paths, err := e.WriteFeatureVectors(testFragments(), dims)
	if err != nil {
		t.Fatalf("WriteFeatureVectors failed: %v", err)
	}

	for _, key := range []string{"feature_matrix", "aggregate_features", "spatial_grid", "summary"} {
		p, ok := paths[key]
		if !ok {
			t.Errorf("Missing artifact %q", key)
			continue
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Artifact %q not written: %v", key, err)
		}
	}

	raw, err := os.ReadFile(paths["summary"])
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	var summary struct {
		TotalElements   int       `json:"total_elements"`
		TotalPages      int       `json:"total_pages"`
		MatrixShape     []int     `json:"feature_matrix_shape"`
		AggregateVector []float64 `json:"aggregate_vector"`
		PatternVector   []float64 `json:"pattern_vector"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("Summary is not valid JSON: %v", err)
	}
	if summary.TotalElements != 3 || summary.TotalPages != 2 {
		t.Errorf("Unexpected summary counts: %+v", summary)
	}
	if len(summary.MatrixShape) != 2 || summary.MatrixShape[0] != 3 || summary.MatrixShape[1] != textproc.FeatureVectorLen {
		t.Errorf("Unexpected matrix shape: %v", summary.MatrixShape)
	}
	if len(summary.AggregateVector) != 9 {
		t.Errorf("aggregate_vector length = %d, want 9", len(summary.AggregateVector))
	}
	if summary.AggregateVector[0] != 3 {
		t.Errorf("aggregate_vector[0] = %v, want element count 3", summary.AggregateVector[0])
	}
	if len(summary.PatternVector) != 7 {
		t.Errorf("pattern_vector length = %d, want 7", len(summary.PatternVector))
	}
}

func TestWriteFeatureVectors_GridShape(t *testing.T) {
	e := newTestExporter(t, "")
	e.SetGridShape(4, 6)
	dims := textproc.PageDimensions{
		0: {Width: 612, Height: 792},
		1: {Width: 612, Height: 792},
	}

	paths, err := e.WriteFeatureVectors(testFragments(), dims)
	if err != nil {
		t.Fatalf("WriteFeatureVectors failed: %v", err)
	}

	raw, err := os.ReadFile(paths["spatial_grid"])
	if err != nil {
		t.Fatalf("Failed to read grid: %v", err)
	}
	var grid [][]float64
	if err := json.Unmarshal(raw, &grid); err != nil {
		t.Fatalf("Grid is not valid JSON: %v", err)
	}
	if len(grid) != 4 || len(grid[0]) != 6 {
		t.Errorf("Grid shape = %dx%d, want 4x6", len(grid), len(grid[0]))
	}

	raw, err = os.ReadFile(paths["summary"])
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	var summary struct {
		GridShape []int `json:"spatial_grid_shape"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("Summary is not valid JSON: %v", err)
	}
	if len(summary.GridShape) != 2 || summary.GridShape[0] != 4 || summary.GridShape[1] != 6 {
		t.Errorf("Summary grid shape = %v, want [4 6]", summary.GridShape)
	}

	// Non-positive overrides keep the current shape.
	e.SetGridShape(0, -1)
	if e.gridRows != 4 || e.gridCols != 6 {
		t.Errorf("Shape after no-op override = %dx%d, want 4x6", e.gridRows, e.gridCols)
	}
}

func TestWriteFeatureVectors_Empty(t *testing.T) {
	e := newTestExporter(t, "")

	paths, err := e.WriteFeatureVectors(nil, nil)
	if err != nil {
		t.Fatalf("WriteFeatureVectors failed: %v", err)
	}
	if _, ok := paths["feature_matrix"]; ok {
		t.Error("Expected no matrix artifact for empty input")
	}
	if _, ok := paths["summary"]; !ok {
		t.Error("Summary must still be written for empty input")
	}
}

func TestWriteClustering(t *testing.T) {
	e := newTestExporter(t, "")

	path, err := e.WriteClustering(testFragments(), true)
	if err != nil {
		t.Fatalf("WriteClustering failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var doc clusteringData
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(doc.Features) != 3 || len(doc.Labels) != 3 {
		t.Errorf("Expected 3 rows and labels, got %d / %d", len(doc.Features), len(doc.Labels))
	}

	// Normalization also writes the scaler parameters.
	entries, err := os.ReadDir(e.OutputDir())
	if err != nil {
		t.Fatalf("Failed to list output dir: %v", err)
	}
	foundScaler := false
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "clustering_data_scaler_") {
			foundScaler = true
		}
	}
	if !foundScaler {
		t.Error("Expected scaler params file to be written")
	}
}

func TestWriteText_Groupings(t *testing.T) {
	e := newTestExporter(t, "")
	fragments := testFragments()

	linePath, err := e.WriteText(fragments, GroupByLine)
	if err != nil {
		t.Fatalf("WriteText(line) failed: %v", err)
	}
	raw, _ := os.ReadFile(linePath)
	if !strings.Contains(string(raw), "Hello World") {
		t.Errorf("Expected joined line 'Hello World', got %q", raw)
	}

	pagePath, err := e.WriteText(fragments, GroupByPage)
	if err != nil {
		t.Fatalf("WriteText(page) failed: %v", err)
	}
	raw, _ = os.ReadFile(pagePath)
	if !strings.Contains(string(raw), "--- Page 0 ---") || !strings.Contains(string(raw), "--- Page 1 ---") {
		t.Errorf("Expected page markers, got %q", raw)
	}
}

func TestWriteCoordinateReport(t *testing.T) {
	e := newTestExporter(t, "")

	path, err := e.WriteCoordinateReport(testFragments())
	if err != nil {
		t.Fatalf("WriteCoordinateReport failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	report := string(raw)

	for _, want := range []string{
		"PAGE 0", "PAGE 1",
		`"Hello"`,
		"[font: 12.0pt]",
		"SUMMARY STATISTICS",
		"Fonts used:",
		"Helvetica: 2 elements",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestWriteVisualization(t *testing.T) {
	e := newTestExporter(t, "")

	path, err := e.WriteVisualization(testFragments())
	if err != nil {
		t.Fatalf("WriteVisualization failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var doc struct {
		TotalPages    int                          `json:"total_pages"`
		TotalElements int                          `json:"total_elements"`
		Pages         map[string][]json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if doc.TotalPages != 2 || doc.TotalElements != 3 {
		t.Errorf("Unexpected totals: %+v", doc)
	}
	if len(doc.Pages["0"]) != 2 || len(doc.Pages["1"]) != 1 {
		t.Errorf("Unexpected page grouping: %v", doc.Pages)
	}
}
