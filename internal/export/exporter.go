// Package export persists extraction results in analysis-friendly
// formats: JSON, CSV, plain text groupings, clustering inputs and a
// human-readable coordinate report. All outputs for one source file
// land in a per-file directory keyed by the source content hash.
package export

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

// Exporter writes result files for one source document. The output
// directory is <base>/<name>_<hash8> where hash8 is the last eight hex
// characters of the source's SHA-256, so re-runs of the same file land
// in the same place and different files never collide.
type Exporter struct {
	baseDir    string
	outputDir  string
	sourceFile string
	fileHash   string
	now        func() time.Time

	lineYTol  float64
	blockXTol float64
	blockYTol float64
	gridRows  int
	gridCols  int
}

// NewExporter prepares the per-file output directory. sourceFile may
// be empty, in which case files go directly under baseDir and the
// original cannot be copied.
func NewExporter(baseDir, sourceFile string) (*Exporter, error) {
	e := &Exporter{
		baseDir:    baseDir,
		outputDir:  baseDir,
		sourceFile: sourceFile,
		now:        time.Now,
		lineYTol:   textproc.DefaultLineYTolerance,
		blockXTol:  textproc.DefaultBlockXTolerance,
		blockYTol:  textproc.DefaultBlockYTolerance,
		gridRows:   textproc.DefaultGridRows,
		gridCols:   textproc.DefaultGridCols,
	}

	if sourceFile != "" {
		hash, err := fileSHA256(sourceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to hash source file: %w", err)
		}
		e.fileHash = hash
		name := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
		e.outputDir = filepath.Join(baseDir, fmt.Sprintf("%s_%s", name, hash[len(hash)-8:]))
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return e, nil
}

// SetTolerances overrides the grouping tolerances used by WriteText.
// Zero or negative values keep the current setting.
func (e *Exporter) SetTolerances(lineY, blockX, blockY float64) {
	if lineY > 0 {
		e.lineYTol = lineY
	}
	if blockX > 0 {
		e.blockXTol = blockX
	}
	if blockY > 0 {
		e.blockYTol = blockY
	}
}

// SetGridShape overrides the spatial grid shape used by
// WriteFeatureVectors. Zero or negative values keep the current
// setting.
func (e *Exporter) SetGridShape(rows, cols int) {
	if rows > 0 {
		e.gridRows = rows
	}
	if cols > 0 {
		e.gridCols = cols
	}
}

// OutputDir returns the directory all writes target.
func (e *Exporter) OutputDir() string { return e.outputDir }

// FileHash returns the full SHA-256 of the source file, empty when no
// source was given.
func (e *Exporter) FileHash() string { return e.fileHash }

// CopyOriginal copies the source document into the output directory
// as <sha256><ext>, keeping the raw input next to its derived data.
func (e *Exporter) CopyOriginal() (string, error) {
	if e.sourceFile == "" || e.fileHash == "" {
		return "", fmt.Errorf("no source file to copy")
	}

	dst := filepath.Join(e.outputDir, e.fileHash+filepath.Ext(e.sourceFile))

	in, err := os.Open(e.sourceFile)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create copy: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("failed to copy original: %w", err)
	}

	log.Debug().Str("dst", dst).Msg("Copied original file into output dir")
	return dst, nil
}

func (e *Exporter) outputPath(baseName, ext string) string {
	stamp := e.now().Format("20060102_150405")
	return filepath.Join(e.outputDir, fmt.Sprintf("%s_%s.%s", baseName, stamp, ext))
}

// WriteJSON saves all fragments with their coordinates and optional
// caller metadata.
func (e *Exporter) WriteJSON(fragments []textproc.TextFragment, metadata map[string]any) (string, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	data := map[string]any{
		"metadata":             metadata,
		"extraction_timestamp": e.now().Format(time.RFC3339),
		"total_elements":       len(fragments),
		"elements":             fragments,
	}

	path := e.outputPath("extracted_text", "json")
	if err := writeJSONFile(path, data); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Int("elements", len(fragments)).Msg("Exported JSON")
	return path, nil
}

// WriteCSV saves one row per fragment with derived geometry columns.
func (e *Exporter) WriteCSV(fragments []textproc.TextFragment) (string, error) {
	path := e.outputPath("extracted_text", "csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"text", "x0", "y0", "x1", "y1", "width", "height",
		"center_x", "center_y", "area", "page_index",
		"font_size", "font_name",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, frag := range fragments {
		fontSize := ""
		if frag.FontSize != nil {
			fontSize = formatFloat(*frag.FontSize)
		}
		row := []string{
			frag.Text,
			formatFloat(frag.X0), formatFloat(frag.Y0),
			formatFloat(frag.X1), formatFloat(frag.Y1),
			formatFloat(frag.Width), formatFloat(frag.Height),
			formatFloat(frag.CenterX()), formatFloat(frag.CenterY()),
			formatFloat(frag.Area()),
			strconv.Itoa(frag.PageIndex),
			fontSize,
			frag.FontName,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	log.Info().Str("path", path).Int("elements", len(fragments)).Msg("Exported CSV")
	return path, nil
}

// WriteFeatureVectors saves the numeric feature views: the
// per-fragment matrix, the aggregate record, the spatial grid and a
// summary tying them together. Returns the written paths keyed by
// artifact name.
func (e *Exporter) WriteFeatureVectors(fragments []textproc.TextFragment, dims textproc.PageDimensions) (map[string]string, error) {
	set := textproc.AssembleFeatureMatrixGrid(fragments, dims, e.gridRows, e.gridCols)
	paths := make(map[string]string)

	if len(set.Matrix) > 0 {
		matrixPath := e.outputPath("feature_vectors_matrix", "json")
		if err := writeJSONFile(matrixPath, set.Matrix); err != nil {
			return nil, err
		}
		paths["feature_matrix"] = matrixPath
	}

	aggPath := e.outputPath("feature_vectors_aggregate", "json")
	if err := writeJSONFile(aggPath, set.Aggregate); err != nil {
		return nil, err
	}
	paths["aggregate_features"] = aggPath

	gridPath := e.outputPath("feature_vectors_spatial_grid", "json")
	if err := writeJSONFile(gridPath, set.Grid); err != nil {
		return nil, err
	}
	paths["spatial_grid"] = gridPath

	pages := map[int]bool{}
	for _, frag := range fragments {
		pages[frag.PageIndex] = true
	}
	matrixRows := len(set.Matrix)
	matrixCols := 0
	if matrixRows > 0 {
		matrixCols = len(set.Matrix[0])
	}
	summary := map[string]any{
		"total_elements":       len(fragments),
		"total_pages":          len(pages),
		"aggregate_features":   set.Aggregate,
		"aggregate_vector":     set.Aggregate.Vector(),
		"pattern_features":     set.Patterns,
		"pattern_vector":       set.Patterns.Vector(),
		"spatial_grid_shape":   []int{len(set.Grid), gridCols(set.Grid)},
		"feature_matrix_shape": []int{matrixRows, matrixCols},
	}
	summaryPath := e.outputPath("feature_vectors_summary", "json")
	if err := writeJSONFile(summaryPath, summary); err != nil {
		return nil, err
	}
	paths["summary"] = summaryPath

	log.Info().Int("artifacts", len(paths)).Msg("Exported feature vectors")
	return paths, nil
}

// clusteringData is the JSON shape written by WriteClustering.
type clusteringData struct {
	Features [][]float64 `json:"features"`
	Labels   []string    `json:"labels"`
}

// WriteClustering saves spatial clustering rows with text labels.
// With normalize set, columns are standardized and the fitted scaler
// parameters are written alongside.
func (e *Exporter) WriteClustering(fragments []textproc.TextFragment, normalize bool) (string, error) {
	features, labels := textproc.ClusteringVectors(fragments)

	if normalize && len(features) > 0 {
		scaled, params := textproc.Standardize(features)
		features = scaled

		scalerPath := e.outputPath("clustering_data_scaler", "json")
		if err := writeJSONFile(scalerPath, params); err != nil {
			return "", err
		}
	}

	path := e.outputPath("clustering_data", "json")
	if err := writeJSONFile(path, clusteringData{Features: features, Labels: labels}); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("rows", len(features)).Msg("Exported clustering data")
	return path, nil
}

// TextGrouping selects how WriteText arranges fragments.
type TextGrouping string

const (
	GroupByLine  TextGrouping = "line"
	GroupByBlock TextGrouping = "block"
	GroupByPage  TextGrouping = "page"
)

// WriteText saves plain text, one line per text line, blank-line
// separated blocks, or page sections, depending on groupBy. Any other
// value dumps all text space-joined.
func (e *Exporter) WriteText(fragments []textproc.TextFragment, groupBy TextGrouping) (string, error) {
	path := e.outputPath("extracted_text", "txt")

	var sb strings.Builder
	switch groupBy {
	case GroupByLine:
		for _, line := range textproc.GroupIntoLines(fragments, e.lineYTol) {
			sb.WriteString(joinTexts(line))
			sb.WriteString("\n")
		}
	case GroupByBlock:
		blocks := textproc.GroupIntoBlocks(fragments, e.blockXTol, e.blockYTol)
		for _, block := range blocks {
			sb.WriteString(joinTexts(block))
			sb.WriteString("\n\n")
		}
	case GroupByPage:
		pages := splitPages(fragments)
		for _, p := range sortedKeys(pages) {
			fmt.Fprintf(&sb, "--- Page %d ---\n", p)
			sb.WriteString(joinTexts(pages[p]))
			sb.WriteString("\n\n")
		}
	default:
		sb.WriteString(joinTexts(fragments))
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write text: %w", err)
	}

	log.Info().Str("path", path).Str("group_by", string(groupBy)).Msg("Exported text")
	return path, nil
}

// WriteVisualization saves per-page element boxes for rendering
// front-ends.
func (e *Exporter) WriteVisualization(fragments []textproc.TextFragment) (string, error) {
	type vizElement struct {
		Text   string    `json:"text"`
		BBox   []float64 `json:"bbox"`
		Center []float64 `json:"center"`
		Size   *float64  `json:"size"`
		Area   float64   `json:"area"`
	}

	pages := make(map[string][]vizElement)
	for _, frag := range fragments {
		key := strconv.Itoa(frag.PageIndex)
		pages[key] = append(pages[key], vizElement{
			Text:   frag.Text,
			BBox:   []float64{frag.X0, frag.Y0, frag.X1, frag.Y1},
			Center: []float64{frag.CenterX(), frag.CenterY()},
			Size:   frag.FontSize,
			Area:   frag.Area(),
		})
	}

	data := map[string]any{
		"pages":          pages,
		"total_pages":    len(pages),
		"total_elements": len(fragments),
	}

	path := e.outputPath("visualization", "json")
	if err := writeJSONFile(path, data); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("Exported visualization data")
	return path, nil
}

// WriteCoordinateReport saves a human-readable listing of every
// fragment with its geometry, followed by summary statistics and a
// font usage table.
func (e *Exporter) WriteCoordinateReport(fragments []textproc.TextFragment) (string, error) {
	path := e.outputPath("text_with_coordinates", "txt")

	var sb strings.Builder
	sb.WriteString("Extracted Text with Vector Coordinates\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&sb, "Total elements: %d\n", len(fragments))
	fmt.Fprintf(&sb, "Extraction date: %s\n\n", e.now().Format("2006-01-02 15:04:05"))

	pages := splitPages(fragments)
	for _, p := range sortedKeys(pages) {
		fmt.Fprintf(&sb, "PAGE %d\n", p)
		sb.WriteString(strings.Repeat("-", 20) + "\n")

		elems := make([]textproc.TextFragment, len(pages[p]))
		copy(elems, pages[p])
		sort.SliceStable(elems, func(i, j int) bool {
			if elems[i].Y0 != elems[j].Y0 {
				return elems[i].Y0 < elems[j].Y0
			}
			return elems[i].X0 < elems[j].X0
		})

		for i, frag := range elems {
			fmt.Fprintf(&sb, "[%3d] %q -> (%.1f, %.1f, %.1f, %.1f) [center: (%.1f, %.1f)] [size: %.1fx%.1f]",
				i+1, frag.Text,
				frag.X0, frag.Y0, frag.X1, frag.Y1,
				frag.CenterX(), frag.CenterY(),
				frag.Width, frag.Height)
			if frag.FontSize != nil {
				fmt.Fprintf(&sb, " [font: %.1fpt]", *frag.FontSize)
			}
			if frag.FontName != "" {
				fmt.Fprintf(&sb, " [%s]", frag.FontName)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("SUMMARY STATISTICS\n")
	sb.WriteString(strings.Repeat("=", 20) + "\n")

	if len(fragments) > 0 {
		agg := textproc.ComputeAggregateFeatures(fragments)

		minX, minY := fragments[0].X0, fragments[0].Y0
		maxX, maxY := fragments[0].X1, fragments[0].Y1
		for _, frag := range fragments[1:] {
			if frag.X0 < minX {
				minX = frag.X0
			}
			if frag.Y0 < minY {
				minY = frag.Y0
			}
			if frag.X1 > maxX {
				maxX = frag.X1
			}
			if frag.Y1 > maxY {
				maxY = frag.Y1
			}
		}

		fmt.Fprintf(&sb, "Total characters: %d\n", agg.TotalChars)
		fmt.Fprintf(&sb, "Average font size: %.1fpt\n", agg.AvgFontSize)
		fmt.Fprintf(&sb, "Text bounding box: (%.1f, %.1f) to (%.1f, %.1f)\n", minX, minY, maxX, maxY)
		fmt.Fprintf(&sb, "Document area covered: %.1f x %.1f\n", maxX-minX, maxY-minY)

		fontCounts := map[string]int{}
		for _, frag := range fragments {
			if frag.FontName != "" {
				fontCounts[frag.FontName]++
			}
		}
		if len(fontCounts) > 0 {
			sb.WriteString("\nFonts used:\n")
			names := make([]string, 0, len(fontCounts))
			for name := range fontCounts {
				names = append(names, name)
			}
			sort.Slice(names, func(i, j int) bool {
				if fontCounts[names[i]] != fontCounts[names[j]] {
					return fontCounts[names[i]] > fontCounts[names[j]]
				}
				return names[i] < names[j]
			})
			for _, name := range names {
				fmt.Fprintf(&sb, "  %s: %d elements\n", name, fontCounts[name])
			}
		}
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write coordinate report: %w", err)
	}

	log.Info().Str("path", path).Msg("Exported coordinate report")
	return path, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func gridCols(grid [][]float64) int {
	if len(grid) == 0 {
		return 0
	}
	return len(grid[0])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinTexts(fragments []textproc.TextFragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, " ")
}

func splitPages(fragments []textproc.TextFragment) map[int][]textproc.TextFragment {
	pages := make(map[int][]textproc.TextFragment)
	for _, f := range fragments {
		pages[f.PageIndex] = append(pages[f.PageIndex], f)
	}
	return pages
}

func sortedKeys(pages map[int][]textproc.TextFragment) []int {
	keys := make([]int, 0, len(pages))
	for k := range pages {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
