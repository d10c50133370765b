// Package pdfparse extracts positioned text fragments from PDF files.
// Two engines are available: the mutool CLI (structured text with
// per-line boxes and fonts) and the embedded go-fitz library (plain
// text, one fragment per page). Extract picks the best one present.
package pdfparse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

// Binary discovery. $MUPDF_BIN wins over PATH.
var (
	mutoolPath string
	mutoolOnce sync.Once
	mutoolErr  error
)

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func discoverMutool() (string, error) {
	mutoolOnce.Do(func() {
		candidates := []string{}
		if env := strings.TrimSpace(envOr("MUPDF_BIN", "")); env != "" {
			candidates = append(candidates, env)
		}
		exe := "mutool"
		if runtime.GOOS == "windows" {
			exe += ".exe"
		}
		candidates = append(candidates, exe)
		for _, c := range candidates {
			if p, err := exec.LookPath(c); err == nil {
				mutoolPath = p
				break
			}
		}
		if mutoolPath == "" {
			mutoolErr = errors.New("mutool not found: install mupdf-tools or set $MUPDF_BIN")
		}
	})
	return mutoolPath, mutoolErr
}

// StextExtractor extracts positioned fragments via the mutool CLI's
// structured-text JSON output.
type StextExtractor struct{}

// NewStextExtractor creates a mutool-backed extractor.
func NewStextExtractor() *StextExtractor {
	return &StextExtractor{}
}

// IsAvailable reports whether the mutool binary can be found.
func (e *StextExtractor) IsAvailable() bool {
	_, err := discoverMutool()
	return err == nil
}

// mutool `draw -F stext.json` document layout.
type stextDocument struct {
	Pages []stextPage `json:"pages"`
}

type stextPage struct {
	Blocks []stextBlock `json:"blocks"`
}

type stextBlock struct {
	Type  string      `json:"type"`
	BBox  stextBBox   `json:"bbox"`
	Lines []stextLine `json:"lines"`
}

type stextBBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type stextLine struct {
	WMode int       `json:"wmode"`
	BBox  stextBBox `json:"bbox"`
	Font  stextFont `json:"font"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Text  string    `json:"text"`
}

type stextFont struct {
	Name   string  `json:"name"`
	Family string  `json:"family"`
	Size   float64 `json:"size"`
}

// ExtractFragments runs mutool over the whole document and converts
// every structured-text line into a fragment. Lines with empty text
// are dropped.
func (e *StextExtractor) ExtractFragments(ctx context.Context, pdfPath string) ([]textproc.TextFragment, error) {
	bin, err := discoverMutool()
	if err != nil {
		return nil, err
	}

	log.Debug().Str("pdf", pdfPath).Msg("Extracting structured text with mutool")

	cmd := exec.CommandContext(ctx, bin, "draw", "-F", "stext.json", "-o", "-", pdfPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("mutool draw failed: %w: %s", err, stderr.String())
	}

	var doc stextDocument
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse mutool stext output: %w", err)
	}

	fragments := fragmentsFromStext(doc)

	log.Debug().
		Int("pages", len(doc.Pages)).
		Int("fragments", len(fragments)).
		Msg("Extracted structured text fragments")

	return fragments, nil
}

// fragmentsFromStext flattens the structured-text tree into fragments,
// dropping lines whose text is blank. Font size 0 in mutool output
// means unknown.
func fragmentsFromStext(doc stextDocument) []textproc.TextFragment {
	var fragments []textproc.TextFragment
	for pageIdx, page := range doc.Pages {
		for _, block := range page.Blocks {
			for _, line := range block.Lines {
				text := strings.TrimSpace(line.Text)
				if text == "" {
					continue
				}
				f := textproc.TextFragment{
					Text:      text,
					X0:        line.BBox.X,
					Y0:        line.BBox.Y,
					X1:        line.BBox.X + line.BBox.W,
					Y1:        line.BBox.Y + line.BBox.H,
					Width:     line.BBox.W,
					Height:    line.BBox.H,
					PageIndex: pageIdx,
					FontName:  line.Font.Name,
				}
				if line.Font.Size > 0 {
					size := line.Font.Size
					f.FontSize = &size
				}
				fragments = append(fragments, f)
			}
		}
	}
	return fragments
}

// GetPageCount returns the number of pages via `mutool info`.
func (e *StextExtractor) GetPageCount(ctx context.Context, pdfPath string) (int, error) {
	bin, err := discoverMutool()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, bin, "info", pdfPath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to get PDF info with mutool: %w", err)
	}

	for _, line := range strings.Split(string(output), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				count, err := strconv.Atoi(parts[1])
				if err != nil {
					return 0, fmt.Errorf("failed to parse page count: %w", err)
				}
				return count, nil
			}
		}
	}
	return 0, errors.New("page count not found in mutool info output")
}
