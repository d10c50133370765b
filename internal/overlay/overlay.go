// Package overlay renders PDF pages to images with fragment bounding
// boxes drawn on top, for visually checking extraction quality.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/textproc"
)

// Options controls page rendering and box drawing.
type Options struct {
	DPI       int
	Quality   int
	BoxColor  color.RGBA
	LineWidth int
}

// DefaultOptions renders at 150 DPI with red 2px boxes.
func DefaultOptions() Options {
	return Options{
		DPI:       150,
		Quality:   85,
		BoxColor:  color.RGBA{R: 255, A: 255},
		LineWidth: 2,
	}
}

// RenderPage renders one page (0-based) as an RGBA image at the given
// DPI.
func RenderPage(pdfPath string, pageIndex, dpi int) (image.Image, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(pageIndex, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageIndex, err)
	}
	return img, nil
}

// RenderPageJPEG renders one page and encodes it as JPEG.
func RenderPageJPEG(pdfPath string, pageIndex int, opts Options) ([]byte, int, int, error) {
	img, err := RenderPage(pdfPath, pageIndex, opts.DPI)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// DrawBoxes copies the page image and draws each fragment's bounding
// box on it. Fragment coordinates are in page units (72 per inch) and
// are scaled by dpi/72 to match the rendered pixels.
func DrawBoxes(img image.Image, fragments []textproc.TextFragment, opts Options) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	scale := float64(opts.DPI) / 72.0
	width := opts.LineWidth
	if width < 1 {
		width = 1
	}

	for _, f := range fragments {
		rect := image.Rect(
			int(f.X0*scale), int(f.Y0*scale),
			int(f.X1*scale), int(f.Y1*scale),
		).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		drawRect(out, rect, opts.BoxColor, width)
	}
	return out
}

// drawRect draws a rectangle outline of the given stroke width.
func drawRect(img *image.RGBA, rect image.Rectangle, c color.RGBA, width int) {
	for w := 0; w < width; w++ {
		r := rect.Inset(w)
		if r.Empty() {
			return
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y, c)
			img.SetRGBA(x, r.Max.Y-1, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X, y, c)
			img.SetRGBA(r.Max.X-1, y, c)
		}
	}
}

// WriteOverlays renders every page that has fragments, draws the
// fragment boxes, and writes page_<n>_overlay.jpg files into outDir.
// Returns the written paths in page order.
func WriteOverlays(pdfPath, outDir string, fragments []textproc.TextFragment, opts Options) ([]string, error) {
	pages := make(map[int][]textproc.TextFragment)
	for _, f := range fragments {
		pages[f.PageIndex] = append(pages[f.PageIndex], f)
	}
	if len(pages) == 0 {
		return nil, nil
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create overlay dir: %w", err)
	}

	var paths []string
	for p := 0; p < doc.NumPage(); p++ {
		frags, ok := pages[p]
		if !ok {
			continue
		}

		img, err := doc.ImageDPI(p, float64(opts.DPI))
		if err != nil {
			log.Warn().Err(err).Int("page", p).Msg("Failed to render page for overlay")
			continue
		}

		annotated := DrawBoxes(img, frags, opts)

		path := filepath.Join(outDir, fmt.Sprintf("page_%d_overlay.jpg", p))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create overlay file: %w", err)
		}
		if err := jpeg.Encode(f, annotated, &jpeg.Options{Quality: opts.Quality}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to encode overlay: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}

		log.Debug().Str("path", path).Int("boxes", len(frags)).Msg("Wrote page overlay")
		paths = append(paths, path)
	}
	return paths, nil
}
