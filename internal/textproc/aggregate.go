package textproc

import (
	"math"
	"unicode/utf8"
)

// AggregateFeatures summarizes a fragment collection with scalar
// statistics. The zero value is the correct result for an empty
// collection: every field present, every division guarded.
type AggregateFeatures struct {
	NumElements    int     `json:"num_elements"`
	TotalArea      float64 `json:"total_area"`
	AvgArea        float64 `json:"avg_area"`
	AvgFontSize    float64 `json:"avg_font_size"`
	TextDensity    float64 `json:"text_density"`
	SpatialSpreadX float64 `json:"spatial_spread_x"`
	SpatialSpreadY float64 `json:"spatial_spread_y"`
	CoverageRatio  float64 `json:"coverage_ratio"`
	TotalChars     int     `json:"total_chars"`
}

// Vector flattens the record in struct field order.
func (a AggregateFeatures) Vector() []float64 {
	return []float64{
		float64(a.NumElements),
		a.TotalArea,
		a.AvgArea,
		a.AvgFontSize,
		a.TextDensity,
		a.SpatialSpreadX,
		a.SpatialSpreadY,
		a.CoverageRatio,
		float64(a.TotalChars),
	}
}

// ComputeAggregateFeatures computes document-level statistics over the
// collection. Fragments without a font size are excluded from the font
// size mean rather than treated as zero.
func ComputeAggregateFeatures(fragments []TextFragment) AggregateFeatures {
	if len(fragments) == 0 {
		return AggregateFeatures{}
	}

	agg := AggregateFeatures{NumElements: len(fragments)}

	var fontSum float64
	var fontCount int
	centersX := make([]float64, 0, len(fragments))
	centersY := make([]float64, 0, len(fragments))

	minX, minY := fragments[0].X0, fragments[0].Y0
	maxX, maxY := fragments[0].X1, fragments[0].Y1

	for _, f := range fragments {
		agg.TotalArea += f.Area()
		agg.TotalChars += utf8.RuneCountInString(f.Text)
		if f.FontSize != nil {
			fontSum += *f.FontSize
			fontCount++
		}
		centersX = append(centersX, f.CenterX())
		centersY = append(centersY, f.CenterY())

		minX = math.Min(minX, f.X0)
		minY = math.Min(minY, f.Y0)
		maxX = math.Max(maxX, f.X1)
		maxY = math.Max(maxY, f.Y1)
	}

	agg.AvgArea = agg.TotalArea / float64(len(fragments))
	if fontCount > 0 {
		agg.AvgFontSize = fontSum / float64(fontCount)
	}
	if agg.TotalArea > 0 {
		agg.TextDensity = float64(agg.TotalChars) / agg.TotalArea
	}
	if len(fragments) > 1 {
		agg.SpatialSpreadX = stdDev(centersX)
		agg.SpatialSpreadY = stdDev(centersY)
	}
	if bboxArea := (maxX - minX) * (maxY - minY); bboxArea > 0 {
		agg.CoverageRatio = agg.TotalArea / bboxArea
	}
	return agg
}

// stdDev returns the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
