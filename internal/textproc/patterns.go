package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// PatternFeatures captures structured-content indicators found in the
// concatenated raw text of a fragment collection.
type PatternFeatures struct {
	HasEmail          bool    `json:"has_email"`
	HasPhone          bool    `json:"has_phone"`
	HasURL            bool    `json:"has_url"`
	HasDate           bool    `json:"has_date"`
	NumNumbers        int     `json:"num_numbers"`
	NumUppercaseWords int     `json:"num_uppercase_words"`
	AvgWordLength     float64 `json:"avg_word_length"`
}

var (
	emailRE     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phoneRE     = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	urlRE       = regexp.MustCompile(`https?://[^\s]+`)
	dateRE      = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	numberRE    = regexp.MustCompile(`\b\d+\b`)
	upperWordRE = regexp.MustCompile(`\b[A-Z]{2,}\b`)
)

// Vector flattens the record in struct field order, booleans as 0/1.
func (p PatternFeatures) Vector() []float64 {
	return []float64{
		boolToFloat(p.HasEmail),
		boolToFloat(p.HasPhone),
		boolToFloat(p.HasURL),
		boolToFloat(p.HasDate),
		float64(p.NumNumbers),
		float64(p.NumUppercaseWords),
		p.AvgWordLength,
	}
}

// ExtractPatterns derives content-pattern scalars from the space-joined
// concatenation of all fragment texts. The text is used as-is, not
// cleaned, so patterns split across whitespace are unaffected.
func ExtractPatterns(fragments []TextFragment) PatternFeatures {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		parts = append(parts, f.Text)
	}
	joined := strings.Join(parts, " ")

	return PatternFeatures{
		HasEmail:          emailRE.MatchString(joined),
		HasPhone:          phoneRE.MatchString(joined),
		HasURL:            urlRE.MatchString(joined),
		HasDate:           dateRE.MatchString(joined),
		NumNumbers:        len(numberRE.FindAllString(joined, -1)),
		NumUppercaseWords: len(upperWordRE.FindAllString(joined, -1)),
		AvgWordLength:     avgWordLength(joined),
	}
}

func avgWordLength(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	var total int
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	return float64(total) / float64(len(words))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
