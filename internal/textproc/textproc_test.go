package textproc

// frag builds a test fragment on page 0 with width/height derived from
// the box corners.
func frag(text string, x0, y0, x1, y1 float64) TextFragment {
	return TextFragment{
		Text:   text,
		X0:     x0,
		Y0:     y0,
		X1:     x1,
		Y1:     y1,
		Width:  x1 - x0,
		Height: y1 - y0,
	}
}

func fragOnPage(text string, x0, y0, x1, y1 float64, page int) TextFragment {
	f := frag(text, x0, y0, x1, y1)
	f.PageIndex = page
	return f
}

func fragWithFont(text string, x0, y0, x1, y1, fontSize float64) TextFragment {
	f := frag(text, x0, y0, x1, y1)
	f.FontSize = &fontSize
	return f
}

func lineText(line []TextFragment) string {
	out := ""
	for i, f := range line {
		if i > 0 {
			out += " "
		}
		out += f.Text
	}
	return out
}
