package text

import "strings"

// Run is a run of text in a single font, as the layout sees it.
type Run struct {
	Text string
	Font Font
}

// Line is one line of a broken run.
type Line struct {
	Text  string
	Width float64
}

// MaxContentWidth is the width of the widest hard line (no soft wrapping).
func (r Run) MaxContentWidth() float64 {
	w := 0.0
	for _, line := range strings.Split(r.Text, "\n") {
		w = max(w, r.Font.Advance(strings.Join(splitIntoWords(line), " ")))
	}
	return w
}

// MinContentWidth is the width of the widest word.
func (r Run) MinContentWidth() float64 {
	w := 0.0
	for _, word := range splitIntoWords(r.Text) {
		w = max(w, r.Font.Advance(word))
	}
	return w
}

// BreakLines breaks the run into lines that fit within maxWidth. A word wider
// than maxWidth gets a line of its own.
func (r Run) BreakLines(maxWidth float64) []Line {
	var lines []Line
	for _, hard := range strings.Split(r.Text, "\n") {
		words := splitIntoWords(hard)
		if len(words) == 0 {
			lines = append(lines, Line{})
			continue
		}
		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if current == "" || r.Font.Advance(candidate) <= maxWidth {
				current = candidate
				continue
			}
			lines = append(lines, Line{Text: current, Width: r.Font.Advance(current)})
			current = word
		}
		lines = append(lines, Line{Text: current, Width: r.Font.Advance(current)})
	}
	return lines
}

// splitIntoWords splits text on spaces, tabs and newlines.
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
}
