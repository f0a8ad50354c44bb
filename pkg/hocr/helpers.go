package hocr

import (
	"strings"
)

// ExtractText extracts all text from an hOCR document.
// Lines are separated by newlines and pages by double newlines, with
// words within a line joined by single spaces, following document order.
func ExtractText(doc *HOCR) string {
	var builder strings.Builder

	for i, page := range doc.Pages {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		for j, line := range page.AllLines() {
			if j > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(LineText(line))
		}
	}

	return builder.String()
}

// LineText joins the words of a line with single spaces.
func LineText(line Line) string {
	parts := make([]string, 0, len(line.Words))
	for _, word := range line.Words {
		parts = append(parts, word.Text)
	}
	return strings.Join(parts, " ")
}
