package ocrpipe

import (
	"fmt"
	"strings"

	"github.com/gardar/ocrpipe/pkg/hocr"
)

// unitsFromPlainText wraps a plain-text engine artifact in units. The
// whole page becomes a single unit with the zero box; an empty artifact
// yields no units so an empty page stays distinguishable from a page of
// empty text.
func unitsFromPlainText(data []byte) []Unit {
	if len(data) == 0 {
		return []Unit{}
	}
	return []Unit{{Text: string(data)}}
}

// unitsFromHOCR parses an hOCR artifact and flattens it to units at the
// requested granularity. Words with empty text are dropped at both
// granularities, so switching granularity never changes which text
// survives, only how it is grouped. A line whose words are all empty is
// dropped entirely.
func unitsFromHOCR(data []byte, granularity Granularity) ([]Unit, error) {
	doc, err := hocr.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	units := []Unit{}
	for _, page := range doc.Pages {
		for _, line := range page.AllLines() {
			if granularity == GranularityLine {
				if u, ok := lineUnit(line); ok {
					units = append(units, u)
				}
				continue
			}
			for _, word := range line.Words {
				if word.Text == "" {
					continue
				}
				units = append(units, Unit{Text: word.Text, Box: word.BBox})
			}
		}
	}
	return units, nil
}

// lineUnit merges a line's words into one unit: texts joined with single
// spaces, box the union of the word boxes. The reported ok is false for
// lines with no non-empty words.
func lineUnit(line hocr.Line) (Unit, bool) {
	var texts []string
	var box hocr.BoundingBox
	for _, word := range line.Words {
		if word.Text == "" {
			continue
		}
		texts = append(texts, word.Text)
		box = box.Union(word.BBox)
	}
	if len(texts) == 0 {
		return Unit{}, false
	}
	return Unit{Text: strings.Join(texts, " "), Box: box}, true
}
