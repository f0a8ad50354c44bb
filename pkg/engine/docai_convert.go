package engine

import (
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrpipe/pkg/hocr"
)

// hocrFromDocument converts a Document AI response into the hOCR object
// model, preserving the block → paragraph → line → token hierarchy via
// text-anchor containment.
func hocrFromDocument(doc *documentaipb.Document) *hocr.HOCR {
	result := &hocr.HOCR{
		Title:    "Document OCR",
		Language: documentLanguage(doc),
		Metadata: map[string]string{
			"ocr-system":          "Document AI OCR",
			"ocr-number-of-pages": fmt.Sprintf("%d", len(doc.Pages)),
			"ocr-capabilities":    "ocrp_lang ocr_page ocr_carea ocr_par ocr_line ocrx_word",
		},
	}

	for _, page := range doc.Pages {
		result.Pages = append(result.Pages, hocrPageFromProto(page, doc.Text))
	}
	return result
}

// documentLanguage picks the dominant detected language of the first
// page, when the processor reported one.
func documentLanguage(doc *documentaipb.Document) string {
	if len(doc.Pages) == 0 || len(doc.Pages[0].DetectedLanguages) == 0 {
		return ""
	}
	return doc.Pages[0].DetectedLanguages[0].LanguageCode
}

// hocrPageFromProto builds one hOCR page. Lines not contained in any
// paragraph are attached directly to the page so no recognized text is
// dropped.
func hocrPageFromProto(page *documentaipb.Document_Page, fullText string) hocr.Page {
	pageNum := int(page.PageNumber)
	ocrPage := hocr.Page{
		ID:         fmt.Sprintf("page_%d", pageNum),
		PageNumber: pageNum,
	}
	if dim := page.Dimension; dim != nil {
		ocrPage.BBox = hocr.NewBoundingBox(0, 0, int(dim.Width+0.5), int(dim.Height+0.5))
	}
	if len(page.DetectedLanguages) > 0 {
		ocrPage.Lang = page.DetectedLanguages[0].LanguageCode
	}

	assignedLines := make(map[string]bool)

	for aidx, block := range page.Blocks {
		area := hocr.Area{ID: fmt.Sprintf("carea_%d_%d", pageNum, aidx)}
		if bbox := layoutBBox(block.Layout, page.Dimension); bbox != nil {
			area.BBox = *bbox
		}

		for pidx, para := range page.Paragraphs {
			if !anchorWithin(para.Layout, block.Layout) {
				continue
			}
			ocrPar := hocr.Paragraph{ID: fmt.Sprintf("par_%d_%d_%d", pageNum, aidx, pidx)}
			if bbox := layoutBBox(para.Layout, page.Dimension); bbox != nil {
				ocrPar.BBox = *bbox
			}

			for lidx, line := range page.Lines {
				if !anchorWithin(line.Layout, para.Layout) {
					continue
				}
				assignedLines[anchorKey(line.Layout)] = true
				ocrPar.Lines = append(ocrPar.Lines,
					hocrLineFromProto(line, page, fullText, pageNum, aidx, pidx, lidx))
			}

			area.Paragraphs = append(area.Paragraphs, ocrPar)
		}

		ocrPage.Areas = append(ocrPage.Areas, area)
	}

	for lidx, line := range page.Lines {
		if !assignedLines[anchorKey(line.Layout)] {
			ocrPage.Lines = append(ocrPage.Lines,
				hocrLineFromProto(line, page, fullText, pageNum, 0, 0, lidx))
		}
	}

	return ocrPage
}

// hocrLineFromProto converts one proto line plus the tokens anchored
// inside it.
func hocrLineFromProto(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page,
	fullText string, pageNum, areaIdx, paraIdx, lineIdx int) hocr.Line {

	ocrLine := hocr.Line{
		ID: fmt.Sprintf("line_%d_%d_%d_%d", pageNum, areaIdx, paraIdx, lineIdx),
	}
	if bbox := layoutBBox(line.Layout, page.Dimension); bbox != nil {
		ocrLine.BBox = *bbox
	}
	if len(line.DetectedLanguages) > 0 {
		ocrLine.Lang = line.DetectedLanguages[0].LanguageCode
	}

	for tidx, token := range page.Tokens {
		if !anchorWithin(token.Layout, line.Layout) {
			continue
		}

		word := hocr.Word{
			ID:   fmt.Sprintf("word_%d_%d_%d_%d_%d", pageNum, areaIdx, paraIdx, lineIdx, tidx),
			Text: tokenText(token, fullText),
		}
		if bbox := layoutBBox(token.Layout, page.Dimension); bbox != nil {
			word.BBox = *bbox
		}
		if token.Layout != nil {
			word.Confidence = float64(token.Layout.Confidence * 100)
		}
		if len(token.DetectedLanguages) > 0 {
			word.Lang = token.DetectedLanguages[0].LanguageCode
		}

		ocrLine.Words = append(ocrLine.Words, word)
	}

	return ocrLine
}

// tokenText extracts a token's text with the detected-break whitespace
// trimmed off the tail.
func tokenText(token *documentaipb.Document_Page_Token, fullText string) string {
	text := textFromLayout(token.Layout, fullText)
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")

	if token.DetectedBreak != nil &&
		token.DetectedBreak.Type != documentaipb.Document_Page_Token_DetectedBreak_TYPE_UNSPECIFIED {
		text = strings.TrimRight(text, " \n\r\t")
	}
	return text
}

// textFromLayout extracts text from a layout's text anchor segments.
// Segment indices are byte offsets into the document's UTF-8 text, so
// they are applied to the string directly, never to its runes.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	var result strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(fullText) {
			end = len(fullText)
		}
		if start > end {
			start = end
		}
		result.WriteString(fullText[start:end])
	}
	return result.String()
}

// layoutBBox converts a layout's normalized vertices to pixel
// coordinates using the page dimension.
func layoutBBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) *hocr.BoundingBox {
	if layout == nil || layout.BoundingPoly == nil || dim == nil ||
		len(layout.BoundingPoly.NormalizedVertices) < 4 {
		return nil
	}
	v := layout.BoundingPoly.NormalizedVertices
	bbox := hocr.NewBoundingBox(
		int(v[0].X*dim.Width+0.5),
		int(v[0].Y*dim.Height+0.5),
		int(v[2].X*dim.Width+0.5),
		int(v[2].Y*dim.Height+0.5),
	)
	return &bbox
}

// anchorWithin reports whether the element's text range is contained in
// the parent's.
func anchorWithin(element, parent *documentaipb.Document_Page_Layout) bool {
	if element == nil || parent == nil ||
		element.TextAnchor == nil || parent.TextAnchor == nil ||
		len(element.TextAnchor.TextSegments) == 0 || len(parent.TextAnchor.TextSegments) == 0 {
		return false
	}
	es := element.TextAnchor.TextSegments[0]
	ps := parent.TextAnchor.TextSegments[0]
	return es.StartIndex >= ps.StartIndex && es.EndIndex <= ps.EndIndex
}

// anchorKey generates a stable key for a layout's text range.
func anchorKey(layout *documentaipb.Document_Page_Layout) string {
	if layout == nil || layout.TextAnchor == nil || len(layout.TextAnchor.TextSegments) == 0 {
		return ""
	}
	seg := layout.TextAnchor.TextSegments[0]
	return fmt.Sprintf("%d-%d", seg.StartIndex, seg.EndIndex)
}
