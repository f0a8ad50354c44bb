package hocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// Parse converts raw hOCR data into a structured HOCR object.
//
// Parsing is purely a function of the input bytes: the same bytes always
// produce the same structure, with pages and their children in markup order.
// A document that contains ocr_page elements but no recognized words is
// valid and yields pages with empty content. Data that contains no
// ocr_page element at all is rejected.
func Parse(data []byte) (HOCR, error) {
	var result HOCR
	result.Metadata = make(map[string]string)

	decoded, err := decodeCharset(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return result, err
	}

	extractDocumentMeta(&result, doc)

	// Find and process all ocr_page elements
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			if strings.Contains(getAttrVal(n, "class"), "ocr_page") {
				result.Pages = append(result.Pages, processPage(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

// decodeCharset converts the raw bytes to UTF-8 based on the charset
// declared in the document's meta tags. Engines configured for legacy
// recognition can emit ISO-8859-1.
func decodeCharset(data []byte) ([]byte, error) {
	content := string(data)
	encoding := "utf-8"
	if strings.Contains(content, "charset=") {
		metaStart := strings.Index(content, "charset=") + len("charset=")
		metaEnd := metaStart + 20
		if metaEnd > len(content) {
			// Truncated output can cut the declaration short.
			metaEnd = len(content)
		}
		fields := strings.FieldsFunc(content[metaStart:metaEnd], func(r rune) bool {
			return r == '"' || r == ';' || r == '\'' || r == '>'
		})
		if len(fields) > 0 {
			if enc := strings.ToLower(fields[0]); enc != "" {
				encoding = enc
			}
		}
	}

	if encoding == "utf-8" {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", encoding, err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns a structured BoundingBox object or nil if extraction fails
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	props := ParseTitle(title)
	if bbox, ok := props["bbox"]; ok && len(bbox) >= 4 {
		coords := make([]int, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.Atoi(bbox[i])
			if err != nil {
				// Some generators emit fractional coordinates.
				f, ferr := strconv.ParseFloat(bbox[i], 64)
				if ferr != nil {
					return nil
				}
				v = int(f)
			}
			coords[i] = v
		}
		result := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
		return &result
	}
	return nil
}

// extractDocumentMeta extracts document-level metadata from the head section
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var findHead func(*html.Node) *html.Node
	findHead = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "head" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findHead(c); found != nil {
				return found
			}
		}
		return nil
	}

	// Check for lang attribute on the html tag
	var findHTMLLang func(*html.Node)
	findHTMLLang = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "html" {
			for _, a := range n.Attr {
				if a.Key == "lang" || a.Key == "xml:lang" {
					result.Language = a.Val
					return
				}
			}
		}
		// Only check direct children of the document node
		if n.Parent == nil {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				findHTMLLang(c)
			}
		}
	}
	findHTMLLang(doc)

	head := findHead(doc)
	if head == nil {
		return
	}

	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "title":
			if c.FirstChild != nil {
				result.Title = c.FirstChild.Data
			}
		case "meta":
			name := ""
			content := ""
			for _, attr := range c.Attr {
				if attr.Key == "name" {
					name = attr.Val
				} else if attr.Key == "content" {
					content = attr.Val
				}
			}
			if name != "" && content != "" {
				switch name {
				case "ocr-system", "ocr-capabilities", "ocr-number-of-pages", "ocr-langs":
					result.Metadata[name] = content
				case "dc.language":
					result.Language = content
				}
			}
		}
	}
}

// processPage extracts page information and its children (areas, paragraphs, lines)
func processPage(n *html.Node) Page {
	var page Page

	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			page.ID = attr.Val
		case "lang":
			page.Lang = attr.Val
		case "title":
			page.Title = attr.Val
			if bbox := ParseBoundingBoxFromTitle(attr.Val); bbox != nil {
				page.BBox = *bbox
			}
			props := ParseTitle(attr.Val)
			if image, ok := props["image"]; ok && len(image) > 0 {
				page.ImageName = strings.Trim(image[0], `"`)
			}
			if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
				page.PageNumber, _ = strconv.Atoi(ppageno[0])
			}
		}
	}

	// Collect the top-level structural children in markup order so the
	// page preserves the engine's emission order.
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectPageChildren(c, &page)
	}
	return page
}

// collectPageChildren walks the page subtree and attaches areas, paragraphs
// and lines at the level they appear, stopping the descent at each
// structural element so nested content is owned by its parent.
func collectPageChildren(n *html.Node, page *Page) {
	if n.Type == html.ElementNode {
		class := getAttrVal(n, "class")
		switch {
		case strings.Contains(class, "ocr_carea"):
			page.Areas = append(page.Areas, processArea(n))
			return
		case strings.Contains(class, "ocr_par"):
			page.Paragraphs = append(page.Paragraphs, processParagraph(n))
			return
		case strings.Contains(class, "ocr_line"), strings.Contains(class, "ocr_header"),
			strings.Contains(class, "ocr_caption"), strings.Contains(class, "ocr_textfloat"):
			page.Lines = append(page.Lines, processLine(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectPageChildren(c, page)
	}
}

// processArea extracts area information and its children (paragraphs, lines)
func processArea(n *html.Node) Area {
	var area Area

	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			area.ID = attr.Val
		case "lang":
			area.Lang = attr.Val
		case "title":
			if bbox := ParseBoundingBoxFromTitle(attr.Val); bbox != nil {
				area.BBox = *bbox
			}
		}
	}

	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode {
			class := getAttrVal(node, "class")
			switch {
			case strings.Contains(class, "ocr_par"):
				area.Paragraphs = append(area.Paragraphs, processParagraph(node))
				return
			case strings.Contains(class, "ocr_line"), strings.Contains(class, "ocr_header"),
				strings.Contains(class, "ocr_caption"), strings.Contains(class, "ocr_textfloat"):
				area.Lines = append(area.Lines, processLine(node))
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}

	return area
}

// processParagraph extracts paragraph information and its lines
func processParagraph(n *html.Node) Paragraph {
	var paragraph Paragraph

	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			paragraph.ID = attr.Val
		case "lang":
			paragraph.Lang = attr.Val
		case "title":
			if bbox := ParseBoundingBoxFromTitle(attr.Val); bbox != nil {
				paragraph.BBox = *bbox
			}
		}
	}

	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode {
			class := getAttrVal(node, "class")
			if strings.Contains(class, "ocr_line") || strings.Contains(class, "ocr_header") ||
				strings.Contains(class, "ocr_caption") || strings.Contains(class, "ocr_textfloat") {
				paragraph.Lines = append(paragraph.Lines, processLine(node))
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}

	return paragraph
}

// processLine extracts line information and its words
func processLine(n *html.Node) Line {
	var line Line

	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			line.ID = attr.Val
		case "lang":
			line.Lang = attr.Val
		case "title":
			if bbox := ParseBoundingBoxFromTitle(attr.Val); bbox != nil {
				line.BBox = *bbox
			}
			props := ParseTitle(attr.Val)
			if baseline, ok := props["baseline"]; ok && len(baseline) > 0 {
				line.Baseline = strings.Join(baseline, " ")
			}
		}
	}

	var extractWords func(*html.Node)
	extractWords = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if strings.Contains(getAttrVal(node, "class"), "ocrx_word") {
				line.Words = append(line.Words, processWord(node))
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			extractWords(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractWords(c)
	}

	return line
}

// processWord extracts a word element's text and properties
func processWord(n *html.Node) Word {
	var word Word

	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			word.ID = attr.Val
		case "lang":
			word.Lang = attr.Val
		case "title":
			if bbox := ParseBoundingBoxFromTitle(attr.Val); bbox != nil {
				word.BBox = *bbox
			}
			props := ParseTitle(attr.Val)
			if conf, ok := props["x_wconf"]; ok && len(conf) > 0 {
				word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
			}
			if lang, ok := props["lang"]; ok && len(lang) > 0 {
				word.Lang = lang[0]
			}
		}
	}

	if n.FirstChild != nil {
		word.Text = extractTextContent(n)
	}
	return word
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text += extractTextContent(c)
	}
	return strings.TrimSpace(text)
}

// getAttrVal returns the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
