package hocr

// HOCR represents the entire hOCR document structure
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // Additional metadata (ocr-system, ocr-number-of-pages, ...)
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string      // Unique identifier
	Title      string      // Original title attribute
	PageNumber int         // Page number in document
	ImageName  string      // Source image filename
	Lang       string      // Language code for this page
	BBox       BoundingBox // Page coordinates
	Areas      []Area      // Content areas (columns)
	Paragraphs []Paragraph // Paragraphs directly under page
	Lines      []Line      // Lines directly under page (no parent)
}

// Class assign 'ocr_page' to 'Page' struct
func (Page) Class() string { return "ocr_page" }

// Area represents a content area (column or region)
// Corresponds to hOCR element with class: 'ocr_carea'
type Area struct {
	ID         string      // Unique identifier
	Lang       string      // Language code
	BBox       BoundingBox // Area coordinates
	Paragraphs []Paragraph // Paragraphs in this area
	Lines      []Line      // Text lines directly under area
}

// Class assign 'ocr_carea' to 'Area' struct
func (Area) Class() string { return "ocr_carea" }

// Paragraph represents a paragraph within an area
// Corresponds to hOCR element with class: 'ocr_par'
type Paragraph struct {
	ID    string      // Unique identifier
	Lang  string      // Language code
	BBox  BoundingBox // Paragraph coordinates
	Lines []Line      // Text lines in this paragraph
}

// Class assign 'ocr_par' to 'Paragraph' struct
func (Paragraph) Class() string { return "ocr_par" }

// Line represents a line of text
// Corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID       string      // Unique identifier
	Lang     string      // Language code
	BBox     BoundingBox // Line coordinates
	Baseline string      // Baseline information
	Words    []Word      // Words in this line
}

// Class assign 'ocr_line' to 'Line' struct
func (Line) Class() string { return "ocr_line" }

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The actual text content
	BBox       BoundingBox // Word coordinates
	Confidence float64     // Recognition confidence (0-100)
	Lang       string      // Language code
}

// Class assign 'ocrx_word' to 'Word' struct
func (Word) Class() string { return "ocrx_word" }

// BoundingBox represents a rectangle in source-image pixel coordinates.
// Engines emit integral pixel coordinates in hOCR 'bbox' properties,
// so coordinates are kept as integers throughout.
// The zero value means "no positional data available".
type BoundingBox struct {
	X1 int // Left coordinate
	Y1 int // Top coordinate
	X2 int // Right coordinate
	Y2 int // Bottom coordinate
}

// NewBoundingBox creates a bounding box from x1, y1, x2, y2 coordinates
// as found in hOCR 'bbox' properties. x1, y1 is the top-left corner,
// x2, y2 the bottom-right corner.
func NewBoundingBox(x1, y1, x2, y2 int) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// IsZero reports whether the box carries no positional data.
func (b BoundingBox) IsZero() bool {
	return b.X1 == 0 && b.Y1 == 0 && b.X2 == 0 && b.Y2 == 0
}

// Union returns the minimal bounding rectangle enclosing both boxes.
// A zero box is treated as absent, so Union with it returns the other box.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if b.IsZero() {
		return o
	}
	if o.IsZero() {
		return b
	}
	r := b
	if o.X1 < r.X1 {
		r.X1 = o.X1
	}
	if o.Y1 < r.Y1 {
		r.Y1 = o.Y1
	}
	if o.X2 > r.X2 {
		r.X2 = o.X2
	}
	if o.Y2 > r.Y2 {
		r.Y2 = o.Y2
	}
	return r
}

// AllLines returns every line of the page in document order: lines inside
// areas and their paragraphs first (in markup order), then paragraphs and
// lines that sit directly under the page element. Document order is the
// engine's emission order, which downstream consumers rely on as reading
// order.
func (p Page) AllLines() []Line {
	var lines []Line
	for _, area := range p.Areas {
		for _, par := range area.Paragraphs {
			lines = append(lines, par.Lines...)
		}
		lines = append(lines, area.Lines...)
	}
	for _, par := range p.Paragraphs {
		lines = append(lines, par.Lines...)
	}
	lines = append(lines, p.Lines...)
	return lines
}

// AllWords returns every word of the page in document order.
func (p Page) AllWords() []Word {
	var words []Word
	for _, line := range p.AllLines() {
		words = append(words, line.Words...)
	}
	return words
}
