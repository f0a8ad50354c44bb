package hocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *HOCR {
	return &HOCR{
		Title:    "Generated OCR",
		Language: "en",
		Metadata: map[string]string{
			"ocr-system":          "unit test",
			"ocr-number-of-pages": "1",
		},
		Pages: []Page{
			{
				ID:         "page_1",
				PageNumber: 1,
				BBox:       NewBoundingBox(0, 0, 800, 600),
				Areas: []Area{
					{
						ID:   "carea_1",
						BBox: NewBoundingBox(10, 10, 790, 300),
						Paragraphs: []Paragraph{
							{
								ID: "par_1",
								Lines: []Line{
									{
										ID:   "line_1",
										BBox: NewBoundingBox(10, 10, 400, 50),
										Words: []Word{
											{ID: "word_1", Text: "alpha", BBox: NewBoundingBox(10, 10, 120, 50), Confidence: 97},
											{ID: "word_2", Text: "beta", BBox: NewBoundingBox(140, 10, 400, 50), Confidence: 89},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestGenerateDocumentRoundTrip(t *testing.T) {
	rendered, err := GenerateDocument(sampleDoc())
	require.NoError(t, err)

	parsed, err := Parse([]byte(rendered))
	require.NoError(t, err)

	require.Len(t, parsed.Pages, 1)
	words := parsed.Pages[0].AllWords()
	require.Len(t, words, 2)
	assert.Equal(t, "alpha", words[0].Text)
	assert.Equal(t, NewBoundingBox(10, 10, 120, 50), words[0].BBox)
	assert.Equal(t, 97.0, words[0].Confidence)
	assert.Equal(t, "beta", words[1].Text)
}

func TestGenerateDocumentDeterministic(t *testing.T) {
	first, err := GenerateDocument(sampleDoc())
	require.NoError(t, err)
	second, err := GenerateDocument(sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractText(t *testing.T) {
	doc, err := Parse([]byte(sampleHOCR))
	require.NoError(t, err)
	text := ExtractText(&doc)
	assert.Contains(t, text, "Hello world")
	assert.Contains(t, text, "again")
	assert.Contains(t, text, "footer")
}
