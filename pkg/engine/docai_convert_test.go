package engine

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
)

func layoutFor(start, end int64) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: start, EndIndex: end},
			},
		},
	}
}

func TestTextFromLayoutByteOffsets(t *testing.T) {
	// Anchor indices are byte offsets; multi-byte runes shift them past
	// the rune count.
	fullText := "vöru lýsing"

	assert.Equal(t, "vöru", textFromLayout(layoutFor(0, 5), fullText))
	assert.Equal(t, "lýsing", textFromLayout(layoutFor(6, 13), fullText))
}

func TestTextFromLayoutClampsRanges(t *testing.T) {
	fullText := "short"

	assert.Equal(t, "short", textFromLayout(layoutFor(0, 99), fullText))
	assert.Equal(t, "", textFromLayout(layoutFor(-3, 0), fullText))
	assert.Equal(t, "", textFromLayout(layoutFor(4, 2), fullText))
	assert.Equal(t, "", textFromLayout(nil, fullText))
}

func TestTokenTextTrimsDetectedBreak(t *testing.T) {
	fullText := "word \nnext"
	token := &documentaipb.Document_Page_Token{
		Layout: layoutFor(0, 6),
		DetectedBreak: &documentaipb.Document_Page_Token_DetectedBreak{
			Type: documentaipb.Document_Page_Token_DetectedBreak_SPACE,
		},
	}

	assert.Equal(t, "word", tokenText(token, fullText))
}
