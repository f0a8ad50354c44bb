package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestOutputPath(t *testing.T) {
	req := Request{OutputStem: "/tmp/run/out-0001"}
	assert.Equal(t, "/tmp/run/out-0001.txt", req.OutputPath())

	req.HOCR = true
	assert.Equal(t, "/tmp/run/out-0001.hocr", req.OutputPath())
}

func TestTesseractBuildArgs(t *testing.T) {
	psm := 6

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "minimal plain text",
			req: Request{
				InputPath:  "in.png",
				OutputStem: "out",
				PageIndex:  -1,
			},
			want: []string{"in.png", "out"},
		},
		{
			name: "hocr with resources and languages",
			req: Request{
				InputPath:   "scan.tiff",
				OutputStem:  "result",
				Languages:   []string{"isl", "eng"},
				ResourceDir: "/usr/share/tessdata",
				HOCR:        true,
				PageIndex:   -1,
			},
			want: []string{
				"--tessdata-dir", "/usr/share/tessdata",
				"scan.tiff", "result",
				"-l", "isl+eng",
				"hocr",
			},
		},
		{
			name: "page selection and segmentation mode",
			req: Request{
				InputPath:   "multi.tiff",
				OutputStem:  "page2",
				PageSegMode: &psm,
				PageIndex:   1,
			},
			want: []string{
				"multi.tiff", "page2",
				"--psm", "6",
				"-c", "tessedit_page_number=1",
			},
		},
		{
			name: "lexicon forces the legacy recognizer",
			req: Request{
				InputPath:   "in.png",
				OutputStem:  "out",
				LexiconPath: "/work/lexicon.txt",
				PageIndex:   -1,
			},
			want: []string{
				"in.png", "out",
				"--user-words", "/work/lexicon.txt", "--oem", "0",
			},
		},
		{
			name: "path with spaces stays a single argument",
			req: Request{
				InputPath:  "/scans/My Documents/page one.png",
				OutputStem: "/tmp/out dir/result",
				PageIndex:  -1,
			},
			want: []string{"/scans/My Documents/page one.png", "/tmp/out dir/result"},
		},
	}

	tess := NewTesseract("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tess.buildArgs(tt.req))
		})
	}
}

func TestTesseractUnavailable(t *testing.T) {
	tess := NewTesseract("definitely-not-a-real-binary-name")
	_, err := tess.Invoke(context.Background(), Request{
		InputPath:  "in.png",
		OutputStem: "out",
		PageIndex:  -1,
	})
	assert.ErrorIs(t, err, ErrUnavailable)
}
