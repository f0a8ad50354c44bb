package imageprep

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contrastRGBA builds a color buffer with a dark left half and a light
// right half.
func contrastRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				img.Set(x, y, color.RGBA{R: 20, G: 25, B: 30, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 230, G: 235, B: 240, A: 255})
			}
		}
	}
	return img
}

func TestPrepareBinarizes(t *testing.T) {
	out := Prepare(contrastRGBA(), zerolog.Nop())

	gray, ok := out.(*image.Gray)
	require.True(t, ok, "prepared buffer must be grayscale")

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := gray.GrayAt(x, y).Y
			assert.Contains(t, []uint8{0, 255}, v, "pixel (%d,%d) must be binary", x, y)
		}
	}
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(7, 0).Y)
}

func TestPrepareIdempotent(t *testing.T) {
	once := Prepare(contrastRGBA(), zerolog.Nop())
	twice := Prepare(once, zerolog.Nop())

	g1 := once.(*image.Gray)
	g2 := twice.(*image.Gray)
	assert.Equal(t, g1.Pix, g2.Pix)
}

func TestPrepareGrayPassthrough(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		if i%2 == 0 {
			src.Pix[i] = 40
		} else {
			src.Pix[i] = 210
		}
	}

	out := Prepare(src, zerolog.Nop())
	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	for _, v := range gray.Pix {
		assert.Contains(t, []uint8{0, 255}, v)
	}
}

func TestPrepareUnsupportedDepthKeepsOriginal(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 4, 4))

	out := Prepare(src, zerolog.Nop())
	assert.Same(t, image.Image(src), out, "unsupported depth must pass through unchanged")
}

func TestPrepareUniformImageKeepsGrayscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}

	// A single-intensity histogram has no separating threshold, so the
	// chain stops after grayscale conversion.
	out := Prepare(src, zerolog.Nop())
	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	for _, v := range gray.Pix {
		assert.Equal(t, uint8(100), v)
	}
}

func TestPrepareDegenerateBounds(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 0, 0))
	out := Prepare(src, zerolog.Nop())
	assert.NotNil(t, out)
}

func TestWriteArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, WriteArtifact(contrastRGBA(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
