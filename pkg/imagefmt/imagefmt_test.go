package imagefmt

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/image/tiff"
)

// buildMultiFrameTIFF assembles a little-endian TIFF with one 4x4
// uncompressed grayscale frame per shade, each frame a single strip.
func buildMultiFrameTIFF(t *testing.T, shades []uint8) []byte {
	t.Helper()
	const w, h = 4, 4
	const stripLen = w * h
	const ifdLen = 2 + 8*12 + 4
	const frameLen = stripLen + ifdLen

	bo := binary.LittleEndian
	buf := &bytes.Buffer{}
	buf.Write([]byte{'I', 'I', 42, 0})
	binary.Write(buf, bo, uint32(8+stripLen)) // first IFD follows the first strip

	entry := func(tag, typ uint16, count, value uint32) {
		binary.Write(buf, bo, tag)
		binary.Write(buf, bo, typ)
		binary.Write(buf, bo, count)
		binary.Write(buf, bo, value)
	}

	for i, shade := range shades {
		stripOff := uint32(8 + i*frameLen)
		buf.Write(bytes.Repeat([]byte{shade}, stripLen))

		binary.Write(buf, bo, uint16(8)) // entry count
		entry(256, 3, 1, w)              // ImageWidth
		entry(257, 3, 1, h)              // ImageLength
		entry(258, 3, 1, 8)              // BitsPerSample
		entry(259, 3, 1, 1)              // Compression: none
		entry(262, 3, 1, 1)              // Photometric: BlackIsZero
		entry(273, 4, 1, stripOff)       // StripOffsets
		entry(278, 3, 1, h)              // RowsPerStrip
		entry(279, 4, 1, stripLen)       // StripByteCounts

		next := uint32(0)
		if i < len(shades)-1 {
			next = uint32(8 + (i+1)*frameLen + stripLen)
		}
		binary.Write(buf, bo, next)
	}
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInspectMultiFrameTIFF(t *testing.T) {
	path := writeTemp(t, "multi.tiff", buildMultiFrameTIFF(t, []uint8{10, 128, 240}))

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, FormatTIFF, info.Format)
	assert.Equal(t, 3, info.Pages)
}

func TestInspectSinglePagePNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := writeTemp(t, "single.png", buf.Bytes())

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, info.Format)
	assert.Equal(t, 1, info.Pages)
}

func TestInspectUnknownMagic(t *testing.T) {
	path := writeTemp(t, "noise.bin", []byte("this is not an image at all"))

	_, err := Inspect(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestInspectTruncatedTIFF(t *testing.T) {
	// Valid header pointing at an IFD the file does not contain.
	data := buildMultiFrameTIFF(t, []uint8{50})[:10]
	path := writeTemp(t, "truncated.tiff", data)

	_, err := Inspect(path)
	assert.ErrorIs(t, err, ErrUnreadableImage)
}

func TestInspectLoopingIFDChain(t *testing.T) {
	bo := binary.LittleEndian
	buf := &bytes.Buffer{}
	buf.Write([]byte{'I', 'I', 42, 0})
	binary.Write(buf, bo, uint32(8)) // first IFD
	binary.Write(buf, bo, uint16(0)) // zero entries
	binary.Write(buf, bo, uint32(8)) // next IFD points back at itself
	path := writeTemp(t, "loop.tiff", buf.Bytes())

	_, err := Inspect(path)
	assert.ErrorIs(t, err, ErrUnreadableImage)
}

func TestExtractFrame(t *testing.T) {
	shades := []uint8{10, 128, 240}
	path := writeTemp(t, "multi.tiff", buildMultiFrameTIFF(t, shades))

	for i, shade := range shades {
		frame, err := ExtractFrame(path, i)
		require.NoError(t, err)

		img, err := tiff.Decode(bytes.NewReader(frame))
		require.NoError(t, err, "frame %d must decode standalone", i)
		assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

		r, _, _, _ := img.At(1, 1).RGBA()
		assert.Equal(t, uint32(shade), r>>8, "frame %d pixel shade", i)
	}
}

func TestExtractFramePastEnd(t *testing.T) {
	path := writeTemp(t, "multi.tiff", buildMultiFrameTIFF(t, []uint8{10, 20}))

	_, err := ExtractFrame(path, 5)
	assert.ErrorIs(t, err, ErrUnreadableImage)
}

func TestDecodePage(t *testing.T) {
	shades := []uint8{10, 128, 240}
	path := writeTemp(t, "multi.tiff", buildMultiFrameTIFF(t, shades))

	for i, shade := range shades {
		img, err := DecodePage(path, i)
		require.NoError(t, err)
		c := color.GrayModel.Convert(img.At(0, 0)).(color.Gray)
		assert.Equal(t, shade, c.Y, "page %d", i)
	}

	_, err := DecodePage(path, 3)
	assert.Error(t, err)
	_, err = DecodePage(path, -1)
	assert.Error(t, err)
}
