// Package imagefmt inspects raster image containers and decodes page
// pixel buffers for the OCR pipeline.
//
// Inspection works on the container header alone: the format is identified
// from magic bytes and, for multi-frame TIFF containers, the page count is
// determined by walking the IFD chain without decoding pixel data. All
// other supported formats hold exactly one page.
//
// Main Functions:
//
// - Inspect: Identify the container format and page count
// - DecodePage: Decode one page of a container into an image.Image
// - ExtractFrame: Re-slice one frame of a multi-frame TIFF into a
//   standalone single-frame TIFF
package imagefmt

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnreadableImage indicates a container whose header could not be
// parsed (truncated or corrupted data).
var ErrUnreadableImage = errors.New("unreadable image")

// ErrUnsupportedFormat indicates a container format the pipeline does not
// recognize.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format identifies a supported image container format.
type Format string

const (
	FormatTIFF Format = "tiff"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatGIF  Format = "gif"
)

// Info describes an inspected image container.
type Info struct {
	Format Format // Container format
	Pages  int    // Number of embedded pages (1 for single-frame formats)
}

// Inspect identifies the container format of the file at path and counts
// its pages. Only TIFF containers can hold more than one page; every
// other supported format reports exactly 1. Only the header is read.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer f.Close()

	magic := make([]byte, 8)
	n, err := f.ReadAt(magic, 0)
	if n < 4 {
		return Info{}, fmt.Errorf("%w: file too short: %v", ErrUnreadableImage, err)
	}
	magic = magic[:n]

	format, ok := sniffFormat(magic)
	if !ok {
		return Info{}, fmt.Errorf("%w: unrecognized magic bytes", ErrUnsupportedFormat)
	}

	if format != FormatTIFF {
		return Info{Format: format, Pages: 1}, nil
	}

	pages, err := countTIFFFrames(f)
	if err != nil {
		return Info{}, err
	}
	return Info{Format: FormatTIFF, Pages: pages}, nil
}

// sniffFormat matches the magic bytes of the supported container formats.
func sniffFormat(magic []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(magic, []byte("II*\x00")), bytes.HasPrefix(magic, []byte("MM\x00*")):
		return FormatTIFF, true
	case bytes.HasPrefix(magic, []byte("\x89PNG")):
		return FormatPNG, true
	case bytes.HasPrefix(magic, []byte("\xff\xd8\xff")):
		return FormatJPEG, true
	case bytes.HasPrefix(magic, []byte("BM")):
		return FormatBMP, true
	case bytes.HasPrefix(magic, []byte("GIF87a")), bytes.HasPrefix(magic, []byte("GIF89a")):
		return FormatGIF, true
	}
	return "", false
}

// DecodePage decodes the page at the given zero-based index from the
// container at path. For single-page formats index must be 0. For TIFF
// containers with index > 0 the frame is re-sliced first, since the
// decoder only reads the first image file directory.
func DecodePage(path string, index int) (image.Image, error) {
	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= info.Pages {
		return nil, fmt.Errorf("page index %d out of range (container has %d)", index, info.Pages)
	}

	if info.Format == FormatTIFF && index > 0 {
		frame, err := ExtractFrame(path, index)
		if err != nil {
			return nil, err
		}
		img, err := tiff.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding frame %d: %v", ErrUnreadableImage, index, err)
		}
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer f.Close()

	var img image.Image
	switch info.Format {
	case FormatTIFF:
		img, err = tiff.Decode(f)
	case FormatBMP:
		img, err = bmp.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return img, nil
}
