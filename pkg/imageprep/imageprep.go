// Package imageprep applies recognition-oriented transforms to page
// pixel buffers before they are handed to an OCR engine.
//
// The transform chain is deterministic and order-sensitive: color buffers
// are first reduced to 8-bit grayscale with a fixed luminance transform,
// then binarized with an Otsu threshold. Every unsupported or degenerate
// case downgrades to the best buffer obtained so far instead of failing;
// the pipeline prefers running recognition on a lesser buffer over not
// running it at all.
//
// Main Functions:
//
// - Prepare: Run the grayscale + binarization chain over a pixel buffer
// - WriteArtifact: Persist a prepared buffer as a temporary PNG artifact
package imageprep

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/rs/zerolog"
)

// Prepare converts a page buffer to grayscale and binarizes it.
//
// Buffers whose pixel depth is not the expected 8-bit-per-channel color
// layout skip the grayscale conversion, and binarization only runs on
// single-channel 8-bit buffers; both downgrades are logged as warnings,
// never returned as errors. Prepare always returns a usable buffer.
func Prepare(img image.Image, logger zerolog.Logger) image.Image {
	gray, ok := toGray(img)
	if !ok {
		logger.Warn().
			Str("color_model", colorModelName(img)).
			Msg("unexpected pixel depth, skipping grayscale conversion")
		return img
	}

	bin, ok := binarize(gray)
	if !ok {
		logger.Warn().Msg("binarization produced a degenerate result, keeping grayscale buffer")
		return gray
	}
	return bin
}

// toGray reduces an 8-bit color buffer to single-channel grayscale using
// the fixed ITU-R BT.601 luminance weights. Buffers that are already
// 8-bit grayscale pass through unchanged. Any other depth reports false.
func toGray(img image.Image) (*image.Gray, bool) {
	if g, isGray := img.(*image.Gray); isGray {
		return g, true
	}

	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.YCbCr, *image.CMYK, *image.Paletted:
		// 8-bit-per-channel layouts the luminance transform supports.
	default:
		return nil, false
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// 16-bit channels from RGBA(); weights sum to 1.
			lum := (299*r + 587*g + 114*b) / 1000
			gray.SetGray(x, y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return gray, true
}

// binarize applies Otsu's method to a grayscale buffer. It reports false
// when the buffer has degenerate dimensions or its histogram yields no
// separating threshold (single-intensity images).
func binarize(gray *image.Gray) (*image.Gray, bool) {
	bounds := gray.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, false
	}

	threshold, ok := otsuThreshold(gray)
	if !ok {
		return nil, false
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out, true
}

// otsuThreshold picks the intensity threshold that maximizes the
// between-class variance of the buffer's histogram.
func otsuThreshold(gray *image.Gray) (uint8, bool) {
	bounds := gray.Bounds()
	var hist [256]int64
	total := int64(bounds.Dx()) * int64(bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	var sum int64
	for i, c := range hist {
		sum += int64(i) * c
	}

	var sumBack, weightBack int64
	var best float64
	var threshold int = -1
	for i := 0; i < 256; i++ {
		weightBack += hist[i]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += int64(i) * hist[i]

		meanBack := float64(sumBack) / float64(weightBack)
		meanFore := float64(sum-sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		variance := float64(weightBack) * float64(weightFore) * diff * diff
		if variance > best {
			best = variance
			threshold = i
		}
	}

	if threshold < 0 {
		return 0, false
	}
	return uint8(threshold), true
}

// WriteArtifact writes the prepared buffer to path as a PNG. The caller
// owns the artifact and is responsible for deleting it.
func WriteArtifact(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preprocessed artifact: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode preprocessed artifact: %w", err)
	}
	return nil
}

// colorModelName describes a buffer's pixel layout for log messages.
func colorModelName(img image.Image) string {
	switch img.(type) {
	case *image.Gray:
		return "gray8"
	case *image.Gray16:
		return "gray16"
	case *image.RGBA:
		return "rgba8"
	case *image.NRGBA:
		return "nrgba8"
	case *image.RGBA64, *image.NRGBA64:
		return "rgba16"
	case *image.YCbCr:
		return "ycbcr"
	case *image.CMYK:
		return "cmyk"
	case *image.Paletted:
		return "paletted"
	default:
		return fmt.Sprintf("%T", img)
	}
}
