package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an output image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// ParseFormat accepts png, tiff (or tif) and bmp, in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unsupported preview format %q (want png, tiff or bmp)", s)
	}
}

// Extension is the file suffix for f.
func (f Format) Extension() string {
	return "." + string(f)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported preview format %q", string(f))
	}
}

// Scale shrinks img to fit in a maxSize × maxSize box, keeping its aspect
// ratio. Images that already fit, and maxSize 0, return img unchanged.
func Scale(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	return resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)
}
