package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/provide-io/psdkit/pkg/psd"
)

// DefaultThumbnailSize is the longest side Photoshop uses for its own
// thumbnails.
const DefaultThumbnailSize = 160

// NewThumbnail scales img to fit maxSize and stores it as a JFIF
// thumbnail resource value.
func NewThumbnail(img image.Image, maxSize, quality int) (*psd.Thumbnail, error) {
	small := Scale(img, maxSize)
	rgb := image.NewRGBA(small.Bounds())
	draw.Draw(rgb, rgb.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgb, rgb.Bounds(), small, small.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	w, h := uint32(rgb.Bounds().Dx()), uint32(rgb.Bounds().Dy())
	widthBytes := (w*24 + 31) / 32 * 4
	return &psd.Thumbnail{
		Format:         psd.ThumbnailJPEG,
		Width:          w,
		Height:         h,
		WidthBytes:     widthBytes,
		TotalSize:      widthBytes * h,
		CompressedSize: uint32(buf.Len()),
		BitsPerPixel:   24,
		Planes:         1,
		ImageData:      buf.Bytes(),
	}, nil
}

// DecodeThumbnail renders a thumbnail resource. Raw thumbnails are read
// as 24-bit RGB rows of WidthBytes each.
func DecodeThumbnail(t *psd.Thumbnail) (image.Image, error) {
	if t.Format == psd.ThumbnailJPEG {
		img, err := jpeg.Decode(bytes.NewReader(t.ImageData))
		if err != nil {
			return nil, fmt.Errorf("decoding thumbnail: %w", err)
		}
		return img, nil
	}

	raw := t.RawImage()
	w, h, stride := int(t.Width), int(t.Height), int(t.WidthBytes)
	if stride < 3*w || len(raw) < stride*h {
		return nil, fmt.Errorf("raw thumbnail holds %d bytes, %dx%d needs %d", len(raw), w, h, max(stride, 3*w)*h)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := raw[y*stride:]
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: row[3*x], G: row[3*x+1], B: row[3*x+2], A: 0xFF})
		}
	}
	return img, nil
}
