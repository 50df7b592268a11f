// Package preview turns document rasters into images. Only grayscale and
// RGB documents at 8 or 16 bits are rendered; there is no layer
// compositing and no color conversion.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/provide-io/psdkit/pkg/psd"
	psderrors "github.com/provide-io/psdkit/pkg/psd/errors"
)

// planes is a set of same-sized channel rasters ready for conversion.
type planes struct {
	width, height int
	depth         int
	colors        [][]byte
	alpha         []byte
}

func colorCount(mode psd.ColorMode) (int, error) {
	switch mode {
	case psd.ColorModeGrayscale:
		return 1, nil
	case psd.ColorModeRGB:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: %s", psderrors.ErrUnsupportedMode, mode)
	}
}

func checkDepth(depth int) error {
	if depth != 8 && depth != 16 {
		return fmt.Errorf("%w: %d", psderrors.ErrUnsupportedDepth, depth)
	}
	return nil
}

// Merged renders the merged image. The first extra channel is used as
// transparency only when the document marks it as absolute alpha.
func Merged(doc *psd.Document) (image.Image, error) {
	n, err := colorCount(doc.ColorMode)
	if err != nil {
		return nil, err
	}
	if err := checkDepth(doc.Depth); err != nil {
		return nil, err
	}
	if len(doc.ImageData) < n {
		return nil, fmt.Errorf("merged image has %d planes, %s needs %d", len(doc.ImageData), doc.ColorMode, n)
	}

	p := planes{width: doc.Width, height: doc.Height, depth: doc.Depth, colors: doc.ImageData[:n]}
	if doc.AbsoluteAlpha && len(doc.ImageData) > n {
		p.alpha = doc.ImageData[n]
	}
	return p.image()
}

// Layer renders one layer's own pixels at the size of its rectangle.
func Layer(doc *psd.Document, layer *psd.Layer) (image.Image, error) {
	n, err := colorCount(doc.ColorMode)
	if err != nil {
		return nil, err
	}
	if err := checkDepth(doc.Depth); err != nil {
		return nil, err
	}
	if layer.Rect.Empty() {
		return nil, fmt.Errorf("layer %q has an empty rectangle", layer.Name)
	}

	p := planes{width: layer.Rect.Width(), height: layer.Rect.Height(), depth: doc.Depth}
	for id := psd.ChannelID(0); int(id) < n; id++ {
		ch, ok := layer.Channel(id)
		if !ok {
			return nil, fmt.Errorf("layer %q has no channel %d", layer.Name, id)
		}
		p.colors = append(p.colors, ch.ImageData)
	}
	if ch, ok := layer.Channel(psd.ChannelTransparency); ok {
		p.alpha = ch.ImageData
	}
	return p.image()
}

// Mask renders a layer's user mask as a grayscale image.
func Mask(doc *psd.Document, layer *psd.Layer) (image.Image, error) {
	if err := checkDepth(doc.Depth); err != nil {
		return nil, err
	}
	if layer.Mask == nil || layer.Mask.Bounds().Empty() {
		return nil, fmt.Errorf("layer %q has no mask", layer.Name)
	}
	b := layer.Mask.Bounds()
	p := planes{width: b.Width(), height: b.Height(), depth: doc.Depth, colors: [][]byte{layer.Mask.ImageData}}
	return p.image()
}

func (p planes) image() (image.Image, error) {
	bpp := p.depth / 8
	size := p.width * p.height * bpp
	for i, plane := range p.colors {
		if len(plane) < size {
			return nil, fmt.Errorf("plane %d holds %d bytes, want %d", i, len(plane), size)
		}
	}
	if p.alpha != nil && len(p.alpha) < size {
		return nil, fmt.Errorf("alpha plane holds %d bytes, want %d", len(p.alpha), size)
	}

	rect := image.Rect(0, 0, p.width, p.height)
	gray := len(p.colors) == 1

	if p.alpha == nil && gray {
		if bpp == 1 {
			img := image.NewGray(rect)
			copy(img.Pix, p.colors[0])
			return img, nil
		}
		img := image.NewGray16(rect)
		copy(img.Pix, p.colors[0])
		return img, nil
	}

	comp := func(i int) []byte { return p.colors[min(i, len(p.colors)-1)] }

	if bpp == 1 {
		img := image.NewNRGBA(rect)
		for i := 0; i < p.width*p.height; i++ {
			a := uint8(0xFF)
			if p.alpha != nil {
				a = p.alpha[i]
			}
			img.Pix[4*i+0] = comp(0)[i]
			img.Pix[4*i+1] = comp(1)[i]
			img.Pix[4*i+2] = comp(2)[i]
			img.Pix[4*i+3] = a
		}
		return img, nil
	}

	img := image.NewNRGBA64(rect)
	for i := 0; i < p.width*p.height; i++ {
		c := color.NRGBA64{
			R: be16(comp(0), i),
			G: be16(comp(1), i),
			B: be16(comp(2), i),
			A: 0xFFFF,
		}
		if p.alpha != nil {
			c.A = be16(p.alpha, i)
		}
		img.SetNRGBA64(i%p.width, i/p.width, c)
	}
	return img, nil
}

func be16(plane []byte, i int) uint16 {
	return uint16(plane[2*i])<<8 | uint16(plane[2*i+1])
}
