package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/psdkit/pkg/psd"
	psderrors "github.com/provide-io/psdkit/pkg/psd/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var testLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "preview_test",
	Level: hclog.Trace,
})

func newDoc(t *testing.T, channels, width, height, depth int, mode psd.ColorMode) *psd.Document {
	t.Helper()
	doc, err := psd.NewDocument(channels, width, height, depth, mode)
	require.NoError(t, err)
	doc.ImageData = make([][]byte, channels)
	for i := range doc.ImageData {
		doc.ImageData[i] = make([]byte, doc.PlaneSize())
	}
	return doc
}

func TestMergedGray(t *testing.T) {
	doc := newDoc(t, 1, 3, 2, 8, psd.ColorModeGrayscale)
	copy(doc.ImageData[0], []byte{0, 50, 100, 150, 200, 250})

	img, err := Merged(doc)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
	assert.Equal(t, color.Gray{Y: 150}, gray.GrayAt(0, 1))
}

func TestMergedGray16(t *testing.T) {
	doc := newDoc(t, 1, 2, 1, 16, psd.ColorModeGrayscale)
	copy(doc.ImageData[0], []byte{0x12, 0x34, 0xFF, 0x00})

	img, err := Merged(doc)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, color.Gray16{Y: 0x1234}, gray.Gray16At(0, 0))
	assert.Equal(t, color.Gray16{Y: 0xFF00}, gray.Gray16At(1, 0))
}

func TestMergedRGBAlpha(t *testing.T) {
	testCases := []struct {
		name     string
		absolute bool
		alpha    uint8
	}{
		{name: "extra channel ignored", absolute: false, alpha: 0xFF},
		{name: "absolute alpha", absolute: true, alpha: 0x40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := newDoc(t, 4, 2, 2, 8, psd.ColorModeRGB)
			doc.AbsoluteAlpha = tc.absolute
			for i, v := range []byte{10, 20, 30, 0x40} {
				doc.ImageData[i][3] = v
			}

			img, err := Merged(doc)
			require.NoError(t, err)
			nrgba, ok := img.(*image.NRGBA)
			require.True(t, ok)
			assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: tc.alpha}, nrgba.NRGBAAt(1, 1))
			testLogger.Debug("rendered", "case", tc.name, "pixel", nrgba.NRGBAAt(1, 1))
		})
	}
}

func TestMergedRGB16(t *testing.T) {
	doc := newDoc(t, 3, 1, 1, 16, psd.ColorModeRGB)
	doc.ImageData[0] = []byte{0xAB, 0xCD}
	doc.ImageData[1] = []byte{0x00, 0x01}
	doc.ImageData[2] = []byte{0xFF, 0xFF}

	img, err := Merged(doc)
	require.NoError(t, err)
	rgba, ok := img.(*image.NRGBA64)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA64{R: 0xABCD, G: 0x0001, B: 0xFFFF, A: 0xFFFF}, rgba.NRGBA64At(0, 0))
}

func TestUnsupported(t *testing.T) {
	cmyk := newDoc(t, 4, 1, 1, 8, psd.ColorModeCMYK)
	_, err := Merged(cmyk)
	assert.ErrorIs(t, err, psderrors.ErrUnsupportedMode)

	deep := newDoc(t, 1, 1, 1, 32, psd.ColorModeGrayscale)
	_, err = Merged(deep)
	assert.ErrorIs(t, err, psderrors.ErrUnsupportedDepth)

	short := newDoc(t, 1, 2, 2, 8, psd.ColorModeGrayscale)
	short.ImageData[0] = []byte{1}
	_, err = Merged(short)
	assert.ErrorContains(t, err, "plane 0")
}

func TestLayerAndMask(t *testing.T) {
	doc := newDoc(t, 3, 4, 4, 8, psd.ColorModeRGB)
	layer := psd.NewLayer("swatch", psd.NewRect(1, 1, 2, 1))
	for id, v := range map[psd.ChannelID]byte{0: 1, 1: 2, 2: 3, psd.ChannelTransparency: 4} {
		require.NoError(t, layer.AddChannel(psd.NewChannel(id, psd.CompressionRaw, []byte{v, v})))
	}
	layer.Mask = &psd.Mask{Rect: psd.NewRect(0, 0, 1, 2), ImageData: []byte{9, 8}}

	img, err := Layer(doc, layer)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, img.(*image.NRGBA).NRGBAAt(1, 0))

	mask, err := Mask(doc, layer)
	require.NoError(t, err)
	assert.Equal(t, color.Gray{Y: 8}, mask.(*image.Gray).GrayAt(0, 1))

	missing := psd.NewLayer("empty", psd.NewRect(0, 0, 1, 1))
	_, err = Layer(doc, missing)
	assert.ErrorContains(t, err, "no channel 0")
	_, err = Mask(doc, missing)
	assert.ErrorContains(t, err, "no mask")
}

func TestScale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 400, 200))
	assert.Equal(t, image.Rect(0, 0, 100, 50), Scale(img, 100).Bounds())
	assert.Same(t, img, Scale(img, 0))
	assert.Equal(t, img.Bounds(), Scale(img, 1000).Bounds())
}

func TestEncodeFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xFF
	}
	src.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	decoders := map[Format]func(*bytes.Reader) (image.Image, error){
		FormatPNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		FormatTIFF: func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
		FormatBMP:  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
	}

	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, format))
			got, err := decode(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, src.Bounds(), got.Bounds())
			r, g, b, _ := got.At(2, 1).RGBA()
			assert.Equal(t, []uint32{200, 100, 50}, []uint32{r >> 8, g >> 8, b >> 8})
		})
	}

	assert.Error(t, Encode(&bytes.Buffer{}, src, Format("gif")))
}

func TestParseFormat(t *testing.T) {
	testCases := map[string]Format{
		"png":  FormatPNG,
		"PNG":  FormatPNG,
		".tif": FormatTIFF,
		"tiff": FormatTIFF,
		"bmp":  FormatBMP,
	}
	for in, want := range testCases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("jpeg")
	assert.Error(t, err)
	assert.Equal(t, ".tiff", FormatTIFF.Extension())
}

func TestThumbnail(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 320, 160))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}

	thumb, err := NewThumbnail(src, DefaultThumbnailSize, 85)
	require.NoError(t, err)
	assert.Equal(t, psd.ThumbnailJPEG, thumb.Format)
	assert.Equal(t, uint32(160), thumb.Width)
	assert.Equal(t, uint32(80), thumb.Height)
	assert.Equal(t, uint32(480), thumb.WidthBytes)
	assert.Equal(t, uint32(480*80), thumb.TotalSize)
	assert.Equal(t, uint32(len(thumb.ImageData)), thumb.CompressedSize)
	assert.Equal(t, []byte{0xFF, 0xD8}, thumb.ImageData[:2])

	img, err := DecodeThumbnail(thumb)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 160, 80), img.Bounds())
}

func TestDecodeRawThumbnail(t *testing.T) {
	thumb := &psd.Thumbnail{
		Format:     psd.ThumbnailRaw,
		Width:      2,
		Height:     1,
		WidthBytes: 8,
		ImageData:  []byte{1, 2, 3, 4, 5, 6, 0, 0},
	}
	img, err := DecodeThumbnail(thumb)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 4, G: 5, B: 6, A: 0xFF}, img.(*image.NRGBA).NRGBAAt(1, 0))

	thumb.ImageData = thumb.ImageData[:4]
	_, err = DecodeThumbnail(thumb)
	assert.Error(t, err)
}
