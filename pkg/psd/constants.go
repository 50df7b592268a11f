// Package psd decodes and encodes Adobe Photoshop documents.
//
// A file is a fixed header followed by four length-framed sections: color
// mode data, image resources, layer and mask information, and the merged
// image. Decode turns a stream into a Document; Encode writes one back out
// using the same section framing.
package psd

import "fmt"

// Core format constants
const (
	FileSignature     = "8BPS"
	ResourceSignature = "8BIM"
	BlendSignature    = "8BIM"
	Version           = 1

	MinChannels = 1
	MaxChannels = 56
	MinWidth    = 1
	MaxWidth    = 30000
	MinHeight   = 1
	MaxHeight   = 30000

	headerReservedSize = 6
	compressionTagSize = 2
)

// SupportedDepths lists the bit depths a document may declare.
var SupportedDepths = []int{1, 8, 16, 32}

// ColorMode is the document color mode stored in the header.
type ColorMode uint16

const (
	ColorModeBitmap       ColorMode = 0
	ColorModeGrayscale    ColorMode = 1
	ColorModeIndexed      ColorMode = 2
	ColorModeRGB          ColorMode = 3
	ColorModeCMYK         ColorMode = 4
	ColorModeMultichannel ColorMode = 7
	ColorModeDuotone      ColorMode = 8
	ColorModeLab          ColorMode = 9
)

func (m ColorMode) String() string {
	switch m {
	case ColorModeBitmap:
		return "Bitmap"
	case ColorModeGrayscale:
		return "Grayscale"
	case ColorModeIndexed:
		return "Indexed"
	case ColorModeRGB:
		return "RGB"
	case ColorModeCMYK:
		return "CMYK"
	case ColorModeMultichannel:
		return "Multichannel"
	case ColorModeDuotone:
		return "Duotone"
	case ColorModeLab:
		return "Lab"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(m))
	}
}

// Compression identifies how a channel's raster bytes are stored. An RLE
// raster whose packed rows overflow the 16-bit row counts is written raw.
type Compression uint16

const (
	CompressionRaw           Compression = 0
	CompressionRLE           Compression = 1
	CompressionZip           Compression = 2
	CompressionZipPrediction Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionRaw:
		return "raw"
	case CompressionRLE:
		return "rle"
	case CompressionZip:
		return "zip"
	case CompressionZipPrediction:
		return "zip-prediction"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(c))
	}
}

// Decodable reports whether the codec expands this compression. Zip
// variants and unknown values decode to zero-filled rasters and keep their
// stored bytes for re-encoding.
func (c Compression) Decodable() bool {
	return c == CompressionRaw || c == CompressionRLE
}

// ParseCompression maps "raw" or "rle" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "raw", "none":
		return CompressionRaw, nil
	case "rle", "packbits":
		return CompressionRLE, nil
	default:
		return 0, fmt.Errorf("unsupported compression %q (want raw or rle)", s)
	}
}

// ChannelID identifies a layer channel. Non-negative ids are color
// components in document order.
type ChannelID int16

const (
	ChannelTransparency ChannelID = -1
	ChannelUserMask     ChannelID = -2
	ChannelRealUserMask ChannelID = -3
)

func (id ChannelID) String() string {
	switch id {
	case ChannelTransparency:
		return "transparency"
	case ChannelUserMask:
		return "user-mask"
	case ChannelRealUserMask:
		return "real-user-mask"
	default:
		return fmt.Sprintf("color-%d", int16(id))
	}
}

// BlendMode is a four character blend mode key.
type BlendMode string

const (
	BlendNormal       BlendMode = "norm"
	BlendDarken       BlendMode = "dark"
	BlendLighten      BlendMode = "lite"
	BlendHue          BlendMode = "hue "
	BlendSaturation   BlendMode = "sat "
	BlendColor        BlendMode = "colr"
	BlendLuminosity   BlendMode = "lum "
	BlendMultiply     BlendMode = "mul "
	BlendScreen       BlendMode = "scrn"
	BlendDissolve     BlendMode = "diss"
	BlendOverlay      BlendMode = "over"
	BlendHardLight    BlendMode = "hLit"
	BlendSoftLight    BlendMode = "sLit"
	BlendDifference   BlendMode = "diff"
	BlendExclusion    BlendMode = "smud"
	BlendColorDodge   BlendMode = "div "
	BlendColorBurn    BlendMode = "idiv"
	BlendPassThrough  BlendMode = "pass"
	BlendLinearBurn   BlendMode = "lbrn"
	BlendLinearDodge  BlendMode = "lddg"
	BlendVividLight   BlendMode = "vLit"
	BlendLinearLight  BlendMode = "lLit"
	BlendPinLight     BlendMode = "pLit"
	BlendHardMix      BlendMode = "hMix"
	BlendDarkerColor  BlendMode = "dkCl"
	BlendLighterColor BlendMode = "lgCl"
	BlendSubtract     BlendMode = "fsub"
	BlendDivide       BlendMode = "fdiv"
)

// Valid reports whether the key is exactly four bytes long.
func (b BlendMode) Valid() bool {
	return len(b) == 4
}

// bytesPerRow returns the scanline size for a raster width at the given
// depth. 1-bit rasters are stored one byte per pixel here.
func bytesPerRow(depth, width int) int {
	if width <= 0 {
		return 0
	}
	switch depth {
	case 16:
		return width * 2
	case 32:
		return width * 4
	default:
		return width
	}
}
