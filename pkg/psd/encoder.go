package psd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/psdkit/pkg/psd/bigendian"
	psderrors "github.com/provide-io/psdkit/pkg/psd/errors"
	"github.com/provide-io/psdkit/pkg/psd/rle"
)

// Encoder writes documents to a seekable stream. Section lengths are
// back-patched, so the destination must support seeking.
type Encoder struct {
	w      *bigendian.Writer
	logger hclog.Logger
}

// NewEncoder creates an encoder that logs nothing.
func NewEncoder(w io.WriteSeeker) (*Encoder, error) {
	return NewEncoderWithLogger(w, hclog.NewNullLogger())
}

// NewEncoderWithLogger creates an encoder with a custom logger.
func NewEncoderWithLogger(w io.WriteSeeker, logger hclog.Logger) (*Encoder, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	bw, err := bigendian.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: bw, logger: logger}, nil
}

// Encode writes doc to w.
func Encode(w io.WriteSeeker, doc *Document) error {
	e, err := NewEncoder(w)
	if err != nil {
		return err
	}
	return e.Encode(doc)
}

// Marshal encodes doc into a new byte slice.
func Marshal(doc *Document) ([]byte, error) {
	buf := bigendian.NewBuffer(nil)
	if err := Encode(buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodedChannel is a channel payload ready to be written, without its
// compression tag.
type encodedChannel struct {
	compression Compression
	data        []byte
}

// Encode writes doc. The document is not modified; compressed channel
// data is built on the side.
func (e *Encoder) Encode(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	if err := e.writeHeader(doc); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := e.w.WriteSection(func() error { return e.w.WriteBytes(doc.ColorModeData) }); err != nil {
		return fmt.Errorf("writing color mode data: %w", err)
	}
	if err := e.writeResources(doc); err != nil {
		return fmt.Errorf("writing image resources: %w", err)
	}
	if err := e.writeLayerAndMask(doc); err != nil {
		return fmt.Errorf("writing layer and mask information: %w", err)
	}
	if err := e.writeImageData(doc); err != nil {
		return fmt.Errorf("writing merged image: %w", err)
	}

	e.logger.Debug("✅ Document encoded",
		"size", e.w.Position(),
		"layers", len(doc.Layers),
		"resources", len(doc.Resources),
	)
	return nil
}

func (e *Encoder) writeHeader(doc *Document) error {
	if err := e.w.WriteKey(FileSignature); err != nil {
		return err
	}
	if err := e.w.WriteUint16(Version); err != nil {
		return err
	}
	if err := e.w.WriteZeros(headerReservedSize); err != nil {
		return err
	}
	if err := e.w.WriteUint16(uint16(doc.ChannelCount)); err != nil {
		return err
	}
	if err := e.w.WriteUint32(uint32(doc.Height)); err != nil {
		return err
	}
	if err := e.w.WriteUint32(uint32(doc.Width)); err != nil {
		return err
	}
	if err := e.w.WriteUint16(uint16(doc.Depth)); err != nil {
		return err
	}
	return e.w.WriteUint16(uint16(doc.ColorMode))
}

func (e *Encoder) writeResources(doc *Document) error {
	return e.w.WriteSection(func() error {
		for _, r := range doc.sortedResources() {
			if err := e.writeResource(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Encoder) writeResource(r *Resource) error {
	payload, err := r.Payload()
	if err != nil {
		return err
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: resource %s payload of %d bytes", psderrors.ErrInvalidSectionSize, r.ID, len(payload))
	}

	e.logger.Trace("📝 Image resource", "id", int16(r.ID), "length", len(payload), "offset", e.w.Position())

	if err := e.w.WriteKey(ResourceSignature); err != nil {
		return err
	}
	if err := e.w.WriteInt16(int16(r.ID)); err != nil {
		return err
	}
	if _, err := e.w.WritePascalString(r.Name, bigendian.Padded); err != nil {
		return err
	}
	if err := e.w.WriteUint32(uint32(len(payload))); err != nil {
		return err
	}
	if err := e.w.WriteBytes(payload); err != nil {
		return err
	}
	if len(payload)%2 == 1 {
		return e.w.WriteByte(0)
	}
	return nil
}

func (e *Encoder) writeLayerAndMask(doc *Document) error {
	return e.w.WriteSection(func() error {
		if err := e.writeLayerInfo(doc); err != nil {
			return fmt.Errorf("layer info: %w", err)
		}
		err := e.w.WriteSection(func() error { return e.w.WriteBytes(doc.GlobalLayerMask) })
		if err != nil {
			return fmt.Errorf("global layer mask: %w", err)
		}
		return e.w.WriteBytes(doc.AdditionalLayerInfo)
	})
}

func (e *Encoder) writeLayerInfo(doc *Document) error {
	return e.w.WriteSection(func() error {
		if len(doc.Layers) == 0 {
			return nil
		}
		if len(doc.Layers) > math.MaxInt16 {
			return &psderrors.RangeError{Field: "layer count", Value: int64(len(doc.Layers)), Min: 0, Max: math.MaxInt16}
		}

		start := e.w.Position()
		count := int16(len(doc.Layers))
		if doc.AbsoluteAlpha {
			count = -count
		}
		if err := e.w.WriteInt16(count); err != nil {
			return err
		}

		e.logger.Debug("📚 Writing layers", "count", len(doc.Layers), "offset", start)

		encoded := make([][]encodedChannel, len(doc.Layers))
		for i, layer := range doc.Layers {
			channels, err := e.encodeLayerChannels(doc, layer)
			if err != nil {
				return fmt.Errorf("layer %d (%q): %w", i, layer.Name, err)
			}
			encoded[i] = channels
			if err := e.writeLayerRecord(layer, channels); err != nil {
				return fmt.Errorf("layer %d (%q): %w", i, layer.Name, err)
			}
		}

		for i, layer := range doc.Layers {
			if err := e.writeLayerPixels(layer, encoded[i]); err != nil {
				return fmt.Errorf("layer %d (%q) pixel data: %w", i, layer.Name, err)
			}
		}

		if (e.w.Position()-start)%2 == 1 {
			return e.w.WriteByte(0)
		}
		return nil
	})
}

func (e *Encoder) encodeLayerChannels(doc *Document, layer *Layer) ([]encodedChannel, error) {
	out := make([]encodedChannel, len(layer.channels))
	for i, ch := range layer.channels {
		if ch.passthrough() {
			out[i] = encodedChannel{compression: ch.Compression, data: ch.Data}
			continue
		}
		bounds := layer.channelBounds(ch.ID)
		src := ch.ImageData
		if ch.ID == ChannelUserMask && layer.Mask != nil && layer.Mask.ImageData != nil {
			src = layer.Mask.ImageData
		}
		compression := ch.Compression
		rows, stride := bounds.Height(), doc.BytesPerRow(bounds.Width())
		data, err := encodePlane(compression, src, rows, stride)
		if errors.Is(err, rle.ErrRowTooLong) {
			e.logger.Warn("⚠️ Storing channel uncompressed, RLE rows too long",
				"layer", layer.Name,
				"channel", int16(ch.ID),
				"stride", stride,
			)
			compression = CompressionRaw
			data, err = encodePlane(compression, src, rows, stride)
		}
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch.ID, err)
		}
		if uint64(len(data))+compressionTagSize > math.MaxUint32 {
			return nil, fmt.Errorf("%w: channel %d holds %d bytes", psderrors.ErrInvalidSectionSize, ch.ID, len(data))
		}
		out[i] = encodedChannel{compression: compression, data: data}
	}
	return out, nil
}

// encodePlane stores a rows × stride raster with c. RLE output starts with
// the per-row packed lengths.
func encodePlane(c Compression, src []byte, rows, stride int) ([]byte, error) {
	switch c {
	case CompressionRaw:
		out := make([]byte, rows*stride)
		copy(out, src)
		return out, nil
	case CompressionRLE:
		counts, packed, err := rle.Compress(src, rows, stride)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 2*len(counts), 2*len(counts)+len(packed))
		for i, n := range counts {
			binary.BigEndian.PutUint16(out[2*i:], n)
		}
		return append(out, packed...), nil
	default:
		return nil, fmt.Errorf("cannot compress pixel data with %s", c)
	}
}

func (e *Encoder) writeLayerRecord(layer *Layer, channels []encodedChannel) error {
	blend := layer.BlendMode
	if blend == "" {
		blend = BlendNormal
	}
	if !blend.Valid() {
		return fmt.Errorf("%w: %q", psderrors.ErrInvalidBlendMode, string(blend))
	}
	if len(layer.channels) > math.MaxUint16 {
		return &psderrors.RangeError{Field: "layer channels", Value: int64(len(layer.channels)), Min: 0, Max: math.MaxUint16}
	}

	e.logger.Trace("🧾 Layer record", "name", layer.Name, "rect", layer.Rect.String(), "offset", e.w.Position())

	if err := writeRect(e.w, layer.Rect); err != nil {
		return err
	}
	if err := e.w.WriteUint16(uint16(len(layer.channels))); err != nil {
		return err
	}
	for i, ch := range layer.channels {
		if err := e.w.WriteInt16(int16(ch.ID)); err != nil {
			return err
		}
		if err := e.w.WriteUint32(uint32(len(channels[i].data) + compressionTagSize)); err != nil {
			return err
		}
	}

	if err := e.w.WriteKey(BlendSignature); err != nil {
		return err
	}
	if err := e.w.WriteKey(string(blend)); err != nil {
		return err
	}
	var clipping byte
	if layer.Clipping {
		clipping = 1
	}
	if err := e.w.WriteBytes([]byte{layer.Opacity, clipping, byte(layer.Flags), 0}); err != nil {
		return err
	}

	return e.w.WriteSection(func() error { return e.writeLayerExtra(layer) })
}

func (e *Encoder) writeLayerExtra(layer *Layer) error {
	if err := e.writeMask(layer.Mask); err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if err := e.w.WriteSection(func() error { return e.w.WriteBytes(layer.BlendingRanges) }); err != nil {
		return fmt.Errorf("blending ranges: %w", err)
	}

	namePos := e.w.Position()
	if _, err := e.w.WritePascalString(layer.Name, bigendian.Padded); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if pad := (e.w.Position() - namePos) % 4; pad > 0 {
		if err := e.w.WriteZeros(int(pad)); err != nil {
			return err
		}
	}

	for _, info := range layer.AdjustmentInfo {
		sig := info.Signature
		if sig == "" {
			sig = BlendSignature
		}
		if err := e.w.WriteKey(sig); err != nil {
			return err
		}
		if err := e.w.WriteKey(info.Key); err != nil {
			return err
		}
		if err := e.w.WriteUint32(uint32(len(info.Data))); err != nil {
			return err
		}
		if err := e.w.WriteBytes(info.Data); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeMask(m *Mask) error {
	if m == nil {
		return e.w.WriteUint32(0)
	}
	return e.w.WriteSection(func() error {
		if err := writeRect(e.w, m.Rect); err != nil {
			return err
		}
		if err := e.w.WriteBytes([]byte{m.DefaultColor, byte(m.Flags)}); err != nil {
			return err
		}
		if m.Real == nil {
			return e.w.WriteZeros(maskBlockSize - 18)
		}
		if err := e.w.WriteBytes([]byte{byte(m.Real.Flags), m.Real.DefaultColor}); err != nil {
			return err
		}
		return writeRect(e.w, m.Real.Rect)
	})
}

// writeLayerPixels stores channels in record order with the user mask
// channel moved last, matching how the decoder consumes them.
func (e *Encoder) writeLayerPixels(layer *Layer, channels []encodedChannel) error {
	mask := -1
	for i, ch := range layer.channels {
		if ch.ID == ChannelUserMask {
			mask = i
			continue
		}
		if err := e.writeChannel(channels[i]); err != nil {
			return fmt.Errorf("channel %d: %w", ch.ID, err)
		}
	}
	if mask < 0 {
		return nil
	}
	if err := e.writeChannel(channels[mask]); err != nil {
		return fmt.Errorf("mask channel: %w", err)
	}
	return nil
}

func (e *Encoder) writeChannel(ch encodedChannel) error {
	if err := e.w.WriteUint16(uint16(ch.compression)); err != nil {
		return err
	}
	return e.w.WriteBytes(ch.data)
}

func (e *Encoder) writeImageData(doc *Document) error {
	rows, stride := doc.Height, doc.BytesPerRow(doc.Width)
	compression := doc.Compression

	var counts [][]uint16
	var packed [][]byte
	if compression == CompressionRLE {
		counts = make([][]uint16, doc.ChannelCount)
		packed = make([][]byte, doc.ChannelCount)
		for i := range packed {
			c, data, err := rle.Compress(doc.plane(i), rows, stride)
			if errors.Is(err, rle.ErrRowTooLong) {
				e.logger.Warn("⚠️ Storing merged image uncompressed, RLE rows too long",
					"channel", i,
					"stride", stride,
				)
				compression = CompressionRaw
				break
			}
			if err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
			counts[i], packed[i] = c, data
		}
	}

	e.logger.Debug("🖼️ Writing merged image",
		"compression", compression.String(),
		"channels", doc.ChannelCount,
		"offset", e.w.Position(),
	)
	if err := e.w.WriteUint16(uint16(compression)); err != nil {
		return err
	}

	switch compression {
	case CompressionRaw:
		plane := make([]byte, rows*stride)
		for i := 0; i < doc.ChannelCount; i++ {
			clear(plane)
			copy(plane, doc.plane(i))
			if err := e.w.WriteBytes(plane); err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
		}
		return nil
	case CompressionRLE:
		for _, rowCounts := range counts {
			for _, n := range rowCounts {
				if err := e.w.WriteUint16(n); err != nil {
					return err
				}
			}
		}
		for _, data := range packed {
			if err := e.w.WriteBytes(data); err != nil {
				return err
			}
		}
		return nil
	default:
		return e.w.WriteBytes(doc.imageRaw)
	}
}
