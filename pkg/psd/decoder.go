package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/psdkit/pkg/psd/bigendian"
	psderrors "github.com/provide-io/psdkit/pkg/psd/errors"
	"github.com/provide-io/psdkit/pkg/psd/rle"
)

// eagerPlaneLimit caps the up-front capacity of an RLE merged image plane.
const eagerPlaneLimit = 1 << 20

// Decoder reads one document from a seekable stream.
type Decoder struct {
	r      *bigendian.Reader
	logger hclog.Logger
}

// NewDecoder creates a decoder that logs nothing.
func NewDecoder(r io.ReadSeeker) (*Decoder, error) {
	return NewDecoderWithLogger(r, hclog.NewNullLogger())
}

// NewDecoderWithLogger creates a decoder with a custom logger.
func NewDecoderWithLogger(r io.ReadSeeker, logger hclog.Logger) (*Decoder, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	br, err := bigendian.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: br, logger: logger}, nil
}

// Decode reads a document from r.
func Decode(r io.ReadSeeker) (*Document, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return d.Decode()
}

// Unmarshal decodes a document held in memory.
func Unmarshal(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads the whole document. Any format or range error aborts the
// parse and no document is returned.
func (d *Decoder) Decode() (*Document, error) {
	doc := &Document{Resources: make(map[ResourceID]*Resource)}

	if err := d.readHeader(doc); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := d.readColorModeData(doc); err != nil {
		return nil, fmt.Errorf("reading color mode data: %w", err)
	}
	if err := d.readResources(doc); err != nil {
		return nil, fmt.Errorf("reading image resources: %w", err)
	}
	if err := d.readLayerAndMask(doc); err != nil {
		return nil, fmt.Errorf("reading layer and mask information: %w", err)
	}
	if err := d.readImageData(doc); err != nil {
		return nil, fmt.Errorf("reading merged image: %w", err)
	}

	d.logger.Debug("✅ Document decoded",
		"width", doc.Width,
		"height", doc.Height,
		"layers", len(doc.Layers),
		"resources", len(doc.Resources),
	)
	return doc, nil
}

func (d *Decoder) readHeader(doc *Document) error {
	d.logger.Trace("📂 Reading header", "offset", d.r.Position())

	sig, err := d.r.ReadKey()
	if err != nil {
		return err
	}
	if sig != FileSignature {
		return psderrors.NewSignatureError("file signature", FileSignature, sig)
	}

	version, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	if version != Version {
		return &psderrors.FormatError{
			Field:    "version",
			Expected: strconv.Itoa(Version),
			Found:    strconv.Itoa(int(version)),
			Err:      psderrors.ErrInvalidVersion,
		}
	}

	if err := d.r.Skip(headerReservedSize); err != nil {
		return err
	}

	channels, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	height, err := d.r.ReadUint32()
	if err != nil {
		return err
	}
	width, err := d.r.ReadUint32()
	if err != nil {
		return err
	}
	depth, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	mode, err := d.r.ReadUint16()
	if err != nil {
		return err
	}

	doc.ChannelCount = int(channels)
	doc.Height = int(height)
	doc.Width = int(width)
	doc.Depth = int(depth)
	doc.ColorMode = ColorMode(mode)

	d.logger.Debug("📈 Header",
		"channels", doc.ChannelCount,
		"width", doc.Width,
		"height", doc.Height,
		"depth", doc.Depth,
		"mode", doc.ColorMode.String(),
	)
	return doc.Validate()
}

func (d *Decoder) readColorModeData(doc *Document) error {
	return d.r.ReadSection(func(length uint32, _ int64) error {
		if length == 0 {
			return nil
		}
		data, err := d.r.ReadBytes(int(length))
		doc.ColorModeData = data
		return err
	})
}

func (d *Decoder) readResources(doc *Document) error {
	return d.r.ReadSection(func(length uint32, end int64) error {
		d.logger.Trace("📂 Reading image resources", "offset", d.r.Position(), "length", length)
		for d.r.Position() < end {
			res, err := d.readResource()
			if err != nil {
				return err
			}
			doc.Resources[res.ID] = res
		}
		return nil
	})
}

func (d *Decoder) readResource() (*Resource, error) {
	offset := d.r.Position()

	sig, err := d.r.ReadKey()
	if err != nil {
		return nil, err
	}
	if sig != ResourceSignature {
		return nil, psderrors.NewSignatureError("image resource signature", ResourceSignature, sig)
	}

	rawID, err := d.r.ReadInt16()
	if err != nil {
		return nil, err
	}
	id := ResourceID(rawID)

	name, err := d.r.ReadPascalString(bigendian.Padded)
	if err != nil {
		return nil, err
	}

	length, err := d.r.ReadUint32()
	if err != nil {
		return nil, err
	}
	data, err := d.r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	if length%2 == 1 {
		if err := d.r.Skip(1); err != nil {
			return nil, err
		}
	}

	value, perr := decodeResourceValue(id, data)
	if perr != nil {
		d.logger.Warn("⚠️ Keeping resource opaque", "id", int16(id), "error", perr)
	}
	d.logger.Trace("📄 Image resource",
		"id", int16(id),
		"kind", id.String(),
		"name", name,
		"length", length,
		"offset", offset,
	)
	return &Resource{ID: id, Name: name, Value: value}, nil
}

func (d *Decoder) readLayerAndMask(doc *Document) error {
	return d.r.ReadSection(func(length uint32, end int64) error {
		if length == 0 {
			return nil
		}
		if err := d.readLayerInfo(doc); err != nil {
			return fmt.Errorf("layer info: %w", err)
		}
		if d.r.Position() >= end {
			return nil
		}

		err := d.r.ReadSection(func(n uint32, _ int64) error {
			if n == 0 {
				return nil
			}
			data, err := d.r.ReadBytes(int(n))
			doc.GlobalLayerMask = data
			return err
		})
		if err != nil {
			return fmt.Errorf("global layer mask: %w", err)
		}

		if rest := end - d.r.Position(); rest > 0 {
			data, err := d.r.ReadBytes(int(rest))
			if err != nil {
				return fmt.Errorf("additional layer information: %w", err)
			}
			doc.AdditionalLayerInfo = data
		}
		return nil
	})
}

func (d *Decoder) readLayerInfo(doc *Document) error {
	return d.r.ReadSection(func(length uint32, _ int64) error {
		if length == 0 {
			return nil
		}
		raw, err := d.r.ReadInt16()
		if err != nil {
			return err
		}
		count := int(raw)
		if count < 0 {
			doc.AbsoluteAlpha = true
			count = -count
		}
		d.logger.Debug("📚 Reading layers", "count", count, "absolute_alpha", doc.AbsoluteAlpha, "offset", d.r.Position())

		doc.Layers = make([]*Layer, 0, count)
		for i := 0; i < count; i++ {
			layer, err := d.readLayerRecord()
			if err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			doc.Layers = append(doc.Layers, layer)
		}

		for i, layer := range doc.Layers {
			if err := d.readLayerPixels(doc, layer); err != nil {
				return fmt.Errorf("layer %d (%q) pixel data: %w", i, layer.Name, err)
			}
		}
		return nil
	})
}

func (d *Decoder) readLayerRecord() (*Layer, error) {
	offset := d.r.Position()
	layer := &Layer{}

	rect, err := readRect(d.r)
	if err != nil {
		return nil, err
	}
	layer.Rect = rect

	count, err := d.r.ReadUint16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		id, err := d.r.ReadInt16()
		if err != nil {
			return nil, err
		}
		length, err := d.r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if err := layer.AddChannel(&Channel{ID: ChannelID(id), Length: length}); err != nil {
			return nil, err
		}
	}

	sig, err := d.r.ReadKey()
	if err != nil {
		return nil, err
	}
	if sig != BlendSignature {
		return nil, psderrors.NewSignatureError("layer blend signature", BlendSignature, sig)
	}
	key, err := d.r.ReadKey()
	if err != nil {
		return nil, err
	}
	layer.BlendMode = BlendMode(key)

	var fields [4]byte
	if err := d.r.ReadFull(fields[:]); err != nil {
		return nil, err
	}
	layer.Opacity = fields[0]
	layer.Clipping = fields[1] > 0
	layer.Flags = LayerFlags(fields[2])

	err = d.r.ReadSection(func(_ uint32, end int64) error {
		return d.readLayerExtra(layer, end)
	})
	if err != nil {
		return nil, fmt.Errorf("extra data: %w", err)
	}

	d.logger.Trace("🧾 Layer record",
		"name", layer.Name,
		"rect", layer.Rect.String(),
		"channels", count,
		"blend", string(layer.BlendMode),
		"offset", offset,
	)
	return layer, nil
}

func (d *Decoder) readLayerExtra(layer *Layer, end int64) error {
	err := d.r.ReadSection(func(n uint32, _ int64) error {
		if n == 0 {
			return nil
		}
		m, err := readMask(d.r, n)
		layer.Mask = m
		return err
	})
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}

	err = d.r.ReadSection(func(n uint32, _ int64) error {
		if n == 0 {
			return nil
		}
		data, err := d.r.ReadBytes(int(n))
		layer.BlendingRanges = data
		return err
	})
	if err != nil {
		return fmt.Errorf("blending ranges: %w", err)
	}

	namePos := d.r.Position()
	name, err := d.r.ReadPascalString(bigendian.Padded)
	if err != nil {
		return fmt.Errorf("name: %w", err)
	}
	layer.Name = name
	if pad := (d.r.Position() - namePos) % 4; pad > 0 {
		if err := d.r.Skip(pad); err != nil {
			return err
		}
	}

	for d.r.Position() < end {
		offset := d.r.Position()
		info, err := d.readAdjustmentInfo(end)
		if err != nil {
			// One bad record drops the rest of this layer's extensions,
			// never the document.
			d.logger.Warn("⚠️ Skipping unreadable adjustment layer info",
				"layer", layer.Name,
				"offset", offset,
				"error", err,
			)
			return d.r.Seek(end)
		}
		layer.AdjustmentInfo = append(layer.AdjustmentInfo, info)
	}
	return nil
}

func readMask(r *bigendian.Reader, length uint32) (*Mask, error) {
	m := &Mask{}
	var err error
	if m.Rect, err = readRect(r); err != nil {
		return nil, err
	}
	if m.DefaultColor, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m.Flags = MaskFlags(flags)

	if length == realMaskBlockSize {
		real := &RealMask{}
		if flags, err = r.ReadUint8(); err != nil {
			return nil, err
		}
		real.Flags = MaskFlags(flags)
		if real.DefaultColor, err = r.ReadUint8(); err != nil {
			return nil, err
		}
		if real.Rect, err = readRect(r); err != nil {
			return nil, err
		}
		m.Real = real
	}
	return m, nil
}

var adjustmentSignatures = map[string]bool{"8BIM": true, "8B64": true}

func (d *Decoder) readAdjustmentInfo(end int64) (*AdjustmentInfo, error) {
	sig, err := d.r.ReadKey()
	if err != nil {
		return nil, err
	}
	if !adjustmentSignatures[sig] {
		return nil, psderrors.NewSignatureError("adjustment layer info signature", "8BIM", sig)
	}
	key, err := d.r.ReadKey()
	if err != nil {
		return nil, err
	}
	length, err := d.r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if d.r.Position()+int64(length) > end {
		return nil, fmt.Errorf("%w: record %q of %d bytes overruns the layer extra data", psderrors.ErrInvalidSectionSize, key, length)
	}
	data, err := d.r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	return &AdjustmentInfo{Signature: sig, Key: key, Data: data}, nil
}

// readLayerPixels loads every channel except the user mask in file order,
// then the user mask channel into the layer's Mask.
func (d *Decoder) readLayerPixels(doc *Document, layer *Layer) error {
	for _, ch := range layer.channels {
		if ch.ID == ChannelUserMask {
			continue
		}
		if err := d.readChannelPixels(doc, layer, ch); err != nil {
			return fmt.Errorf("channel %d: %w", ch.ID, err)
		}
	}

	ch, ok := layer.byID[ChannelUserMask]
	if !ok {
		return nil
	}
	if err := d.readChannelPixels(doc, layer, ch); err != nil {
		return fmt.Errorf("mask channel: %w", err)
	}
	if layer.Mask != nil && !layer.Mask.Bounds().Empty() {
		layer.Mask.ImageData = append([]byte(nil), ch.ImageData...)
	}
	return nil
}

func (d *Decoder) readChannelPixels(doc *Document, layer *Layer, ch *Channel) error {
	offset := d.r.Position()
	stored, err := d.r.ReadBytes(int(ch.Length))
	if err != nil {
		return err
	}
	bounds := layer.channelBounds(ch.ID)
	if err := psderrors.CheckRange("channel width", int64(bounds.Width()), 0, MaxWidth); err != nil {
		return err
	}
	if err := psderrors.CheckRange("channel height", int64(bounds.Height()), 0, MaxHeight); err != nil {
		return err
	}
	rows, stride := bounds.Height(), doc.BytesPerRow(bounds.Width())
	if err := decodeChannel(ch, stored, rows, stride); err != nil {
		return err
	}
	d.logger.Trace("🎞️ Channel pixels",
		"id", int16(ch.ID),
		"compression", ch.Compression.String(),
		"length", ch.Length,
		"rows", rows,
		"stride", stride,
		"offset", offset,
	)
	return nil
}

// decodeChannel expands stored (compression tag plus payload) into a
// rows × stride raster.
func decodeChannel(ch *Channel, stored []byte, rows, stride int) error {
	ch.ImageData = nil
	ch.Data = nil
	if len(stored) < compressionTagSize {
		ch.Compression = CompressionRaw
		ch.ImageData = make([]byte, rows*stride)
		return nil
	}
	ch.Compression = Compression(binary.BigEndian.Uint16(stored))
	payload := stored[compressionTagSize:]

	switch ch.Compression {
	case CompressionRaw:
		ch.ImageData = make([]byte, rows*stride)
		copy(ch.ImageData, payload)
	case CompressionRLE:
		table := rows * 2
		if len(payload) < table {
			return fmt.Errorf("row length table needs %d bytes, channel holds %d", table, len(payload))
		}
		if packed := len(payload) - table; rows*stride > packed*rle.MaxExpansion {
			return fmt.Errorf("%w: %d packed bytes cannot fill a %d×%d raster",
				psderrors.ErrInvalidSectionSize, packed, rows, stride)
		}
		ch.ImageData = make([]byte, rows*stride)
		if err := rle.Decompress(bytes.NewReader(payload[table:]), ch.ImageData, rows, stride); err != nil {
			return err
		}
	default:
		ch.ImageData = make([]byte, rows*stride)
		ch.Data = payload
	}
	return nil
}

func (d *Decoder) readImageData(doc *Document) error {
	offset := d.r.Position()
	c, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	doc.Compression = Compression(c)

	rows, stride := doc.Height, doc.BytesPerRow(doc.Width)
	d.logger.Debug("🖼️ Reading merged image",
		"compression", doc.Compression.String(),
		"channels", doc.ChannelCount,
		"offset", offset,
	)

	// Planes are allocated as they are read so a short stream fails before
	// the header's full claimed size is committed.
	switch doc.Compression {
	case CompressionRaw:
		doc.ImageData = make([][]byte, 0, doc.ChannelCount)
		for i := 0; i < doc.ChannelCount; i++ {
			plane, err := d.r.ReadBytes(rows * stride)
			if err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
			doc.ImageData = append(doc.ImageData, plane)
		}
	case CompressionRLE:
		if err := d.r.Skip(int64(rows * doc.ChannelCount * 2)); err != nil {
			return err
		}
		doc.ImageData = make([][]byte, 0, doc.ChannelCount)
		row := make([]byte, stride)
		for i := 0; i < doc.ChannelCount; i++ {
			plane := make([]byte, 0, min(rows*stride, eagerPlaneLimit))
			for y := 0; y < rows; y++ {
				if err := rle.DecodeRow(d.r, row); err != nil {
					return fmt.Errorf("channel %d: scanline %d: %w", i, y, err)
				}
				plane = append(plane, row...)
			}
			doc.ImageData = append(doc.ImageData, plane)
		}
	default:
		raw, err := d.r.ReadRemaining()
		if err != nil {
			return err
		}
		doc.imageRaw = raw
		doc.ImageData = make([][]byte, doc.ChannelCount)
		for i := range doc.ImageData {
			doc.ImageData[i] = make([]byte, rows*stride)
		}
	}
	return nil
}
