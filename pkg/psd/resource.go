package psd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ResourceID identifies an image resource block.
type ResourceID int16

const (
	ResourceResolutionInfo    ResourceID = 1005
	ResourceAlphaChannelNames ResourceID = 1006
	ResourceCaption           ResourceID = 1008
	ResourceLayerGroups       ResourceID = 1026
	ResourceThumbnailPS4      ResourceID = 1033
	ResourceThumbnail         ResourceID = 1036
)

func (id ResourceID) String() string {
	switch id {
	case ResourceResolutionInfo:
		return "ResolutionInfo"
	case ResourceAlphaChannelNames:
		return "AlphaChannelNames"
	case ResourceCaption:
		return "Caption"
	case ResourceLayerGroups:
		return "LayerGroups"
	case ResourceThumbnailPS4:
		return "ThumbnailPS4"
	case ResourceThumbnail:
		return "Thumbnail"
	default:
		return fmt.Sprintf("Resource(%d)", int16(id))
	}
}

// Resource is one image resource block. Value holds the payload, either as
// one of the typed variants or as Opaque bytes.
type Resource struct {
	ID    ResourceID
	Name  string
	Value ResourceValue
}

// NewResource wraps a typed or opaque value under id.
func NewResource(id ResourceID, name string, value ResourceValue) *Resource {
	return &Resource{ID: id, Name: name, Value: value}
}

// Payload serializes the value back to the bytes stored in the block.
func (r *Resource) Payload() ([]byte, error) {
	if r.Value == nil {
		return nil, nil
	}
	data, err := r.Value.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", r.ID, err)
	}
	return data, nil
}

// ResourceValue is the closed set of resource payload variants:
// *Opaque, *ResolutionInfo, *Thumbnail and *AlphaChannelNames.
type ResourceValue interface {
	MarshalBinary() ([]byte, error)
	resourceValue()
}

// decodeResourceValue picks the typed view for id. A payload the typed
// parser rejects is kept opaque.
func decodeResourceValue(id ResourceID, data []byte) (ResourceValue, error) {
	var (
		v   ResourceValue
		err error
	)
	switch id {
	case ResourceResolutionInfo:
		v, err = parseResolutionInfo(data)
	case ResourceThumbnail, ResourceThumbnailPS4:
		v, err = parseThumbnail(data)
	case ResourceAlphaChannelNames:
		v, err = parseAlphaChannelNames(data)
	default:
		return &Opaque{Data: data}, nil
	}
	if err != nil {
		return &Opaque{Data: data}, err
	}
	return v, nil
}

// Opaque is an uninterpreted resource payload.
type Opaque struct {
	Data []byte
}

func (*Opaque) resourceValue() {}

func (o *Opaque) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), o.Data...), nil
}

// Fixed is a signed 16.16 fixed-point number.
type Fixed int32

// FixedFromFloat rounds f to the nearest 16.16 value.
func FixedFromFloat(f float64) Fixed {
	return Fixed(math.Round(f * 65536))
}

func (f Fixed) Float64() float64 {
	return float64(f) / 65536
}

// ResolutionUnit is the unit a pixel density is expressed in.
type ResolutionUnit uint16

const (
	PixelsPerInch ResolutionUnit = 1
	PixelsPerCM   ResolutionUnit = 2
)

// SizeUnit is the unit used to display a document dimension.
type SizeUnit uint16

const (
	UnitInches  SizeUnit = 1
	UnitCM      SizeUnit = 2
	UnitPoints  SizeUnit = 3
	UnitPicas   SizeUnit = 4
	UnitColumns SizeUnit = 5
)

const resolutionInfoSize = 16

// ResolutionInfo is resource 1005. Horizontal and vertical values are
// independent.
type ResolutionInfo struct {
	HorizontalRes  Fixed
	HorizontalUnit ResolutionUnit
	WidthUnit      SizeUnit
	VerticalRes    Fixed
	VerticalUnit   ResolutionUnit
	HeightUnit     SizeUnit
}

func (*ResolutionInfo) resourceValue() {}

func (ri *ResolutionInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, resolutionInfoSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(ri.HorizontalRes))
	binary.BigEndian.PutUint16(buf[4:6], uint16(ri.HorizontalUnit))
	binary.BigEndian.PutUint16(buf[6:8], uint16(ri.WidthUnit))
	binary.BigEndian.PutUint32(buf[8:12], uint32(ri.VerticalRes))
	binary.BigEndian.PutUint16(buf[12:14], uint16(ri.VerticalUnit))
	binary.BigEndian.PutUint16(buf[14:16], uint16(ri.HeightUnit))
	return buf, nil
}

func parseResolutionInfo(data []byte) (*ResolutionInfo, error) {
	if len(data) != resolutionInfoSize {
		return nil, fmt.Errorf("resolution info: expected %d bytes, got %d", resolutionInfoSize, len(data))
	}
	return &ResolutionInfo{
		HorizontalRes:  Fixed(binary.BigEndian.Uint32(data[0:4])),
		HorizontalUnit: ResolutionUnit(binary.BigEndian.Uint16(data[4:6])),
		WidthUnit:      SizeUnit(binary.BigEndian.Uint16(data[6:8])),
		VerticalRes:    Fixed(binary.BigEndian.Uint32(data[8:12])),
		VerticalUnit:   ResolutionUnit(binary.BigEndian.Uint16(data[12:14])),
		HeightUnit:     SizeUnit(binary.BigEndian.Uint16(data[14:16])),
	}, nil
}

// Thumbnail formats
const (
	ThumbnailRaw  uint32 = 0
	ThumbnailJPEG uint32 = 1
)

const thumbnailHeaderSize = 28

// Thumbnail is resource 1033 or 1036.
type Thumbnail struct {
	Format         uint32
	Width          uint32
	Height         uint32
	WidthBytes     uint32 // padded row size, (Width*BitsPerPixel+31)/32*4
	TotalSize      uint32
	CompressedSize uint32
	BitsPerPixel   uint16
	Planes         uint16

	// ImageData is everything after the header: pixel rows when Format is
	// ThumbnailRaw, the JFIF stream otherwise.
	ImageData []byte
}

func (*Thumbnail) resourceValue() {}

// RawImage returns the uncompressed pixel rows, or nil when the thumbnail
// is not stored raw.
func (t *Thumbnail) RawImage() []byte {
	if t.Format != ThumbnailRaw {
		return nil
	}
	return t.ImageData
}

func (t *Thumbnail) MarshalBinary() ([]byte, error) {
	buf := make([]byte, thumbnailHeaderSize, thumbnailHeaderSize+len(t.ImageData))
	binary.BigEndian.PutUint32(buf[0:4], t.Format)
	binary.BigEndian.PutUint32(buf[4:8], t.Width)
	binary.BigEndian.PutUint32(buf[8:12], t.Height)
	binary.BigEndian.PutUint32(buf[12:16], t.WidthBytes)
	binary.BigEndian.PutUint32(buf[16:20], t.TotalSize)
	binary.BigEndian.PutUint32(buf[20:24], t.CompressedSize)
	binary.BigEndian.PutUint16(buf[24:26], t.BitsPerPixel)
	binary.BigEndian.PutUint16(buf[26:28], t.Planes)
	return append(buf, t.ImageData...), nil
}

func parseThumbnail(data []byte) (*Thumbnail, error) {
	if len(data) < thumbnailHeaderSize {
		return nil, fmt.Errorf("thumbnail: header needs %d bytes, got %d", thumbnailHeaderSize, len(data))
	}
	t := &Thumbnail{
		Format:         binary.BigEndian.Uint32(data[0:4]),
		Width:          binary.BigEndian.Uint32(data[4:8]),
		Height:         binary.BigEndian.Uint32(data[8:12]),
		WidthBytes:     binary.BigEndian.Uint32(data[12:16]),
		TotalSize:      binary.BigEndian.Uint32(data[16:20]),
		CompressedSize: binary.BigEndian.Uint32(data[20:24]),
		BitsPerPixel:   binary.BigEndian.Uint16(data[24:26]),
		Planes:         binary.BigEndian.Uint16(data[26:28]),
	}
	if len(data) > thumbnailHeaderSize {
		t.ImageData = append([]byte(nil), data[thumbnailHeaderSize:]...)
	}
	return t, nil
}

// AlphaChannelNames is resource 1006: unpadded Pascal strings back to back.
type AlphaChannelNames struct {
	Names []string
}

func (*AlphaChannelNames) resourceValue() {}

func (a *AlphaChannelNames) MarshalBinary() ([]byte, error) {
	var buf []byte
	for _, name := range a.Names {
		if len(name) > 255 {
			name = name[:255]
		}
		buf = append(buf, byte(len(name)))
		buf = append(buf, name...)
	}
	return buf, nil
}

var errShortName = errors.New("alpha channel names: string runs past end of payload")

func parseAlphaChannelNames(data []byte) (*AlphaChannelNames, error) {
	a := &AlphaChannelNames{}
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		if i+n > len(data) {
			return nil, errShortName
		}
		a.Names = append(a.Names, string(data[i:i+n]))
		i += n
	}
	return a, nil
}
