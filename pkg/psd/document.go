package psd

import (
	"sort"

	psderrors "github.com/provide-io/psdkit/pkg/psd/errors"
)

// Document is a decoded Photoshop file. It owns its resources, layers and
// rasters; nothing is shared with other documents.
type Document struct {
	ChannelCount int
	Width        int
	Height       int
	Depth        int
	ColorMode    ColorMode

	// ColorModeData is the palette for indexed documents and opaque
	// settings for duotone ones. Empty for every other mode.
	ColorModeData []byte

	// Resources is keyed by id; a later block with the same id replaces
	// an earlier one.
	Resources map[ResourceID]*Resource

	Layers []*Layer

	// AbsoluteAlpha marks the first alpha channel of the merged image as
	// the merged result's transparency. Stored as a negative layer count.
	AbsoluteAlpha bool

	GlobalLayerMask []byte

	// AdditionalLayerInfo holds the bytes that follow the global layer
	// mask inside the layer and mask section.
	AdditionalLayerInfo []byte

	// Compression and ImageData describe the merged image, one plane per
	// header channel.
	Compression Compression
	ImageData   [][]byte

	// imageRaw is the stored merged image when Compression is not
	// decodable.
	imageRaw []byte
}

// NewDocument returns an empty document after validating the header fields.
func NewDocument(channels, width, height, depth int, mode ColorMode) (*Document, error) {
	doc := &Document{
		ChannelCount: channels,
		Width:        width,
		Height:       height,
		Depth:        depth,
		ColorMode:    mode,
		Resources:    make(map[ResourceID]*Resource),
		Compression:  CompressionRLE,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the header fields against their supported ranges.
func (d *Document) Validate() error {
	if err := psderrors.CheckRange("channels", int64(d.ChannelCount), MinChannels, MaxChannels); err != nil {
		return err
	}
	if err := psderrors.CheckRange("width", int64(d.Width), MinWidth, MaxWidth); err != nil {
		return err
	}
	if err := psderrors.CheckRange("height", int64(d.Height), MinHeight, MaxHeight); err != nil {
		return err
	}
	allowed := make([]int64, len(SupportedDepths))
	for i, v := range SupportedDepths {
		allowed[i] = int64(v)
	}
	return psderrors.CheckOneOf("depth", int64(d.Depth), allowed...)
}

// BytesPerRow is the scanline size of a raster of the given width at the
// document's depth.
func (d *Document) BytesPerRow(width int) int {
	return bytesPerRow(d.Depth, width)
}

// PlaneSize is the byte size of one merged image channel.
func (d *Document) PlaneSize() int {
	return d.Height * d.BytesPerRow(d.Width)
}

// Resource returns the resource stored under id.
func (d *Document) Resource(id ResourceID) (*Resource, bool) {
	r, ok := d.Resources[id]
	return r, ok
}

// SetResource stores r, replacing any resource with the same id.
func (d *Document) SetResource(r *Resource) {
	if d.Resources == nil {
		d.Resources = make(map[ResourceID]*Resource)
	}
	d.Resources[r.ID] = r
}

// ResolutionInfo returns the typed resolution resource when present.
func (d *Document) ResolutionInfo() (*ResolutionInfo, bool) {
	r, ok := d.Resources[ResourceResolutionInfo]
	if !ok {
		return nil, false
	}
	ri, ok := r.Value.(*ResolutionInfo)
	return ri, ok
}

// Thumbnail returns the newest thumbnail resource when present.
func (d *Document) Thumbnail() (*Thumbnail, bool) {
	for _, id := range []ResourceID{ResourceThumbnail, ResourceThumbnailPS4} {
		if r, ok := d.Resources[id]; ok {
			if t, ok := r.Value.(*Thumbnail); ok {
				return t, true
			}
		}
	}
	return nil, false
}

// LayerByName returns the first layer called name.
func (d *Document) LayerByName(name string) *Layer {
	for _, l := range d.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// sortedResources returns resources in ascending id order so encoding is
// deterministic.
func (d *Document) sortedResources() []*Resource {
	out := make([]*Resource, 0, len(d.Resources))
	for _, r := range d.Resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// plane returns merged image channel i, or nil when it was never set.
func (d *Document) plane(i int) []byte {
	if i < len(d.ImageData) {
		return d.ImageData[i]
	}
	return nil
}
