package psd

import (
	"fmt"

	psderrors "github.com/provide-io/psdkit/pkg/psd/errors"
)

// Layer is one entry of the layer list. Channels are kept both in file
// order and indexed by id; AddChannel is the only way in so the two views
// always hold the same set.
type Layer struct {
	Rect      Rect
	BlendMode BlendMode
	Opacity   uint8

	// Clipping is true for a clipped (non-base) layer.
	Clipping bool
	Flags    LayerFlags

	Mask           *Mask
	BlendingRanges []byte
	Name           string

	// AdjustmentInfo holds tagged extension records verbatim.
	AdjustmentInfo []*AdjustmentInfo

	channels []*Channel
	byID     map[ChannelID]*Channel
}

// NewLayer returns a visible, opaque, normal-blend layer covering rect.
func NewLayer(name string, rect Rect) *Layer {
	return &Layer{
		Rect:      rect,
		BlendMode: BlendNormal,
		Opacity:   255,
		Name:      name,
	}
}

// AddChannel appends ch to both channel views. Ids must be unique per layer.
func (l *Layer) AddChannel(ch *Channel) error {
	if l.byID == nil {
		l.byID = make(map[ChannelID]*Channel)
	}
	if _, dup := l.byID[ch.ID]; dup {
		return fmt.Errorf("%w: layer %q already has channel %d", psderrors.ErrDuplicateChannel, l.Name, ch.ID)
	}
	l.channels = append(l.channels, ch)
	l.byID[ch.ID] = ch
	return nil
}

// Channels returns the channels in file order.
func (l *Layer) Channels() []*Channel {
	return append([]*Channel(nil), l.channels...)
}

// Channel looks a channel up by id.
func (l *Layer) Channel(id ChannelID) (*Channel, bool) {
	ch, ok := l.byID[id]
	return ch, ok
}

// Visible reports whether the hidden flag is clear.
func (l *Layer) Visible() bool {
	return l.Flags.Visible()
}

// channelBounds is the raster rectangle a channel's pixels cover.
func (l *Layer) channelBounds(id ChannelID) Rect {
	if (id == ChannelUserMask || id == ChannelRealUserMask) && l.Mask != nil {
		return l.Mask.Bounds()
	}
	return l.Rect
}

// Channel is one raster plane of a layer.
type Channel struct {
	ID ChannelID

	// Length is the on-disk byte count from the last decode, including
	// the 2-byte compression tag.
	Length uint32

	Compression Compression

	// ImageData is the decoded raster, rows × bytes-per-row. Zero-filled
	// when Compression is not decodable.
	ImageData []byte

	// Data is the stored payload after the compression tag. It is written
	// back as-is when Compression is not decodable or ImageData is nil.
	Data []byte
}

// NewChannel returns a channel holding raster data to be stored with c.
func NewChannel(id ChannelID, c Compression, imageData []byte) *Channel {
	return &Channel{ID: id, Compression: c, ImageData: imageData}
}

// passthrough reports whether the stored payload is written unchanged.
func (c *Channel) passthrough() bool {
	return !c.Compression.Decodable() || (c.ImageData == nil && c.Data != nil)
}

// Mask is a layer's user mask description. Its pixels live in the layer's
// ChannelUserMask channel.
type Mask struct {
	Rect         Rect
	DefaultColor uint8
	Flags        MaskFlags

	// Real is present when the mask block is 36 bytes long. Its rectangle
	// supersedes Rect.
	Real *RealMask

	// ImageData is the decoded mask raster. When set it is what the
	// encoder stores for ChannelUserMask.
	ImageData []byte
}

// Bounds is the rectangle the mask pixels cover.
func (m *Mask) Bounds() Rect {
	if m.Real != nil {
		return m.Real.Rect
	}
	return m.Rect
}

// RealMask is the second mask description carried by 36-byte mask blocks.
type RealMask struct {
	Flags        MaskFlags
	DefaultColor uint8
	Rect         Rect
}

const (
	maskBlockSize     = 20
	realMaskBlockSize = 36
)

// AdjustmentInfo is a tagged per-layer extension record kept verbatim.
type AdjustmentInfo struct {
	Signature string
	Key       string
	Data      []byte
}
