package psd

import (
	"fmt"

	"github.com/provide-io/psdkit/pkg/psd/bigendian"
)

// Rect is a bounding box stored on disk as top, left, bottom, right.
type Rect struct {
	Top    int32
	Left   int32
	Bottom int32
	Right  int32
}

// NewRect builds a Rect from an origin and a size.
func NewRect(left, top, width, height int32) Rect {
	return Rect{Top: top, Left: left, Bottom: top + height, Right: left + width}
}

// Height is Bottom minus Top, never negative.
func (r Rect) Height() int {
	return max(int(r.Bottom)-int(r.Top), 0)
}

// Width is Right minus Left, never negative.
func (r Rect) Width() int {
	return max(int(r.Right)-int(r.Left), 0)
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Height() == 0 || r.Width() == 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d) %dx%d", r.Left, r.Top, r.Right, r.Bottom, r.Width(), r.Height())
}

func readRect(r *bigendian.Reader) (Rect, error) {
	var rect Rect
	var err error
	if rect.Top, err = r.ReadInt32(); err != nil {
		return rect, err
	}
	if rect.Left, err = r.ReadInt32(); err != nil {
		return rect, err
	}
	if rect.Bottom, err = r.ReadInt32(); err != nil {
		return rect, err
	}
	rect.Right, err = r.ReadInt32()
	return rect, err
}

func writeRect(w *bigendian.Writer, rect Rect) error {
	for _, v := range [...]int32{rect.Top, rect.Left, rect.Bottom, rect.Right} {
		if err := w.WriteInt32(v); err != nil {
			return err
		}
	}
	return nil
}
