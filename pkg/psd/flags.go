package psd

// LayerFlags is the layer record flag byte. Bits other than the named ones
// are carried through unchanged.
type LayerFlags uint8

const (
	LayerProtectTransparency LayerFlags = 1 << 0
	LayerHidden              LayerFlags = 1 << 1
)

func (f LayerFlags) ProtectTransparency() bool {
	return f&LayerProtectTransparency != 0
}

// Visible is the inverse of the hidden bit.
func (f LayerFlags) Visible() bool {
	return f&LayerHidden == 0
}

func (f LayerFlags) WithProtectTransparency(on bool) LayerFlags {
	return f.with(LayerProtectTransparency, on)
}

func (f LayerFlags) WithVisible(visible bool) LayerFlags {
	return f.with(LayerHidden, !visible)
}

func (f LayerFlags) with(bit LayerFlags, on bool) LayerFlags {
	if on {
		return f | bit
	}
	return f &^ bit
}

// MaskFlags is the layer mask flag byte.
type MaskFlags uint8

const (
	MaskPositionRelative MaskFlags = 1 << 0
	MaskDisabled         MaskFlags = 1 << 1
	MaskInvertOnBlend    MaskFlags = 1 << 2
)

// PositionRelative reports whether the mask position is relative to the layer.
func (f MaskFlags) PositionRelative() bool {
	return f&MaskPositionRelative != 0
}

func (f MaskFlags) Disabled() bool {
	return f&MaskDisabled != 0
}

func (f MaskFlags) InvertOnBlend() bool {
	return f&MaskInvertOnBlend != 0
}

func (f MaskFlags) WithPositionRelative(on bool) MaskFlags {
	return f.with(MaskPositionRelative, on)
}

func (f MaskFlags) WithDisabled(on bool) MaskFlags {
	return f.with(MaskDisabled, on)
}

func (f MaskFlags) WithInvertOnBlend(on bool) MaskFlags {
	return f.with(MaskInvertOnBlend, on)
}

func (f MaskFlags) with(bit MaskFlags, on bool) MaskFlags {
	if on {
		return f | bit
	}
	return f &^ bit
}
