package svgtree

// BlendMode is the operator used to composite a layer
// (or the first input of feBlend) onto its backdrop.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity

	// Porter-Duff operators, used for clipping, masking and feComposite.

	BlendClear
	BlendDestinationOver
	BlendSourceIn
	BlendDestinationIn
	BlendSourceOut
	BlendDestinationOut
	BlendSourceAtop
	BlendDestinationAtop
	BlendXor
)

var blendNames = [...]string{
	BlendNormal:          "normal",
	BlendMultiply:        "multiply",
	BlendScreen:          "screen",
	BlendOverlay:         "overlay",
	BlendDarken:          "darken",
	BlendLighten:         "lighten",
	BlendColorDodge:      "color-dodge",
	BlendColorBurn:       "color-burn",
	BlendHardLight:       "hard-light",
	BlendSoftLight:       "soft-light",
	BlendDifference:      "difference",
	BlendExclusion:       "exclusion",
	BlendHue:             "hue",
	BlendSaturation:      "saturation",
	BlendColor:           "color",
	BlendLuminosity:      "luminosity",
	BlendClear:           "clear",
	BlendDestinationOver: "destination-over",
	BlendSourceIn:        "source-in",
	BlendDestinationIn:   "destination-in",
	BlendSourceOut:       "source-out",
	BlendDestinationOut:  "destination-out",
	BlendSourceAtop:      "source-atop",
	BlendDestinationAtop: "destination-atop",
	BlendXor:             "xor",
}

func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return "<unknown BlendMode>"
}

// ParseBlendMode returns the blend mode named s,
// as used by mix-blend-mode and feBlend.
func ParseBlendMode(s string) (BlendMode, bool) {
	for i, name := range blendNames[:BlendClear] {
		if name == s {
			return BlendMode(i), true
		}
	}
	return BlendNormal, false
}

// IsSeparable returns true for the modes computed per channel.
func (b BlendMode) IsSeparable() bool { return b < BlendHue }

// IsPorterDuff returns true for the compositing operators.
func (b BlendMode) IsPorterDuff() bool { return b == BlendNormal || b >= BlendClear }
