package highlight

import "strings"

// ClassHighlight is carried by every highlight marker.
const ClassHighlight = "search-highlight"

// Color is a slot in the fixed highlight palette.
type Color int

const (
	ColorYellow Color = iota
	ColorGreen
	ColorBlue
	ColorPink
	ColorOrange
	ColorPurple
	ColorTeal
	ColorRed
	ColorLime
	ColorIndigo
	numColors
)

var colorNames = [numColors]string{
	"yellow", "green", "blue", "pink", "orange",
	"purple", "teal", "red", "lime", "indigo",
}

var colorHex = [numColors]string{
	"#fff176", "#a5d6a7", "#90caf9", "#f48fb1", "#ffcc80",
	"#ce93d8", "#80cbc4", "#ef9a9a", "#e6ee9c", "#9fa8da",
}

// PaletteSize is the number of distinct colors.
const PaletteSize = int(numColors)

// ColorForSlot maps a term's sort position to a color, cycling the palette.
func ColorForSlot(slot int) Color {
	if slot < 0 {
		slot = -slot
	}
	return Color(slot % PaletteSize)
}

// Palette returns every color in slot order.
func Palette() []Color {
	out := make([]Color, PaletteSize)
	for i := range out {
		out[i] = Color(i)
	}
	return out
}

func (c Color) valid() bool {
	return c >= 0 && c < numColors
}

// String returns the color name.
func (c Color) String() string {
	if !c.valid() {
		return "unknown"
	}
	return colorNames[c]
}

// Hex returns the background color used by HTML and terminal renderers.
func (c Color) Hex() string {
	if !c.valid() {
		return colorHex[ColorYellow]
	}
	return colorHex[c]
}

// ClassName returns the per-color class, e.g. "search-highlight-blue".
func (c Color) ClassName() string {
	return ClassHighlight + "-" + c.String()
}

// ColorFromClass finds the palette color named by a marker's class list.
func ColorFromClass(class string) (Color, bool) {
	prefix := ClassHighlight + "-"
	for _, tok := range strings.Fields(class) {
		name, ok := strings.CutPrefix(tok, prefix)
		if !ok || strings.HasPrefix(name, "-") {
			continue
		}
		for i, n := range colorNames {
			if n == name {
				return Color(i), true
			}
		}
	}
	return ColorYellow, false
}

// Variant is a field-specific style hint appended to the marker class.
type Variant string

const (
	// VariantNone explicitly clears an inherited variant.
	VariantNone   Variant = "none"
	VariantTitle  Variant = "title"
	VariantAuthor Variant = "author"
	VariantTag    Variant = "tag"
)

// ClassName returns the modifier class, or "" for no variant.
func (v Variant) ClassName() string {
	if v == "" || v == VariantNone {
		return ""
	}
	return ClassHighlight + "--" + string(v)
}

// VariantFromClass finds the variant named by a marker's class list.
func VariantFromClass(class string) Variant {
	prefix := ClassHighlight + "--"
	for _, tok := range strings.Fields(class) {
		if name, ok := strings.CutPrefix(tok, prefix); ok {
			return Variant(name)
		}
	}
	return ""
}

// markerClass builds the full class attribute value for one marker.
func markerClass(c Color, v Variant) string {
	class := ClassHighlight + " " + c.ClassName()
	if mod := v.ClassName(); mod != "" {
		class += " " + mod
	}
	return class
}
