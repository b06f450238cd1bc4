package highlight

import (
	"fmt"
)

// Defaults applied when an Options field is nil.
const (
	DefaultTrailingContext = 20
	DefaultSnapWindow      = 30
)

// Options configures one highlight call. A nil field means the documented
// default; nothing is read from global state.
type Options struct {
	// MaxLength caps the output in runes. Nil or <= 0 disables truncation.
	MaxLength *int `json:"maxLength,omitempty" yaml:"max_length,omitempty"`
	// CaseSensitive disables case-insensitive matching. Default false.
	CaseSensitive *bool `json:"caseSensitive,omitempty" yaml:"case_sensitive,omitempty"`
	// ShowEllipsis appends Ellipsis to truncated output. Default true.
	ShowEllipsis *bool `json:"showEllipsis,omitempty" yaml:"show_ellipsis,omitempty"`
	// SingleColor puts every term in the first palette slot. Default false.
	SingleColor *bool `json:"singleColor,omitempty" yaml:"single_color,omitempty"`
	// Variant adds a style modifier class. Empty means unset.
	Variant Variant `json:"variant,omitempty" yaml:"variant,omitempty"`
	// TrailingContext is how many runes to keep after a match that crosses MaxLength.
	TrailingContext *int `json:"trailingContext,omitempty" yaml:"trailing_context,omitempty"`
	// SnapWindow is how far back a cut may move to land on whitespace.
	SnapWindow *int `json:"snapWindow,omitempty" yaml:"snap_window,omitempty"`
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Merge returns o with every field set in over replacing o's value.
func (o Options) Merge(over Options) Options {
	out := o
	if over.MaxLength != nil {
		out.MaxLength = over.MaxLength
	}
	if over.CaseSensitive != nil {
		out.CaseSensitive = over.CaseSensitive
	}
	if over.ShowEllipsis != nil {
		out.ShowEllipsis = over.ShowEllipsis
	}
	if over.SingleColor != nil {
		out.SingleColor = over.SingleColor
	}
	if over.Variant != "" {
		out.Variant = over.Variant
	}
	if over.TrailingContext != nil {
		out.TrailingContext = over.TrailingContext
	}
	if over.SnapWindow != nil {
		out.SnapWindow = over.SnapWindow
	}
	return out
}

// settings is Options with defaults applied.
type settings struct {
	maxLength       int
	caseSensitive   bool
	showEllipsis    bool
	singleColor     bool
	variant         Variant
	trailingContext int
	snapWindow      int
}

func (o Options) resolve() settings {
	s := settings{
		showEllipsis:    true,
		variant:         o.Variant,
		trailingContext: DefaultTrailingContext,
		snapWindow:      DefaultSnapWindow,
	}
	if o.MaxLength != nil && *o.MaxLength > 0 {
		s.maxLength = *o.MaxLength
	}
	if o.CaseSensitive != nil {
		s.caseSensitive = *o.CaseSensitive
	}
	if o.ShowEllipsis != nil {
		s.showEllipsis = *o.ShowEllipsis
	}
	if o.SingleColor != nil {
		s.singleColor = *o.SingleColor
	}
	if o.TrailingContext != nil && *o.TrailingContext >= 0 {
		s.trailingContext = *o.TrailingContext
	}
	if o.SnapWindow != nil && *o.SnapWindow >= 0 {
		s.snapWindow = *o.SnapWindow
	}
	if s.variant == VariantNone {
		s.variant = ""
	}
	return s
}

// Fingerprint identifies the effective settings. Options that resolve to
// the same behavior share a fingerprint.
func (o Options) Fingerprint() string {
	s := o.resolve()
	return fmt.Sprintf("max=%d cs=%t ell=%t single=%t var=%s ctx=%d snap=%d",
		s.maxLength, s.caseSensitive, s.showEllipsis, s.singleColor, s.variant, s.trailingContext, s.snapWindow)
}
