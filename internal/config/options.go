package config

import (
	"strings"

	"github.com/Aman-CERP/searchmark/internal/highlight"
)

func fieldByName(name string) (highlight.FieldType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		return highlight.FieldTitle, true
	case "content":
		return highlight.FieldContent, true
	case "author":
		return highlight.FieldAuthor, true
	case "tags", "tag":
		return highlight.FieldTags, true
	default:
		return "", false
	}
}

func validVariant(v string) bool {
	switch highlight.Variant(v) {
	case "", highlight.VariantNone, highlight.VariantTitle, highlight.VariantAuthor, highlight.VariantTag:
		return true
	default:
		return false
	}
}

// GlobalOptions returns the highlight settings shared by every field.
func (c *Config) GlobalOptions() highlight.Options {
	return highlight.Options{
		CaseSensitive:   c.Highlight.CaseSensitive,
		ShowEllipsis:    c.Highlight.ShowEllipsis,
		TrailingContext: c.Highlight.TrailingContext,
		SnapWindow:      c.Highlight.SnapWindow,
	}
}

// FieldOverrides returns, per field, the options to merge over the
// field's built-in profile: global settings first, then the field's own.
func (c *Config) FieldOverrides() map[highlight.FieldType]highlight.Options {
	out := make(map[highlight.FieldType]highlight.Options, len(highlight.Fields()))
	global := c.GlobalOptions()
	for _, f := range highlight.Fields() {
		out[f] = global
	}
	for name, p := range c.Highlight.Fields {
		f, ok := fieldByName(name)
		if !ok {
			continue
		}
		out[f] = out[f].Merge(highlight.Options{
			MaxLength:     p.MaxLength,
			CaseSensitive: p.CaseSensitive,
			ShowEllipsis:  p.ShowEllipsis,
			SingleColor:   p.SingleColor,
			Variant:       highlight.Variant(p.Variant),
		})
	}
	return out
}

// HighlightOptions returns the override for one field.
func (c *Config) HighlightOptions(f highlight.FieldType) highlight.Options {
	return c.FieldOverrides()[highlight.ParseFieldType(string(f))]
}
