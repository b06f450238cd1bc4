package highlight

import "strings"

// FieldType is the role of the text being highlighted.
type FieldType string

const (
	FieldTitle   FieldType = "title"
	FieldContent FieldType = "content"
	FieldAuthor  FieldType = "author"
	FieldTags    FieldType = "tags"
)

// Fields lists every field type.
func Fields() []FieldType {
	return []FieldType{FieldTitle, FieldContent, FieldAuthor, FieldTags}
}

// ParseFieldType maps s to a field type. Unknown values become FieldContent.
func ParseFieldType(s string) FieldType {
	switch f := FieldType(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldTitle, FieldContent, FieldAuthor, FieldTags:
		return f
	case "tag":
		return FieldTags
	default:
		return FieldContent
	}
}

// Profile returns the default options for the field.
func (f FieldType) Profile() Options {
	switch f {
	case FieldTitle:
		return Options{MaxLength: Int(100), Variant: VariantTitle, SingleColor: Bool(true)}
	case FieldAuthor:
		return Options{MaxLength: Int(30), Variant: VariantAuthor}
	case FieldTags:
		return Options{MaxLength: Int(15), Variant: VariantTag}
	default:
		return Options{MaxLength: Int(200)}
	}
}
