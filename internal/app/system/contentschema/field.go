// Package contentschema declares the editable fields of every content kind
// and validates admin payloads against them.
//
// A field's Kind is one of a closed set of variants. The admin UI renders an
// editor per variant from GET /api/cms/{kind}/schema, and Validate checks and
// normalizes each variant on the server, so a payload that passes Validate can
// be written without further checks.
package contentschema

import "encoding/json"

// Field is one editable property of a content kind.
type Field struct {
	Key      string
	Label    string
	Required bool
	Help     string
	Kind     FieldKind
}

// FieldKind is implemented only by the variants in this package.
type FieldKind interface {
	typeName() string
}

// Text is a single-line string. Slug fields are normalized to
// lowercase-hyphenated keys.
type Text struct {
	Max  int
	Slug bool
}

// TextArea is a multi-line plain string.
type TextArea struct {
	Max int
}

// RichText is HTML, sanitized on write.
type RichText struct{}

// Number is an integer within [Min, Max]. Max 0 means unbounded.
type Number struct {
	Min int
	Max int
}

// Bool is a true/false toggle.
type Bool struct{}

// URL is an http(s) link or a site-relative path.
type URL struct{}

// Image is a URL picked from the asset library or pasted.
type Image struct{}

// Select is one of a fixed set of strings.
type Select struct {
	Options []string
}

// List is an ordered list of sub-records. Max 0 means unbounded.
type List struct {
	Item []Field
	Max  int
}

func (Text) typeName() string     { return "text" }
func (TextArea) typeName() string { return "textarea" }
func (RichText) typeName() string { return "richtext" }
func (Number) typeName() string   { return "number" }
func (Bool) typeName() string     { return "bool" }
func (URL) typeName() string      { return "url" }
func (Image) typeName() string    { return "image" }
func (Select) typeName() string   { return "select" }
func (List) typeName() string     { return "list" }

type wireField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Help     string   `json:"help,omitempty"`
	Max      int      `json:"max,omitempty"`
	Min      *int     `json:"min,omitempty"`
	Slug     bool     `json:"slug,omitempty"`
	Options  []string `json:"options,omitempty"`
	Item     []Field  `json:"item,omitempty"`
}

// MarshalJSON flattens the variant into a "type" discriminator plus its
// parameters.
func (f Field) MarshalJSON() ([]byte, error) {
	w := wireField{Key: f.Key, Label: f.Label, Required: f.Required, Help: f.Help}
	if f.Kind != nil {
		w.Type = f.Kind.typeName()
	}
	switch k := f.Kind.(type) {
	case Text:
		w.Max, w.Slug = k.Max, k.Slug
	case TextArea:
		w.Max = k.Max
	case Number:
		lo := k.Min
		w.Min, w.Max = &lo, k.Max
	case Select:
		w.Options = k.Options
	case List:
		w.Item, w.Max = k.Item, k.Max
	}
	return json.Marshal(w)
}
