// Package defaults loads the built-in site content table.
//
// The table is YAML keyed by content kind. It ships embedded in the binary
// and can be replaced at runtime with a file (config key
// content_defaults_path). Entries use the same field names as stored
// documents, so they decode into the same entity types.
package defaults

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var embedded []byte

// EmbeddedSource names the table compiled into the binary.
const EmbeddedSource = "embedded"

// Table holds default entries per kind, in list order.
type Table struct {
	source string
	kinds  map[string][]contentstore.Patch
}

// Embedded returns the table compiled into the binary.
func Embedded() (*Table, error) {
	return Parse(embedded, EmbeddedSource)
}

// Load reads the table at path, or the embedded table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Embedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read defaults: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a YAML table. Unknown kinds are an error. Each entry is
// visible unless it says otherwise and takes its 1-based list position as
// order when none is given. Store-owned keys (_id, timestamps) are dropped.
func Parse(data []byte, source string) (*Table, error) {
	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse defaults %s: %w", source, err)
	}

	t := &Table{source: source, kinds: make(map[string][]contentstore.Patch, len(raw))}
	for kind, entries := range raw {
		if _, ok := models.LookupKind(kind); !ok {
			return nil, fmt.Errorf("defaults %s: %w: %q", source, contentstore.ErrUnknownKind, kind)
		}
		list := make([]contentstore.Patch, 0, len(entries))
		for i, e := range entries {
			p := contentstore.Patch{}
			for k, v := range e {
				switch k {
				case "_id", "id", "created_at", "updated_at":
					continue
				}
				p[k] = v
			}
			if _, ok := p["is_visible"]; !ok {
				p["is_visible"] = true
			}
			if _, ok := p["order"]; !ok {
				p["order"] = i + 1
			}
			list = append(list, p)
		}
		t.kinds[kind] = list
	}
	return t, nil
}

// Source names where the table was loaded from.
func (t *Table) Source() string { return t.source }

// Kinds returns the kinds that have entries, in catalog order.
func (t *Table) Kinds() []string {
	var out []string
	for _, k := range models.ContentKinds() {
		if len(t.kinds[k.Name]) > 0 {
			out = append(out, k.Name)
		}
	}
	return out
}

// Entries returns copies of the entries for kind. A nil Table has none.
func (t *Table) Entries(kind string) []contentstore.Patch {
	if t == nil {
		return nil
	}
	src := t.kinds[kind]
	out := make([]contentstore.Patch, len(src))
	for i, p := range src {
		cp := make(contentstore.Patch, len(p))
		for k, v := range p {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Check decodes every entry into its kind's type and reports all failures.
func (t *Table) Check() error {
	var errs []error
	for _, kind := range t.Kinds() {
		for i, p := range t.kinds[kind] {
			if _, err := contentstore.DecodeKind(kind, p); err != nil {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", kind, i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Typed returns the entries for T's kind decoded into T.
func Typed[T models.Entity](t *Table) ([]T, error) {
	var zero T
	entries := t.Entries(zero.Kind())
	out := make([]T, 0, len(entries))
	for i, p := range entries {
		e, err := contentstore.Decode[T](p)
		if err != nil {
			return nil, fmt.Errorf("defaults %s[%d]: %w", zero.Kind(), i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
