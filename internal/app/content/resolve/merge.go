// Package resolve merges persisted content over the built-in defaults.
//
// The same rule applies to every kind:
//
//  1. A persisted entity whose natural key matches a default overlays it
//     field by field. A non-empty persisted field wins; an empty one lets the
//     default show through. The persisted ID, visibility and timestamps
//     always win, and so does any placed persisted order (1 or more).
//  2. Persisted entities with no matching default are appended.
//  3. The result is stably sorted by rank and filtered to visible entities.
package resolve

import (
	"reflect"
	"sort"
	"strings"

	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Merge applies the merge rule using each kind's natural key and every field.
func Merge[T models.Entity](defaults, persisted []T) []T {
	return MergeBy(defaults, persisted, func(e T) string { return e.NaturalKey() })
}

// MergeBy applies the merge rule with a custom key extractor. When fields
// (stored field names) are given, only those fields are overlaid; the rest
// keep the default's value. Entities with an empty key never match.
func MergeBy[T models.Entity](defaults, persisted []T, key func(T) string, fields ...string) []T {
	out := make([]T, len(defaults), len(defaults)+len(persisted))
	copy(out, defaults)

	index := make(map[string]int, len(out))
	for i, d := range out {
		if k := key(d); k != "" {
			if _, dup := index[k]; !dup {
				index[k] = i
			}
		}
	}

	allow := make(map[string]bool, len(fields))
	for _, f := range fields {
		allow[f] = true
	}

	for _, p := range persisted {
		k := key(p)
		if i, ok := index[k]; ok && k != "" {
			out[i] = overlay(out[i], p, allow)
			continue
		}
		out = append(out, p)
		if k != "" {
			index[k] = len(out) - 1
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })

	visible := out[:0]
	for _, e := range out {
		if e.ContentMeta().IsVisible {
			visible = append(visible, e)
		}
	}
	return visible
}

// rank is the display position: the kind's domain ordering field when it
// has one, else Meta.Order.
func rank[T models.Entity](e T) int {
	if r, ok := any(e).(models.Ranked); ok {
		if n := r.Rank(); n != 0 {
			return n
		}
	}
	return e.ContentMeta().Order
}

var metaType = reflect.TypeOf(models.Meta{})

// overlay returns base with p's non-empty fields copied over it.
func overlay[T models.Entity](base, p T, allow map[string]bool) T {
	out := base
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(p)
	if dst.Kind() != reflect.Struct {
		return p
	}

	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Type == metaType {
			dst.Field(i).Set(mergeMeta(dst.Field(i).Interface().(models.Meta), src.Field(i).Interface().(models.Meta)))
			continue
		}
		if len(allow) > 0 && !allow[fieldName(sf)] {
			continue
		}
		if v := src.Field(i); !isEmpty(v) {
			dst.Field(i).Set(v)
		}
	}
	return out
}

// mergeMeta takes p's bookkeeping. Positions start at 1, so an order of 0
// was never placed and the default's position stands.
func mergeMeta(base, p models.Meta) reflect.Value {
	m := p
	if p.Order == models.Unplaced {
		m.Order = base.Order
	}
	return reflect.ValueOf(m)
}

// fieldName is the stored name of a struct field.
func fieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("bson")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return strings.ToLower(sf.Name)
}

// isEmpty treats blank strings and empty lists as absent.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return v.IsZero()
}
