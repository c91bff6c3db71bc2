package contentschema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
)

// ignored are bookkeeping keys an editor may echo back. The store owns them.
var ignored = map[string]bool{"id": true, "_id": true, "created_at": true, "updated_at": true}

// Validate checks payload against fields and returns the normalized patch.
//
// With partial set only the keys present are checked, which is what PATCH
// needs; otherwise every required field must be present. A null value clears
// an optional field. Keys the schema does not declare are rejected.
func Validate(fields []Field, payload map[string]any, partial bool) (contentstore.Patch, *inputval.Result) {
	res := &inputval.Result{}
	out := validateInto(fields, payload, partial, "", res)
	return out, res
}

func validateInto(fields []Field, payload map[string]any, partial bool, prefix string, res *inputval.Result) contentstore.Patch {
	out := contentstore.Patch{}
	byKey := make(map[string]Field, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}

	for key := range payload {
		if _, ok := byKey[key]; !ok && !ignored[key] {
			res.Add(prefix+key, key, fmt.Sprintf("%s is not a known field.", key))
		}
	}

	for _, f := range fields {
		path := prefix + f.Key
		raw, present := payload[f.Key]
		if !present {
			if f.Required && !partial {
				res.Add(path, f.Label, f.Label+" is required.")
			}
			continue
		}
		if raw == nil {
			if f.Required {
				res.Add(path, f.Label, f.Label+" is required.")
				continue
			}
			out[f.Key] = zero(f.Kind)
			continue
		}
		v, msg := check(f, raw, path, res)
		if msg != "" {
			res.Add(path, f.Label, msg)
			continue
		}
		out[f.Key] = v
	}
	return out
}

// check validates one present, non-null value. Nested list errors are added
// to res directly; msg reports a problem with the value itself.
func check(f Field, raw any, path string, res *inputval.Result) (any, string) {
	switch k := f.Kind.(type) {
	case Text:
		s, ok := raw.(string)
		if !ok {
			return nil, f.Label + " must be text."
		}
		s = strings.TrimSpace(s)
		if k.Slug && s != "" {
			s = normalize.Key(s)
			if s == "" {
				return nil, f.Label + " must contain letters or digits."
			}
		}
		if strings.ContainsAny(s, "\r\n") {
			return nil, f.Label + " must be a single line."
		}
		return requiredString(f, s, k.Max)

	case TextArea:
		s, ok := raw.(string)
		if !ok {
			return nil, f.Label + " must be text."
		}
		return requiredString(f, strings.TrimSpace(s), k.Max)

	case RichText:
		s, ok := raw.(string)
		if !ok {
			return nil, f.Label + " must be text."
		}
		return requiredString(f, strings.TrimSpace(htmlsanitize.Sanitize(s)), 0)

	case Number:
		n, ok := toInt(raw)
		if !ok {
			return nil, f.Label + " must be a whole number."
		}
		if n < k.Min {
			return nil, fmt.Sprintf("%s must be at least %d.", f.Label, k.Min)
		}
		if k.Max > 0 && n > k.Max {
			return nil, fmt.Sprintf("%s must be at most %d.", f.Label, k.Max)
		}
		return n, ""

	case Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, f.Label + " must be true or false."
		}
		return b, ""

	case URL, Image:
		s, ok := raw.(string)
		if !ok {
			return nil, f.Label + " must be text."
		}
		s = strings.TrimSpace(s)
		if s != "" && !isLink(s) {
			return nil, f.Label + " must be a URL starting with http://, https:// or /."
		}
		return requiredString(f, s, 2048)

	case Select:
		s, ok := raw.(string)
		if !ok {
			return nil, f.Label + " must be text."
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return requiredString(f, s, 0)
		}
		for _, o := range k.Options {
			if o == s {
				return s, ""
			}
		}
		return nil, f.Label + " must be one of: " + strings.Join(k.Options, ", ") + "."

	case List:
		items, ok := raw.([]any)
		if !ok {
			return nil, f.Label + " must be a list."
		}
		if f.Required && len(items) == 0 {
			return nil, f.Label + " needs at least one entry."
		}
		if k.Max > 0 && len(items) > k.Max {
			return nil, fmt.Sprintf("%s allows at most %d entries.", f.Label, k.Max)
		}
		before := len(res.Errors)
		list := make([]any, 0, len(items))
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				res.Add(fmt.Sprintf("%s[%d]", path, i), f.Label, fmt.Sprintf("%s entry %d must be an object.", f.Label, i+1))
				continue
			}
			sub := validateInto(k.Item, m, false, fmt.Sprintf("%s[%d].", path, i), res)
			list = append(list, map[string]any(sub))
		}
		if len(res.Errors) > before {
			return nil, ""
		}
		return list, ""

	default:
		return nil, fmt.Sprintf("%s has an unsupported field type %T.", f.Label, f.Kind)
	}
}

func requiredString(f Field, s string, limit int) (any, string) {
	if f.Required && s == "" {
		return nil, f.Label + " is required."
	}
	if limit > 0 && utf8.RuneCountInString(s) > limit {
		return nil, fmt.Sprintf("%s must be at most %d characters.", f.Label, limit)
	}
	return s, ""
}

func zero(k FieldKind) any {
	switch k.(type) {
	case Number:
		return 0
	case Bool:
		return false
	case List:
		return []any{}
	default:
		return ""
	}
}

func isLink(s string) bool {
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	return inputval.IsValidHTTPURL(s)
}

// toInt accepts the numeric types produced by encoding/json (with or without
// UseNumber) and yaml.v3, rejecting fractions.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), n >= math.MinInt32 && n <= math.MaxInt32
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return toInt(i)
	default:
		return 0, false
	}
}
