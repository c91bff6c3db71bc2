// Package inputval validates request input using waffle/pantry/validate.
//
// Struct inputs are checked with validate tags; schema-driven content payloads
// collect their errors into the same Result with Add. Either way the handler
// answers with jsonutil.ValidationError(w, res.Fields()).
//
//	type renameInput struct {
//	    Name string `json:"name" validate:"required,max=200,filename" label:"Name"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Fields())
//	    return
//	}
package inputval

import (
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/dalemusser/waffle/pantry/validate"
)

// Result collects field errors in the order they were found.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// Add records an error for field. Label falls back to the field name.
func (r *Result) Add(field, label, message string) {
	if label == "" {
		label = field
	}
	r.Errors = append(r.Errors, FieldError{Field: field, Label: label, Message: message})
}

// Fields maps each field to its first error message.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		customValidator.RegisterRuleFunc("httpurl", func(value any) bool {
			s, ok := value.(string)
			return ok && IsValidHTTPURL(s)
		}, "httpurl")

		customValidator.RegisterRuleFunc("filename", func(value any) bool {
			s, ok := value.(string)
			return ok && IsValidFileName(s)
		}, "filename")
	})
	return customValidator
}

// Validate checks a struct's validate tags and returns user-facing errors
// keyed by the fields' JSON names. A label tag names the field in messages.
//
// Besides the pantry/validate rules (required, min, max, oneof, email) two
// rules are registered here:
//   - httpurl: an absolute http:// or https:// URL
//   - filename: a display file name without path separators or control characters
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := fieldLabels(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			result.Add(e.Field, labels[e.Field], formatMessage(orDefault(labels[e.Field], e.Field), e.Rule, e.Param))
		}
	}
	return result
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// fieldLabels maps JSON field names to their label tags.
func fieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := field.Name
		if tag, _, _ := strings.Cut(field.Tag.Get("json"), ","); tag != "" && tag != "-" {
			name = tag
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[name] = label
		}
	}
	return labels
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	case "filename":
		return label + " must not contain slashes or control characters."
	default:
		return label + " is invalid."
	}
}

// IsValidHTTPURL reports whether s is an absolute http:// or https:// URL
// with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidFileName reports whether s can be shown as an asset name: not
// blank, no path separators, no control characters.
func IsValidFileName(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
