package jsonutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return got
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusAccepted, map[string]any{"kind": "faqs", "count": 3})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if diff := cmp.Diff(map[string]any{"kind": "faqs", "count": float64(3)}, decodeBody(t, rec)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_NilData(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, nil)
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestSuccessHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"updated": 2})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"updated":2`) {
		t.Errorf("OK() = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Created(rec, map[string]string{"id": "abc"})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"id":"abc"`) {
		t.Errorf("Created() = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("NoContent() = %d %q", rec.Code, rec.Body.String())
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string)
		status int
	}{
		{"BadRequest", BadRequest, http.StatusBadRequest},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden, http.StatusForbidden},
		{"NotFound", NotFound, http.StatusNotFound},
		{"MethodNotAllowed", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"Conflict", Conflict, http.StatusConflict},
		{"InternalError", InternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "faqs: not allowed")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if diff := cmp.Diff(map[string]any{"error": "faqs: not allowed"}, decodeBody(t, rec)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{
		"question":           "Question is required.",
		"positions[0].title": "Title is required.",
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	want := map[string]any{
		"error": "validation failed",
		"fields": map[string]any{
			"question":           "Question is required.",
			"positions[0].title": "Title is required.",
		},
	}
	if diff := cmp.Diff(want, decodeBody(t, rec)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	type reorder struct {
		Items []struct {
			ID    string `json:"id"`
			Order int    `json:"order"`
		} `json:"items"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"id":"a","order":2},{"id":"b","order":1}]}`))
	var got reorder
	if err := Decode(r, &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Items) != 2 || got.Items[1].ID != "b" || got.Items[1].Order != 1 {
		t.Errorf("Decode() = %+v", got)
	}

	for _, body := range []string{"", "{", "not json"} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := Decode(r, &got); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", body)
		}
	}
}

func TestDecodeObject(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"week_number": 12, "title": "Demo Day", "badges": [1, 2]}`))
	got, err := DecodeObject(rec, r)
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}
	n, ok := got["week_number"].(json.Number)
	if !ok || n.String() != "12" {
		t.Errorf("week_number = %#v, want json.Number 12", got["week_number"])
	}
	if got["title"] != "Demo Day" {
		t.Errorf("title = %#v", got["title"])
	}
}

func TestDecodeObject_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "empty"},
		{"array", `[{"title":"x"}]`, "JSON object"},
		{"string", `"faqs"`, "JSON object"},
		{"malformed", `{"title":`, "invalid JSON"},
		{"two objects", `{"a":1}{"b":2}`, "single JSON object"},
		{"too large", `{"answer":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			_, err := DecodeObject(rec, r)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodeObject() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
