package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTable(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate_Embedded(t *testing.T) {
	out, _, err := run(t, "defaults", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok (") {
		t.Errorf("output = %q, want ok summary", out)
	}
}

func TestValidate_File(t *testing.T) {
	path := writeTable(t, `
faqs:
  - key: cost
    question: What does it cost?
    answer: Nothing.
`)
	out, _, err := run(t, "defaults", "validate", "--file", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok (1 entries across 1 kinds)") {
		t.Errorf("output = %q", out)
	}
}

func TestValidate_ReportsSchemaProblems(t *testing.T) {
	path := writeTable(t, `
faqs:
  - key: cost
    answer: Nothing.
  - key: why
    question: Why?
    answer: Because.
    colour: red
`)
	_, errOut, err := run(t, "defaults", "validate", "--file", path)
	if err == nil {
		t.Fatal("validate succeeded, want error")
	}
	for _, want := range []string{"faqs[0].question", "faqs[1].colour"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestValidate_MissingFile(t *testing.T) {
	if _, _, err := run(t, "defaults", "validate", "--file", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("validate succeeded on a missing file")
	}
}

func TestToEntries_DropsStoreFields(t *testing.T) {
	now := time.Now()
	docs := []models.FAQ{
		{
			Meta:     models.Meta{ID: "abc", IsVisible: true, Order: 1, CreatedAt: now, UpdatedAt: now},
			Key:      "cost",
			Question: "What does it cost?",
			Answer:   "Nothing.",
		},
	}
	got, err := toEntries(docs)
	if err != nil {
		t.Fatalf("toEntries: %v", err)
	}
	want := []map[string]any{{
		"is_visible": true,
		"order":      int64(1),
		"key":        "cost",
		"question":   "What does it cost?",
		"answer":     "Nothing.",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toEntries mismatch (-want +got):\n%s", diff)
	}
}

func TestToEntries_Empty(t *testing.T) {
	got, err := toEntries([]models.FAQ{})
	if err != nil {
		t.Fatalf("toEntries: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("toEntries = %#v, want empty non-nil slice", got)
	}
}

// Exported YAML must load back as a valid defaults table.
func TestToEntries_ReadsBackAsTable(t *testing.T) {
	tbl, err := defaults.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	weeks, err := defaults.Typed[models.CurriculumWeek](tbl)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := toEntries(weeks)
	if err != nil {
		t.Fatalf("toEntries: %v", err)
	}
	raw, err := yaml.Marshal(map[string][]map[string]any{models.KindCurriculumWeeks: entries})
	if err != nil {
		t.Fatal(err)
	}
	back, err := defaults.Parse(raw, "export")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if problems := validateTable(back); len(problems) > 0 {
		t.Fatalf("exported table invalid: %v", problems)
	}
	got, err := defaults.Typed[models.CurriculumWeek](back)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(weeks, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWholeNumbers(t *testing.T) {
	in := map[string]any{"n": 1e6, "f": 1.5, "list": []any{2.0, "x"}}
	got := wholeNumbers(in)
	want := map[string]any{"n": int64(1000000), "f": 1.5, "list": []any{int64(2), "x"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wholeNumbers mismatch (-want +got):\n%s", diff)
	}
}
