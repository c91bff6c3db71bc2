package htmlsanitize

import (
	"strings"
	"testing"
)

func TestSanitize_StripsActiveContent(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		absent []string
		keep   []string
	}{
		{
			name:   "script in faq answer",
			in:     `<p>Nothing.</p><script>document.location='https://evil.example'</script>`,
			absent: []string{"<script", "document.location"},
			keep:   []string{"<p>Nothing.</p>"},
		},
		{
			name:   "event handler on bio image",
			in:     `<img src="/uploads/ada.png" onerror="alert(1)">`,
			absent: []string{"onerror", "alert"},
			keep:   []string{`src="/uploads/ada.png"`},
		},
		{
			name:   "javascript link",
			in:     `<a href="javascript:alert(1)">Apply</a>`,
			absent: []string{"javascript:"},
			keep:   []string{"Apply"},
		},
		{
			name:   "iframe and style",
			in:     `<iframe src="https://evil.example"></iframe><style>body{display:none}</style><p>Terms</p>`,
			absent: []string{"<iframe", "<style", "display:none"},
			keep:   []string{"<p>Terms</p>"},
		},
		{
			name:   "inline style attribute",
			in:     `<p style="position:fixed;top:0">Privacy</p>`,
			absent: []string{"style=", "position:fixed"},
			keep:   []string{"Privacy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("Sanitize() = %q, should not contain %q", got, s)
				}
			}
			for _, s := range tt.keep {
				if !strings.Contains(got, s) {
					t.Errorf("Sanitize() = %q, should contain %q", got, s)
				}
			}
		})
	}
}

func TestSanitize_KeepsLegalFormatting(t *testing.T) {
	in := `<h2 id="data-we-collect">Data we collect</h2>` +
		`<table><thead><tr><th colspan="2">Category</th></tr></thead>` +
		`<tbody><tr><td>Email</td><td>Applications</td></tr></tbody></table>` +
		`<ul><li><strong>Name</strong></li><li><em>Email</em></li></ul>` +
		`<p><u>Effective</u> 2025<sup>1</sup> <mark>updated</mark> <s>old</s></p>`
	got := Sanitize(in)

	for _, s := range []string{
		`id="data-we-collect"`, "<table>", "<thead>", "<tbody>", `colspan="2"`, "<td>Email</td>",
		"<ul>", "<li>", "<strong>Name</strong>", "<em>Email</em>",
		"<u>Effective</u>", "<sup>1</sup>", "<mark>updated</mark>", "<s>old</s>",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("Sanitize() dropped %q:\n%s", s, got)
		}
	}
}

func TestSanitize_ExternalLinks(t *testing.T) {
	got := Sanitize(`<a href="https://www.linkedin.com/in/ada">LinkedIn</a>`)
	if !strings.Contains(got, `rel="nofollow`) {
		t.Errorf("external link missing nofollow: %q", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("external link missing target=_blank: %q", got)
	}

	internal := Sanitize(`<a href="/apply">Apply</a>`)
	if strings.Contains(internal, `target="_blank"`) {
		t.Errorf("relative link should stay in the tab: %q", internal)
	}
}

func TestSanitize_IdempotentAndEmpty(t *testing.T) {
	if Sanitize("") != "" {
		t.Error("Sanitize(\"\") should be empty")
	}
	in := `<p>Week <strong>3</strong>: <a href="https://example.com">customer discovery</a></p><script>x</script>`
	once := Sanitize(in)
	if twice := Sanitize(once); twice != once {
		t.Errorf("Sanitize not idempotent:\n once  %q\n twice %q", once, twice)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"Nothing. The program is free.", true},
		{"Revenue < $1M is fine", true},
		{"3 > 2", true},
		{"<p>Nothing.</p>", false},
		{"Line one<br>Line two", false},
	}
	for _, tt := range tests {
		if got := IsPlainText(tt.in); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Free for accepted teams.", "<p>Free for accepted teams.</p>"},
		{"Apply by Friday.\nInterviews Monday.", "<p>Apply by Friday.<br>Interviews Monday.</p>"},
		{"Q&A for <founders>", "<p>Q&amp;A for &lt;founders&gt;</p>"},
	}
	for _, tt := range tests {
		if got := PlainTextToHTML(tt.in); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	if got := Prepare(""); got != "" {
		t.Errorf("Prepare(\"\") = %q", got)
	}
	if got := Prepare("No equity.\nNo fees."); got != "<p>No equity.<br>No fees.</p>" {
		t.Errorf("Prepare(plain) = %q", got)
	}
	got := Prepare(`<p>No equity.</p><script>alert(1)</script>`)
	if strings.Contains(got, "<script") || !strings.Contains(got, "<p>No equity.</p>") {
		t.Errorf("Prepare(html) = %q", got)
	}
}
