package site

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	"github.com/dalemusser/stratasite/internal/app/content/resolve"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.uber.org/zap"
)

type rawPage struct {
	Page     string                     `json:"page"`
	CanEdit  bool                       `json:"can_edit"`
	Sections map[string]json.RawMessage `json:"sections"`
}

func setup(t *testing.T) (http.Handler, *contentstore.Registry) {
	t.Helper()
	tbl, err := defaults.Embedded()
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}
	reg := contentstore.NewRegistry(testutil.SetupTestDB(t), zap.NewNop())
	h := NewHandler(resolve.NewResolver(reg, tbl, zap.NewNop()), zap.NewNop())
	return Routes(h, nil), reg
}

func getPage(t *testing.T, h http.Handler, req *http.Request) (rawPage, *testutil.ResponseRecorder) {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var p rawPage
	rec.DecodeJSON(t, &p)
	return p, rec
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode section %s: %v", raw, err)
	}
	return v
}

func TestPage_EveryPageRendersFromDefaults(t *testing.T) {
	h, _ := setup(t)
	for _, name := range PageNames() {
		t.Run(name, func(t *testing.T) {
			p, rec := getPage(t, h, testutil.NewRequest(http.MethodGet, "/"+name))
			if p.Page != name || len(p.Sections) != len(pages[name]) {
				t.Errorf("page %q has sections %v", p.Page, p.Sections)
			}
			if p.CanEdit {
				t.Error("anonymous visitor got can_edit")
			}
			if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60" {
				t.Errorf("Cache-Control = %q", got)
			}
		})
	}
}

func TestPage_Home(t *testing.T) {
	h, reg := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := contentstore.For[models.HeroSection](reg).Upsert(ctx, "hero-home", contentstore.Patch{
		"page": "home", "headline": "Lead from the front",
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := contentstore.For[models.Stat](reg).Upsert(ctx, "stat-mentors", contentstore.Patch{
		"key": "mentors", "is_visible": false,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	p, _ := getPage(t, h, testutil.NewRequest(http.MethodGet, "/home"))

	hero := decode[models.HeroSection](t, p.Sections["hero"])
	if hero.Headline != "Lead from the front" || hero.CTALabel != "Apply now" || hero.ID != "hero-home" {
		t.Errorf("hero = %+v, want override over default", hero)
	}
	stats := decode[[]models.Stat](t, p.Sections["stats"])
	if len(stats) != 2 {
		t.Errorf("stats = %+v, want mentors hidden", stats)
	}
	for _, s := range stats {
		if s.Key == "mentors" {
			t.Error("hidden stat was served")
		}
	}
}

func TestPage_AdminCanEdit(t *testing.T) {
	h, _ := setup(t)
	p, rec := getPage(t, h, testutil.NewAuthenticatedRequest(http.MethodGet, "/team", testutil.AdminUser()))
	if !p.CanEdit {
		t.Error("admin did not get can_edit")
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, no-store" {
		t.Errorf("Cache-Control = %q", got)
	}

	editor, _ := getPage(t, h, testutil.NewAuthenticatedRequest(http.MethodGet, "/team", testutil.EditorUser()))
	if editor.CanEdit {
		t.Error("editor got can_edit")
	}
}

func TestPage_QualificationsPreparesAnswers(t *testing.T) {
	h, _ := setup(t)
	p, _ := getPage(t, h, testutil.NewRequest(http.MethodGet, "/qualifications"))
	faqs := decode[[]models.FAQ](t, p.Sections["faqs"])
	if len(faqs) == 0 {
		t.Fatal("no faqs")
	}
	for _, f := range faqs {
		if !strings.HasPrefix(f.Answer, "<p>") {
			t.Errorf("answer %q not prepared as HTML", f.Answer)
		}
	}
}

func TestPage_Unknown(t *testing.T) {
	h, _ := setup(t)
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/blog"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestLegal(t *testing.T) {
	h, reg := setup(t)

	p, _ := getPage(t, h, testutil.NewRequest(http.MethodGet, "/legal"))
	docs := decode[[]models.LegalDocument](t, p.Sections["documents"])
	if len(docs) != 2 {
		t.Fatalf("legal index = %+v", docs)
	}
	for _, d := range docs {
		if d.Content != "" {
			t.Errorf("index carries body for %s", d.Slug)
		}
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := contentstore.For[models.LegalDocument](reg).Upsert(ctx, "legal-terms", contentstore.Patch{
		"slug": "terms", "content": `<p onclick="x()">Updated terms</p><script>alert(1)</script>`,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/legal/terms"))
	rec.AssertStatus(t, http.StatusOK)
	var out struct {
		Document models.LegalDocument `json:"document"`
	}
	rec.DecodeJSON(t, &out)
	if out.Document.Title != "Terms of Use" || out.Document.Content != "<p>Updated terms</p>" {
		t.Errorf("terms = %+v", out.Document)
	}

	missing := testutil.NewRecorder()
	h.ServeHTTP(missing, testutil.NewRequest(http.MethodGet, "/legal/cookies"))
	missing.AssertStatus(t, http.StatusNotFound)
}

func TestIndex(t *testing.T) {
	h, _ := setup(t)
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"qualifications"`)
}
