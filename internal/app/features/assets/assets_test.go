package assets

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)

type fixture struct {
	h      http.Handler
	dir    string
	audits *audit.Store
}

func newFixture(t *testing.T, maxSize int64) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	dir := t.TempDir()
	fs, err := storage.NewLocal(storage.LocalConfig{BasePath: dir, BaseURL: "/uploads"})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	logger := zap.NewNop()
	audits := audit.New(db)
	h := NewHandler(db, fs, maxSize, errorsfeature.NewErrorLogger(logger),
		auditlog.New(audits, logger, auditlog.Config{}), logger)
	return fixture{h: Routes(h), dir: dir, audits: audits}
}

func multipartRequest(t *testing.T, filename string, content []byte, name string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	if name != "" {
		mw.WriteField("name", name)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, testutil.AdminUser())
}

func (f fixture) serve(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func (f fixture) upload(t *testing.T) View {
	t.Helper()
	rec := f.serve(multipartRequest(t, "Headshot.png", pngBytes, "Founder headshot"))
	rec.AssertStatus(t, http.StatusCreated)
	var v View
	rec.DecodeJSON(t, &v)
	return v
}

func TestUpload(t *testing.T) {
	f := newFixture(t, 0)
	v := f.upload(t)

	if v.ID == "" || v.Name != "Founder headshot" || v.ContentType != "image/png" {
		t.Errorf("upload = %+v", v)
	}
	if v.Category != "image" || v.Size != int64(len(pngBytes)) {
		t.Errorf("category/size = %q/%d", v.Category, v.Size)
	}
	if !strings.HasPrefix(v.URL, "/uploads") || !strings.Contains(v.URL, "assets/") || !strings.HasSuffix(v.URL, ".png") {
		t.Errorf("URL = %q", v.URL)
	}

	var stored []string
	filepath.Walk(f.dir, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			stored = append(stored, p)
		}
		return nil
	})
	if len(stored) != 1 {
		t.Fatalf("stored files = %v, want 1", stored)
	}
	data, _ := os.ReadFile(stored[0])
	if !bytes.Equal(data, pngBytes) {
		t.Error("stored bytes differ from upload")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, err := f.audits.Query(ctx, audit.QueryFilter{Category: audit.CategoryAsset})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventAssetUploaded || events[0].EntityID != v.ID {
		t.Errorf("audit events = %+v", events)
	}
}

func TestUpload_Rejects(t *testing.T) {
	f := newFixture(t, 64)

	tests := []struct {
		name     string
		filename string
		content  []byte
		want     int
	}{
		{"no file", "", nil, http.StatusBadRequest},
		{"html", "page.png", []byte("<html><script>alert(1)</script></html>"), http.StatusBadRequest},
		{"svg", "logo.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), http.StatusBadRequest},
		{"too large", "big.png", pngBytes, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.serve(multipartRequest(t, tt.filename, tt.content, ""))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestUpload_RequiresAdmin(t *testing.T) {
	f := newFixture(t, 0)

	f.serve(httptest.NewRequest(http.MethodPost, "/", nil)).AssertStatus(t, http.StatusUnauthorized)

	editor := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/", nil), testutil.EditorUser())
	f.serve(editor).AssertStatus(t, http.StatusForbidden)
}

func TestListShowRaw(t *testing.T) {
	f := newFixture(t, 0)
	v := f.upload(t)
	admin := testutil.AdminUser()

	rec := f.serve(testutil.NewAuthenticatedRequest(http.MethodGet, "/?q=FOUNDER", admin))
	rec.AssertStatus(t, http.StatusOK)
	var page struct {
		Assets []View `json:"assets"`
		Total  int64  `json:"total"`
	}
	rec.DecodeJSON(t, &page)
	if page.Total != 1 || len(page.Assets) != 1 || page.Assets[0].ID != v.ID {
		t.Errorf("list = %+v", page)
	}

	f.serve(testutil.NewAuthenticatedRequest(http.MethodGet, "/"+v.ID, admin)).AssertStatus(t, http.StatusOK)
	f.serve(testutil.NewAuthenticatedRequest(http.MethodGet, "/missing", admin)).AssertStatus(t, http.StatusNotFound)

	raw := f.serve(testutil.NewAuthenticatedRequest(http.MethodGet, "/"+v.ID+"/raw", admin))
	raw.AssertStatus(t, http.StatusOK)
	if raw.Header().Get("Content-Type") != "image/png" || !bytes.Equal(raw.Body.Bytes(), pngBytes) {
		t.Errorf("raw = %q %d bytes", raw.Header().Get("Content-Type"), raw.Body.Len())
	}
}

func TestRename(t *testing.T) {
	f := newFixture(t, 0)
	v := f.upload(t)
	admin := testutil.AdminUser()

	rec := f.serve(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+v.ID, map[string]string{"name": "Portrait"}), admin))
	rec.AssertStatus(t, http.StatusOK)
	var got View
	rec.DecodeJSON(t, &got)
	if got.Name != "Portrait" || got.URL != v.URL {
		t.Errorf("after rename = %+v", got)
	}

	f.serve(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+v.ID, map[string]string{"name": " "}), admin)).
		AssertStatus(t, http.StatusBadRequest)
	bad := f.serve(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+v.ID, map[string]string{"name": "../etc/passwd"}), admin))
	bad.AssertStatus(t, http.StatusBadRequest)
	bad.AssertContains(t, "slashes")
	f.serve(testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/missing", map[string]string{"name": "x"}), admin)).
		AssertStatus(t, http.StatusNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, 0)
	v := f.upload(t)
	admin := testutil.AdminUser()

	f.serve(testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+v.ID, admin)).AssertStatus(t, http.StatusNoContent)
	f.serve(testutil.NewAuthenticatedRequest(http.MethodGet, "/"+v.ID, admin)).AssertStatus(t, http.StatusNotFound)
	f.serve(testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+v.ID, admin)).AssertStatus(t, http.StatusNotFound)

	var left int
	filepath.Walk(f.dir, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			left++
		}
		return nil
	})
	if left != 0 {
		t.Errorf("%d stored files remain after delete", left)
	}
}
