// Package site serves the public pages as JSON documents. Each page is
// assembled from several content kinds, each merged over the built-in
// defaults, so a page always renders even with an empty store.
package site

import (
	"net/http"
	"sync"

	"github.com/dalemusser/stratasite/internal/app/content/resolve"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/capability"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler serves public pages.
type Handler struct {
	rv     *resolve.Resolver
	logger *zap.Logger
}

// NewHandler creates a site Handler.
func NewHandler(rv *resolve.Resolver, logger *zap.Logger) *Handler {
	return &Handler{rv: rv, logger: logger}
}

// Routes returns the public page API. origins restricts CORS; an empty list
// allows any origin.
//
// When mounted at /api/site:
//   - GET /api/site              - page names
//   - GET /api/site/{page}       - one page document
//   - GET /api/site/legal/{slug} - one legal document with its body
func Routes(h *Handler, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(apicors.ForOrigins(origins))

	r.Get("/", h.index)
	r.Get("/legal/{slug}", h.legal)
	r.Get("/{page}", h.page)
	return r
}

// Page is the response for one page.
type Page struct {
	Page     string         `json:"page"`
	CanEdit  bool           `json:"can_edit"`
	Sections map[string]any `json:"sections"`
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]any{"pages": PageNames()})
}

// page loads every section concurrently. Section loads never fail: a store
// error degrades that section to its defaults. Only a cancelled request
// stops the page.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	sections, ok := pages[name]
	if !ok {
		jsonutil.NotFound(w, "unknown page")
		return
	}

	out := Page{
		Page:     name,
		CanEdit:  capability.FromRequest(r).CanEdit(),
		Sections: make(map[string]any, len(sections)),
	}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(r.Context())
	for _, s := range sections {
		g.Go(func() error {
			v := s.load(ctx, h.rv, name)
			if err := ctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			out.Sections[s.name] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Debug("page load abandoned", zap.String("page", name), zap.Error(err))
		return
	}

	writeCacheHeaders(w, out.CanEdit)
	jsonutil.OK(w, out)
}

// legal serves one legal document with its body prepared for display.
func (h *Handler) legal(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	for _, d := range resolve.Resolve[models.LegalDocument](r.Context(), h.rv) {
		if d.Slug != slug {
			continue
		}
		d.Content = htmlsanitize.Prepare(d.Content)
		c := capability.FromRequest(r)
		writeCacheHeaders(w, c.CanEdit())
		jsonutil.OK(w, map[string]any{"document": d, "can_edit": c.CanEdit()})
		return
	}
	jsonutil.NotFound(w, "document not found")
}

// writeCacheHeaders lets shared caches keep anonymous pages briefly. Admin
// responses carry edit affordances and are never cached.
func writeCacheHeaders(w http.ResponseWriter, canEdit bool) {
	if canEdit {
		w.Header().Set("Cache-Control", "private, no-store")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Add("Vary", "Cookie")
}
