package cms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the admin content API. The caller mounts it behind
// authentication (a signed-in session with CSRF, or an API key); each write
// still checks the request's capability itself.
//
// When mounted at /api/cms:
//   - GET    /api/cms/kinds              - kind catalog
//   - GET    /api/cms/{kind}             - every document (?visible=, ?sort=)
//   - POST   /api/cms/{kind}             - create
//   - GET    /api/cms/{kind}/schema      - field schema for editors
//   - POST   /api/cms/{kind}/reorder     - batch reorder
//   - POST   /api/cms/{kind}/seed        - copy defaults into an empty kind
//   - GET    /api/cms/{kind}/{id}        - one document
//   - PATCH  /api/cms/{kind}/{id}        - update an existing document
//   - PUT    /api/cms/{kind}/{id}        - create or update under id
//   - DELETE /api/cms/{kind}/{id}        - remove (hard-delete kinds only)
//   - GET    /api/cms/{kind}/{id}/history - audit trail for one document
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/kinds", h.kinds)

	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/schema", h.schema)
		r.Post("/reorder", h.reorder)
		r.Post("/seed", h.seed)

		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Put("/{id}", h.upsert)
		r.Delete("/{id}", h.remove)
		r.Get("/{id}/history", h.history)
	})

	return r
}
