// Package capability describes what the caller of a request may do.
//
// A Capability is built once per request from the session or API key and
// handed explicitly to write paths and to page responses. Nothing below the
// HTTP layer reads authentication state on its own.
package capability

import (
	"errors"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// ErrForbidden is returned by write paths when the caller is not an admin.
var ErrForbidden = errors.New("admin capability required")

// How the caller was identified.
const (
	ViaAnonymous = "anonymous"
	ViaSession   = "session"
	ViaAPIKey    = "api_key"
)

// Capability is the caller's identity and permissions for one request.
type Capability struct {
	Admin     bool   `json:"admin"`
	ActorID   string `json:"actor_id,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
	Via       string `json:"via"`
}

// Anonymous is the capability of a public visitor.
func Anonymous() Capability {
	return Capability{Via: ViaAnonymous}
}

// FromRequest derives the capability from what the auth middleware attached.
// An API client is always an admin. A session user is an admin only with the
// admin role; editors may sign in but cannot write.
func FromRequest(r *http.Request) Capability {
	if auth.IsAPIClient(r) {
		return Capability{Admin: true, ActorName: "api-key", Via: ViaAPIKey}
	}
	u, ok := auth.CurrentUser(r)
	if !ok || u.UserID().IsZero() {
		return Anonymous()
	}
	return Capability{
		Admin:     normalize.Role(u.Role) == models.RoleAdmin,
		ActorID:   u.ID,
		ActorName: u.Name,
		Via:       ViaSession,
	}
}

// CanEdit reports whether edit affordances should be offered.
func (c Capability) CanEdit() bool { return c.Admin }

// RequireAdmin returns ErrForbidden unless c may write content.
func (c Capability) RequireAdmin() error {
	if !c.Admin {
		return ErrForbidden
	}
	return nil
}

// AdminOnly rejects callers without write capability: 401 when anonymous,
// 403 when signed in without the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := FromRequest(r)
		switch {
		case c.Admin:
			next.ServeHTTP(w, r)
		case c.Via == ViaAnonymous:
			jsonutil.Unauthorized(w, "sign in required")
		default:
			jsonutil.Forbidden(w, ErrForbidden.Error())
		}
	})
}
