package capability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestFromRequest(t *testing.T) {
	adminID := primitive.NewObjectID().Hex()
	editorID := primitive.NewObjectID().Hex()

	tests := []struct {
		name      string
		user      *auth.SessionUser
		wantAdmin bool
		wantVia   string
		wantActor string
	}{
		{"anonymous", nil, false, ViaAnonymous, ""},
		{"admin session", &auth.SessionUser{ID: adminID, Name: "Ada", Role: "admin"}, true, ViaSession, adminID},
		{"admin role casing", &auth.SessionUser{ID: adminID, Role: " Admin "}, true, ViaSession, adminID},
		{"editor session", &auth.SessionUser{ID: editorID, Role: "editor"}, false, ViaSession, editorID},
		{"malformed id", &auth.SessionUser{ID: "not-an-id", Role: "admin"}, false, ViaAnonymous, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/site/home", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			got := FromRequest(req)
			if got.Admin != tt.wantAdmin {
				t.Errorf("Admin = %v, want %v", got.Admin, tt.wantAdmin)
			}
			if got.Via != tt.wantVia {
				t.Errorf("Via = %q, want %q", got.Via, tt.wantVia)
			}
			if got.ActorID != tt.wantActor {
				t.Errorf("ActorID = %q, want %q", got.ActorID, tt.wantActor)
			}
		})
	}
}

func TestFromRequest_APIClient(t *testing.T) {
	var got Capability
	h := auth.APIKeyAuth("k-123", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromRequest(r)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/keyed/cms/faqs", nil)
	req.Header.Set("Authorization", "Bearer k-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !got.Admin || got.Via != ViaAPIKey {
		t.Errorf("FromRequest() = %+v, want admin via api key", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := Anonymous().RequireAdmin(); !errors.Is(err, ErrForbidden) {
		t.Errorf("Anonymous().RequireAdmin() = %v, want ErrForbidden", err)
	}
	if Anonymous().CanEdit() {
		t.Error("Anonymous().CanEdit() = true")
	}
	admin := Capability{Admin: true, Via: ViaSession}
	if err := admin.RequireAdmin(); err != nil {
		t.Errorf("RequireAdmin() = %v, want nil", err)
	}
	if !admin.CanEdit() {
		t.Error("CanEdit() = false for admin")
	}
}

func TestAdminOnly(t *testing.T) {
	h := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"editor", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "editor"}, http.StatusForbidden},
		{"admin", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "admin"}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/assets", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
