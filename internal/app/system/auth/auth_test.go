package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testKey = "this-is-a-32-character-long-key!"

func TestNewSessionManager(t *testing.T) {
	tests := []struct {
		name       string
		sessionKey string
		secure     bool
		wantErr    bool
	}{
		{"valid key dev mode", testKey, false, false},
		{"valid key prod mode", testKey, true, false},
		{"empty key", "", false, true},
		{"weak key dev mode", "short", false, false},
		{"weak key prod mode", "short", true, true},
		{"default key prod mode", "dev-only-session-key-not-for-production", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := NewSessionManager(tt.sessionKey, "test-session", "", time.Hour, tt.secure, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Error("NewSessionManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSessionManager() error = %v", err)
			}
			if sm == nil {
				t.Error("NewSessionManager() returned nil")
			}
		})
	}
}

func TestSessionManager_SessionName(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	if sm.SessionName() != DefaultSessionName {
		t.Errorf("SessionName() = %q, want %q", sm.SessionName(), DefaultSessionName)
	}
	sm2, _ := NewSessionManager(testKey, "custom-session", "", time.Hour, false, zap.NewNop())
	if sm2.SessionName() != "custom-session" {
		t.Errorf("SessionName() = %q, want custom-session", sm2.SessionName())
	}
}

func TestCurrentUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u, ok := CurrentUser(req); ok || u != nil {
		t.Errorf("CurrentUser() = %v, %v, want nil, false", u, ok)
	}

	want := &SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test", Role: "admin"}
	got, ok := CurrentUser(WithTestUser(req, want))
	if !ok || got != want {
		t.Errorf("CurrentUser() = %v, %v, want injected user", got, ok)
	}
}

func TestSessionUser_UserID(t *testing.T) {
	oid := primitive.NewObjectID()
	if got := (&SessionUser{ID: oid.Hex()}).UserID(); got != oid {
		t.Errorf("UserID() = %v, want %v", got, oid)
	}
	if got := (&SessionUser{ID: "nope"}).UserID(); got != primitive.NilObjectID {
		t.Errorf("UserID() = %v, want NilObjectID", got)
	}
}

type stubFetcher struct {
	user *SessionUser
}

func (f stubFetcher) FetchUser(_ context.Context, id string) *SessionUser {
	if f.user == nil || f.user.ID != id {
		return nil
	}
	u := *f.user
	return &u
}

func TestSession_CreateLoadDestroy(t *testing.T) {
	sm, err := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	oid := primitive.NewObjectID()
	sm.SetUserFetcher(stubFetcher{user: &SessionUser{ID: oid.Hex(), Name: "Ada", Role: "admin"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	if err := sm.CreateSession(rec, req, oid, "admin", ""); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("CreateSession() set no cookie")
	}

	var seen *SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentUser(r)
	}))
	next := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), next)

	if seen == nil {
		t.Fatal("LoadSessionUser() did not attach the user")
	}
	if seen.Name != "Ada" || seen.Token == "" {
		t.Errorf("user = %+v, want fetched Ada with a token", seen)
	}

	out := httptest.NewRecorder()
	sm.DestroySession(out, next)
	expired := false
	for _, c := range out.Result().Cookies() {
		if c.Name == DefaultSessionName && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("DestroySession() should expire the cookie")
	}
}

func TestLoadSessionUser_DisabledUserEndsSession(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	sm.SetUserFetcher(stubFetcher{})

	rec := httptest.NewRecorder()
	if err := sm.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/", nil), primitive.NewObjectID(), "admin", ""); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	called := false
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := CurrentUser(r); ok {
			t.Error("disabled user should not be attached")
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("request should continue anonymously")
	}
}

func TestRequireRole(t *testing.T) {
	sm, _ := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := sm.RequireRole("Admin")(ok)

	tests := []struct {
		name string
		user *SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"editor", &SessionUser{ID: "1", Role: "editor"}, http.StatusForbidden},
		{"admin", &SessionUser{ID: "2", Role: "ADMIN"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cms/kinds", nil)
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want != http.StatusOK && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	var client bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client = IsAPIClient(r)
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"not configured", "", "Bearer anything", http.StatusUnauthorized},
		{"missing header", "k-123", "", http.StatusUnauthorized},
		{"wrong scheme", "k-123", "Basic k-123", http.StatusUnauthorized},
		{"wrong key", "k-123", "Bearer k-999", http.StatusUnauthorized},
		{"valid", "k-123", "bearer k-123", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client = false
			req := httptest.NewRequest(http.MethodGet, "/api/keyed/cms/kinds", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.key, zap.NewNop())(next).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if client != (tt.want == http.StatusNoContent) {
				t.Errorf("IsAPIClient() = %v in handler", client)
			}
		})
	}
}

func TestIsDefaultKey(t *testing.T) {
	if !isDefaultKey("please-CHANGE-ME-before-deploy") {
		t.Error("isDefaultKey() should flag change-me")
	}
	if isDefaultKey("k3J9xQ2mZ8vL4nT7wR1yU6pA5sD0fG3h") {
		t.Error("isDefaultKey() flagged a random key")
	}
}
