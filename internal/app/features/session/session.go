// Package session signs CMS operators in and out over JSON.
package session

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/capability"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const invalidCredentials = "invalid credentials"

// Handler serves /api/session.
type Handler struct {
	users       *userstore.Store
	limiter     *ratelimit.Store
	sessionMgr  *auth.SessionManager
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	logger      *zap.Logger

	// trustLogin lets users with auth_method "trust" sign in by login ID
	// alone. Only enable it in development.
	trustLogin bool
}

// NewHandler creates a session Handler. limiter may be nil to disable
// lockouts.
func NewHandler(
	users *userstore.Store,
	limiter *ratelimit.Store,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	trustLogin bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:       users,
		limiter:     limiter,
		sessionMgr:  sessionMgr,
		errLog:      errLog,
		auditLogger: auditLogger,
		logger:      logger,
		trustLogin:  trustLogin,
	}
}

// Routes mounts the session endpoints. The router must already run
// LoadSessionUser so GET and DELETE can see the signed-in user.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.show)
	r.Post("/", h.login)
	r.Delete("/", h.logout)
	return r
}

// State is the GET /api/session response.
type State struct {
	User       *auth.SessionUser     `json:"user"`
	Capability capability.Capability `json:"capability"`
	CSRFToken  string                `json:"csrf_token,omitempty"`
}

func (h *Handler) state(r *http.Request) State {
	u, _ := auth.CurrentUser(r)
	return State{
		User:       u,
		Capability: capability.FromRequest(r),
		CSRFToken:  csrf.Token(r),
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	jsonutil.OK(w, h.state(r))
}

type loginInput struct {
	LoginID  string `json:"login_id" validate:"required,max=200" label:"Login ID"`
	Password string `json:"password" validate:"max=72" label:"Password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "session login")
	defer cancel()

	if until := h.limiter.LockedUntil(ctx, in.LoginID); until != nil {
		h.auditLogger.LoginFailed(r, nil, audit.EventLoginLockedOut, "locked out", in.LoginID)
		tooManyAttempts(w, *until)
		return
	}

	user, err := h.users.GetByLoginID(ctx, in.LoginID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		authutil.BurnCheck(in.Password)
		h.auditLogger.LoginFailed(r, nil, audit.EventLoginFailedUserNotFound, "user not found", in.LoginID)
		h.recordFailure(w, r, in.LoginID)
		return
	}
	if err != nil {
		h.errLog.Log(r, "database error during login lookup", err)
		jsonutil.InternalError(w, "service temporarily unavailable, try again")
		return
	}

	if !user.IsActive() {
		authutil.BurnCheck(in.Password)
		h.auditLogger.LoginFailed(r, &user.ID, audit.EventLoginFailedUserDisabled, "user disabled", in.LoginID)
		jsonutil.Forbidden(w, "account is disabled")
		return
	}

	if !h.verify(user, in.Password) {
		h.auditLogger.LoginFailed(r, &user.ID, audit.EventLoginFailedWrongPassword, "wrong password", in.LoginID)
		h.recordFailure(w, r, in.LoginID)
		return
	}
	if err := h.limiter.Clear(ctx, in.LoginID); err != nil {
		h.logger.Warn("failed to clear login attempts", zap.Error(err))
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role, ""); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		jsonutil.InternalError(w, "failed to sign in, try again")
		return
	}
	h.auditLogger.LoginSuccess(r, user.ID, in.LoginID)

	su := &auth.SessionUser{
		ID:      user.ID.Hex(),
		Name:    user.FullName,
		LoginID: derefString(user.LoginID),
		Role:    user.Role,
	}
	jsonutil.OK(w, h.state(auth.WithUser(r, su)))
}

// recordFailure counts the failure and answers 401, or 429 when this
// failure triggered a lockout.
func (h *Handler) recordFailure(w http.ResponseWriter, r *http.Request, loginID string) {
	until, err := h.limiter.RecordFailure(r.Context(), loginID)
	if err != nil {
		h.logger.Warn("failed to record login failure", zap.Error(err))
	}
	if until != nil {
		tooManyAttempts(w, *until)
		return
	}
	jsonutil.Unauthorized(w, invalidCredentials)
}

func tooManyAttempts(w http.ResponseWriter, until time.Time) {
	secs := int(time.Until(until).Seconds()) + 1
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	jsonutil.Error(w, http.StatusTooManyRequests, "too many failed sign-in attempts, try again later")
}

// verify checks the password, or accepts trust users when trust login is on.
func (h *Handler) verify(user *models.User, password string) bool {
	if user.AuthMethod == models.AuthTrust {
		return h.trustLogin
	}
	if user.PasswordHash == nil {
		authutil.BurnCheck(password)
		return false
	}
	return authutil.CheckPassword(password, *user.PasswordHash)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.auditLogger.Logout(r, u.ID)
	}
	h.sessionMgr.DestroySession(w, r)
	jsonutil.NoContent(w)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
