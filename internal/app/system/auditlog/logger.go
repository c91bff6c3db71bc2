// Package auditlog records audit events to MongoDB and to the structured log.
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/system/capability"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ToAll = "all" // MongoDB and zap
	ToDB  = "db"
	ToLog = "log"
	Off   = "off"
)

// Config selects a destination per category. Empty means ToAll.
type Config struct {
	Auth    string
	Content string
}

// Logger writes audit events. A nil *Logger discards everything, which keeps
// handler tests free of audit wiring.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (l *Logger) destination(category string) string {
	var setting string
	switch category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryContent, audit.CategoryAsset:
		setting = l.config.Content
	}
	if setting == "" {
		return ToAll
	}
	return setting
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.Kind != "" {
		fields = append(fields, zap.String("kind", event.Kind), zap.String("entity_id", event.EntityID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's destination. Storage errors
// are logged, never returned: auditing must not fail the request.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	dest := l.destination(event.Category)
	if dest == Off {
		return
	}
	if dest == ToAll || dest == ToLog {
		l.logToZap(event)
	}
	if dest == ToAll || dest == ToDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

/* ------------------------------ auth ------------------------------ */

// LoginSuccess records a successful sign-in.
func (l *Logger) LoginSuccess(r *http.Request, userID primitive.ObjectID, loginID string) {
	l.Log(r.Context(), audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"login_id": loginID},
	})
}

// LoginFailed records a rejected sign-in. userID is nil when no user matched.
func (l *Logger) LoginFailed(r *http.Request, userID *primitive.ObjectID, eventType, reason, loginID string) {
	l.Log(r.Context(), audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: reason,
		Details:       map[string]string{"login_id": loginID},
	})
}

// Logout records a sign-out.
func (l *Logger) Logout(r *http.Request, userIDHex string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		userID = &oid
	}
	l.Log(r.Context(), audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

/* ----------------------------- content ---------------------------- */

// Content records a write to a content kind by the caller in c.
func (l *Logger) Content(r *http.Request, c capability.Capability, eventType, kind, entityID string, details map[string]string) {
	l.write(r, c, audit.CategoryContent, eventType, kind, entityID, details)
}

// Asset records an asset library change.
func (l *Logger) Asset(r *http.Request, c capability.Capability, eventType, assetID string, details map[string]string) {
	l.write(r, c, audit.CategoryAsset, eventType, "assets", assetID, details)
}

func (l *Logger) write(r *http.Request, c capability.Capability, category, eventType, kind, entityID string, details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	details["via"] = c.Via
	actor := c.ActorID
	if actor == "" {
		actor = c.ActorName
	}
	l.Log(r.Context(), audit.Event{
		Category:  category,
		EventType: eventType,
		ActorID:   actor,
		ActorName: c.ActorName,
		Kind:      kind,
		EntityID:  entityID,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}
