// Package auditlog serves the audit trail to admins as JSON.
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/capability"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler provides audit log handlers.
type Handler struct {
	auditStore *audit.Store
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new audit log Handler.
func NewHandler(auditStore *audit.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{auditStore: auditStore, errLog: errLog, logger: logger}
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"event_types"`
}

// allCategories returns the available categories with their event types.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication", EventTypes: []string{
			audit.EventLoginSuccess,
			audit.EventLoginFailedUserNotFound,
			audit.EventLoginFailedWrongPassword,
			audit.EventLoginFailedUserDisabled,
			audit.EventLoginLockedOut,
			audit.EventLogout,
		}},
		{Value: audit.CategoryContent, Label: "Content", EventTypes: []string{
			audit.EventContentCreated,
			audit.EventContentUpdated,
			audit.EventContentUpserted,
			audit.EventContentDeleted,
			audit.EventContentReordered,
			audit.EventContentSeeded,
		}},
		{Value: audit.CategoryAsset, Label: "Assets", EventTypes: []string{
			audit.EventAssetUploaded,
			audit.EventAssetRenamed,
			audit.EventAssetDeleted,
		}},
	}
}

// Routes returns a chi.Router with audit log routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(capability.AdminOnly)

	r.Get("/", h.list)
	r.Get("/categories", h.categories)

	return r
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]any{"categories": allCategories()})
}

// list returns one page of events, newest first.
//
// Query parameters: category, event_type, kind, entity_id, actor_id,
// start_date and end_date (YYYY-MM-DD, inclusive, in tz or UTC), page.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := storeutil.NewPage(storeutil.Number(q), pageSize, pageSize)

	loc := time.UTC
	if tz := strings.TrimSpace(q.Get("tz")); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			jsonutil.BadRequest(w, "unknown time zone "+strconv.Quote(tz))
			return
		}
		loc = parsed
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Kind:      strings.TrimSpace(q.Get("kind")),
		EntityID:  strings.TrimSpace(q.Get("entity_id")),
		ActorID:   strings.TrimSpace(q.Get("actor_id")),
		Limit:     page.Size,
		Offset:    page.Skip(),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "query audit log")
	defer cancel()

	events, err := h.auditStore.Query(ctx, filter)
	if err != nil {
		h.errLog.Log(r, "failed to query audit events", err)
		jsonutil.InternalError(w, "failed to load audit log")
		return
	}
	total, err := h.auditStore.Count(ctx, filter)
	if err != nil {
		h.logger.Warn("failed to count audit events", zap.Error(err))
		total = int64(len(events))
	}

	totalPages := page.Pages(total)
	jsonutil.OK(w, map[string]any{
		"events":      events,
		"page":        page.Number,
		"total":       total,
		"total_pages": totalPages,
		"has_next":    page.Number < totalPages,
	})
}
