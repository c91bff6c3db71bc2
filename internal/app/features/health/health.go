// Package health serves liveness, readiness and a detailed status document
// that includes the active content defaults table.
package health

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/tasks"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler provides health check endpoints.
type Handler struct {
	mongoClient *mongo.Client
	table       *defaults.Table
	tasks       *tasks.Runner
	logger      *zap.Logger
}

// NewHandler creates a new health check Handler. table may be nil.
func NewHandler(mongoClient *mongo.Client, table *defaults.Table, logger *zap.Logger) *Handler {
	return &Handler{mongoClient: mongoClient, table: table, logger: logger}
}

// SetTasks adds maintenance job status to GET /health.
func (h *Handler) SetTasks(r *tasks.Runner) {
	h.tasks = r
}

// Response is the body of GET /health.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
	Defaults *DefaultsInfo     `json:"defaults,omitempty"`
	Tasks    []tasks.Status    `json:"tasks,omitempty"`
}

// DefaultsInfo describes the loaded defaults table.
type DefaultsInfo struct {
	Source  string         `json:"source"`
	Entries map[string]int `json:"entries"`
}

// Routes mounts /, /ready and /live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe paths orchestrators expect at the root.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// Check reports database reachability and the defaults table in use.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: "ok", Services: map[string]string{}}

	if err := h.ping(r); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	if h.table != nil {
		info := &DefaultsInfo{Source: h.table.Source(), Entries: map[string]int{}}
		for _, kind := range h.table.Kinds() {
			info.Entries[kind] = len(h.table.Entries(kind))
		}
		resp.Defaults = info
	}
	resp.Tasks = h.tasks.Statuses()

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready fails while the database is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live always succeeds while the process serves requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}

func (h *Handler) ping(r *http.Request) error {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.logger, "health ping")
	defer cancel()
	return h.mongoClient.Ping(ctx, readpref.Primary())
}
