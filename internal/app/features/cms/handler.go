// Package cms provides the admin content API. It addresses content kinds by
// name, validates payloads against each kind's field schema and records every
// write in the audit log.
package cms

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/capability"
	"github.com/dalemusser/stratasite/internal/app/system/contentschema"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// errDeleteNotAllowed is returned for DELETE on a kind that is only ever
// hidden, never removed.
var errDeleteNotAllowed = errors.New("this kind cannot be deleted; set is_visible to false instead")

const historyLimit = 50

// Handler serves the admin content API.
type Handler struct {
	reg         *contentstore.Registry
	table       *defaults.Table
	audits      *audit.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a cms Handler. table supplies the entries for seeding;
// audits backs the per-document history and may be nil.
func NewHandler(
	reg *contentstore.Registry,
	table *defaults.Table,
	audits *audit.Store,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		reg:         reg,
		table:       table,
		audits:      audits,
		errLog:      errLog,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// kindView is one row of the kind catalog.
type kindView struct {
	models.KindInfo
	Defaults int `json:"defaults"`
}

func (h *Handler) kinds(w http.ResponseWriter, r *http.Request) {
	kinds := h.reg.Kinds()
	out := make([]kindView, len(kinds))
	for i, k := range kinds {
		out[i] = kindView{KindInfo: k, Defaults: len(h.table.Entries(k.Name))}
	}
	jsonutil.OK(w, map[string]any{
		"kinds":    out,
		"can_edit": capability.FromRequest(r).CanEdit(),
	})
}

// target resolves the {kind} path parameter.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (contentstore.Repo, models.KindInfo, bool) {
	kind := chi.URLParam(r, "kind")
	repo, err := h.reg.Repo(kind)
	if err != nil {
		h.fail(w, r, "resolve kind", err)
		return nil, models.KindInfo{}, false
	}
	info, _ := models.LookupKind(kind)
	return repo, info, true
}

// writer resolves the kind and checks that the caller may write.
func (h *Handler) writer(w http.ResponseWriter, r *http.Request) (contentstore.Repo, models.KindInfo, capability.Capability, bool) {
	c := capability.FromRequest(r)
	if err := c.RequireAdmin(); err != nil {
		h.fail(w, r, "authorize", err)
		return nil, models.KindInfo{}, c, false
	}
	repo, info, ok := h.target(w, r)
	return repo, info, c, ok
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	repo, _, ok := h.target(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "list "+repo.Kind())
	defer cancel()

	var docs any
	if q.visibleOnly {
		docs, err = repo.Visible(ctx, int(q.Limit))
	} else {
		docs, err = repo.List(ctx, q.Query)
	}
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	jsonutil.OK(w, map[string]any{"kind": repo.Kind(), "items": docs})
}

type listQuery struct {
	contentstore.Query
	visibleOnly bool
}

// parseListQuery reads ?visible=true|false, ?sort=field or -field and ?limit=n.
// visible=true gives the public ordering (GetVisible) and ignores sort.
func parseListQuery(r *http.Request) (listQuery, error) {
	v := r.URL.Query()
	var q listQuery

	if s := strings.TrimSpace(v.Get("limit")); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
		q.Limit = n
	}

	switch strings.ToLower(strings.TrimSpace(v.Get("visible"))) {
	case "":
	case "true", "1":
		q.visibleOnly = true
		return q, nil
	case "false", "0":
		q.Filters = append(q.Filters, contentstore.Eq("is_visible", false))
	default:
		return q, errors.New("visible must be true or false")
	}

	if s := strings.TrimSpace(v.Get("sort")); s != "" {
		q.Desc = strings.HasPrefix(s, "-")
		q.SortBy = strings.TrimPrefix(s, "-")
		if !sortable(chi.URLParam(r, "kind"), q.SortBy) {
			return q, errors.New("cannot sort by " + q.SortBy)
		}
	}
	return q, nil
}

// sortable reports whether field is a scalar field of kind.
func sortable(kind, field string) bool {
	switch field {
	case "created_at", "updated_at":
		return true
	}
	fields, _ := contentschema.For(kind)
	for _, f := range fields {
		if f.Key == field {
			_, isList := f.Kind.(contentschema.List)
			return !isList
		}
	}
	return false
}

func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	repo, info, ok := h.target(w, r)
	if !ok {
		return
	}
	fields, _ := contentschema.For(repo.Kind())
	jsonutil.OK(w, map[string]any{"kind": info, "fields": fields})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	repo, _, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "get "+repo.Kind())
	defer cancel()

	doc, err := repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load", err)
		return
	}
	if doc == nil {
		jsonutil.NotFound(w, "content not found")
		return
	}
	jsonutil.OK(w, doc)
}

// payload decodes the body and validates it against the kind's schema. It
// answers the request itself when the body is unusable.
func (h *Handler) payload(w http.ResponseWriter, r *http.Request, kind string, partial bool) (contentstore.Patch, bool) {
	body, err := jsonutil.DecodeObject(w, r)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return nil, false
	}
	fields, _ := contentschema.For(kind)
	patch, res := contentschema.Validate(fields, body, partial)
	if res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return nil, false
	}
	return patch, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	repo, _, c, ok := h.writer(w, r)
	if !ok {
		return
	}
	patch, ok := h.payload(w, r, repo.Kind(), false)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.logger, "create "+repo.Kind())
	defer cancel()

	id, err := repo.CreateFrom(ctx, patch)
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	h.auditLogger.Content(r, c, audit.EventContentCreated, repo.Kind(), id, fieldList(patch))
	jsonutil.Created(w, map[string]string{"id": id})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	repo, _, c, ok := h.writer(w, r)
	if !ok {
		return
	}
	patch, ok := h.payload(w, r, repo.Kind(), true)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.logger, "update "+repo.Kind())
	defer cancel()

	if err := repo.Update(ctx, id, patch); err != nil {
		h.fail(w, r, "update", err)
		return
	}
	h.auditLogger.Content(r, c, audit.EventContentUpdated, repo.Kind(), id, fieldList(patch))
	h.respondWith(ctx, w, repo, id, http.StatusOK)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	repo, _, c, ok := h.writer(w, r)
	if !ok {
		return
	}
	patch, ok := h.payload(w, r, repo.Kind(), true)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.logger, "upsert "+repo.Kind())
	defer cancel()

	created, err := repo.Upsert(ctx, id, patch)
	if err != nil {
		h.fail(w, r, "save", err)
		return
	}
	details := fieldList(patch)
	details["created"] = strconv.FormatBool(created)
	h.auditLogger.Content(r, c, audit.EventContentUpserted, repo.Kind(), id, details)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respondWith(ctx, w, repo, id, status)
}

// respondWith writes the stored document after a successful write.
func (h *Handler) respondWith(ctx context.Context, w http.ResponseWriter, repo contentstore.Repo, id string, status int) {
	doc, err := repo.Get(ctx, id)
	if err != nil || doc == nil {
		// The write succeeded; report it even if the read-back did not.
		h.logger.Warn("read after write failed", zap.String("kind", repo.Kind()), zap.String("id", id), zap.Error(err))
		jsonutil.JSON(w, status, map[string]string{"id": id})
		return
	}
	jsonutil.JSON(w, status, doc)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	repo, info, c, ok := h.writer(w, r)
	if !ok {
		return
	}
	if !info.HardDelete {
		h.fail(w, r, "delete", errDeleteNotAllowed)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.logger, "delete "+repo.Kind())
	defer cancel()

	if err := repo.Delete(ctx, id); err != nil {
		h.fail(w, r, "delete", err)
		return
	}
	h.auditLogger.Content(r, c, audit.EventContentDeleted, repo.Kind(), id, nil)
	jsonutil.NoContent(w)
}

type reorderInput struct {
	Items []contentstore.OrderItem `json:"items"`
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	repo, _, c, ok := h.writer(w, r)
	if !ok {
		return
	}
	var in reorderInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "expected {\"items\": [{\"id\": ..., \"order\": ...}]}")
		return
	}
	for i, it := range in.Items {
		if it.Order < 1 {
			jsonutil.ValidationError(w, map[string]string{
				"items[" + strconv.Itoa(i) + "].order": "Order must be at least 1.",
			})
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.logger, "reorder "+repo.Kind())
	defer cancel()

	if err := repo.UpdateOrder(ctx, in.Items); err != nil {
		h.fail(w, r, "reorder", err)
		return
	}
	h.auditLogger.Content(r, c, audit.EventContentReordered, repo.Kind(), "", map[string]string{
		"items": strconv.Itoa(len(in.Items)),
	})
	jsonutil.OK(w, map[string]int{"updated": len(in.Items)})
}

// seed copies the default entries for a kind into the store when the kind has
// no documents yet. An already populated kind reports zero inserted.
func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	repo, _, c, ok := h.writer(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.logger, "seed "+repo.Kind())
	defer cancel()

	n, err := repo.SeedPatches(ctx, h.table.Entries(repo.Kind()))
	if err != nil {
		h.fail(w, r, "seed", err)
		return
	}
	if n > 0 {
		h.auditLogger.Content(r, c, audit.EventContentSeeded, repo.Kind(), "", map[string]string{
			"inserted": strconv.Itoa(n),
		})
	}
	jsonutil.OK(w, map[string]int{"inserted": n})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	repo, _, ok := h.target(w, r)
	if !ok {
		return
	}
	if h.audits == nil {
		jsonutil.OK(w, map[string]any{"events": []audit.Event{}})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "history "+repo.Kind())
	defer cancel()

	events, err := h.audits.History(ctx, repo.Kind(), chi.URLParam(r, "id"), historyLimit)
	if err != nil {
		h.fail(w, r, "load history", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	jsonutil.OK(w, map[string]any{"events": events})
}

// fail maps an error to a status. Only unexpected errors are logged; the
// client gets a generic message for those.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, capability.ErrForbidden):
		jsonutil.Forbidden(w, err.Error())
	case errors.Is(err, contentstore.ErrUnknownKind):
		jsonutil.NotFound(w, "unknown content kind "+strconv.Quote(chi.URLParam(r, "kind")))
	case errors.Is(err, contentstore.ErrNotFound):
		jsonutil.NotFound(w, "content not found")
	case errors.Is(err, contentstore.ErrInvalidID):
		jsonutil.BadRequest(w, "an id is required")
	case errors.Is(err, errDeleteNotAllowed):
		jsonutil.MethodNotAllowed(w, err.Error())
	case mongo.IsDuplicateKeyError(err):
		jsonutil.Conflict(w, "another entry already uses this key")
	default:
		h.errLog.LogWithFields(r, "content "+op+" failed", err, zap.String("kind", chi.URLParam(r, "kind")))
		jsonutil.InternalError(w, "failed to "+op+", try again")
	}
}

// fieldList records which fields a write touched, for the audit trail.
func fieldList(p contentstore.Patch) map[string]string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return map[string]string{"fields": strings.Join(keys, ",")}
}
