// Package assets serves the admin media library: uploads whose URLs are pasted
// into image fields of content entities.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	assetstore "github.com/dalemusser/stratasite/internal/app/store/asset"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/capability"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxUploadSize applies when the handler is built with a non-positive limit.
const DefaultMaxUploadSize = 10 << 20

const sniffLen = 512

// Handler provides asset handlers.
type Handler struct {
	assets      *assetstore.Store
	fileStorage storage.Store
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	logger      *zap.Logger
	maxSize     int64
}

// NewHandler creates a new assets Handler.
func NewHandler(
	db *mongo.Database,
	fileStorage storage.Store,
	maxSize int64,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &Handler{
		assets:      assetstore.New(db),
		fileStorage: fileStorage,
		errLog:      errLog,
		auditLogger: auditLogger,
		logger:      logger,
		maxSize:     maxSize,
	}
}

// Routes returns a chi.Router with asset routes mounted. Every route needs
// admin capability.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(capability.AdminOnly)

	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Get("/{id}", h.show)
	r.Get("/{id}/raw", h.raw)
	r.Patch("/{id}", h.rename)
	r.Delete("/{id}", h.remove)
	return r
}

// View is the JSON shape of an asset.
type View struct {
	models.Asset
	SizeLabel string `json:"size_label"`
	Category  string `json:"category"`
}

func viewOf(a models.Asset) View {
	return View{Asset: a, SizeLabel: FormatFileSize(a.Size), Category: Category(a.ContentType)}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "list assets")
	defer cancel()

	pg := storeutil.FromQuery(r.URL.Query(), assetstore.MaxListSize)
	res, err := h.assets.List(ctx, r.URL.Query().Get("q"), pg.Number, pg.Size)
	if err != nil {
		h.errLog.Log(r, "failed to list assets", err)
		jsonutil.InternalError(w, "failed to list assets")
		return
	}
	views := make([]View, len(res.Assets))
	for i, a := range res.Assets {
		views[i] = viewOf(a)
	}
	jsonutil.OK(w, map[string]any{
		"assets": views,
		"total":  res.Total,
		"page":   res.Page,
		"limit":  res.Limit,
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, viewOf(*a))
}

// load fetches the asset named in the path, answering 404 or 500 itself.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.Asset, bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "get asset")
	defer cancel()

	a, err := h.assets.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.NotFound(w, "asset not found")
		return nil, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load asset", err)
		jsonutil.InternalError(w, "failed to load asset")
		return nil, false
	}
	return a, true
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	c := capability.FromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		jsonutil.BadRequest(w, fmt.Sprintf("upload must be multipart form data of at most %s", FormatFileSize(h.maxSize)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.ValidationError(w, map[string]string{"file": "Please select a file to upload."})
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		jsonutil.ValidationError(w, map[string]string{"file": "File is larger than " + FormatFileSize(h.maxSize) + "."})
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.errLog.Log(r, "failed to read upload", err)
		jsonutil.BadRequest(w, "could not read upload")
		return
	}
	head = head[:n]
	contentType := baseType(http.DetectContentType(head))
	if n == 0 || !Allowed(contentType) {
		jsonutil.ValidationError(w, map[string]string{"file": "Only PNG, JPEG, GIF, WebP and PDF files are accepted."})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	now := time.Now().UTC()
	storagePath := fmt.Sprintf("assets/%04d/%02d/%s%s",
		now.Year(), int(now.Month()), uuid.NewString(), extension(header.Filename, contentType))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upload(), h.logger, "upload asset")
	defer cancel()

	body := io.MultiReader(bytes.NewReader(head), file)
	if err := h.fileStorage.Put(ctx, storagePath, body, &storage.PutOptions{ContentType: contentType}); err != nil {
		h.errLog.Log(r, "failed to store upload", err)
		jsonutil.InternalError(w, "failed to store upload, try again")
		return
	}

	a, err := h.assets.Create(ctx, assetstore.CreateInput{
		Name:        name,
		StoragePath: storagePath,
		URL:         h.fileStorage.URL(storagePath),
		Size:        header.Size,
		ContentType: contentType,
		CreatedBy:   actorOf(c),
	})
	if err != nil {
		if delErr := h.fileStorage.Delete(ctx, storagePath); delErr != nil {
			h.logger.Warn("failed to remove orphaned upload",
				zap.String("path", storagePath), zap.Error(delErr))
		}
		h.errLog.Log(r, "failed to record asset", err)
		jsonutil.InternalError(w, "failed to save asset, try again")
		return
	}

	h.auditLogger.Asset(r, c, audit.EventAssetUploaded, a.ID, map[string]string{
		"name":         a.Name,
		"content_type": a.ContentType,
		"size":         strconv.FormatInt(a.Size, 10),
	})
	jsonutil.Created(w, viewOf(*a))
}

// raw streams the stored bytes. Used by the admin preview when the storage
// URL is not directly reachable, for example signed CloudFront paths.
func (h *Handler) raw(w http.ResponseWriter, r *http.Request) {
	a, ok := h.load(w, r)
	if !ok {
		return
	}

	reader, err := h.fileStorage.Get(r.Context(), a.StoragePath)
	if err != nil {
		h.errLog.Log(r, "failed to get asset from storage", err)
		jsonutil.NotFound(w, "asset content not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.Name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream asset",
			zap.String("path", a.StoragePath),
			zap.Error(err))
	}
}

type renameInput struct {
	Name string `json:"name" validate:"required,max=200,filename" label:"Name"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	c := capability.FromRequest(r)
	id := chi.URLParam(r, "id")

	var in renameInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.logger, "rename asset")
	defer cancel()

	switch err := h.assets.Rename(ctx, id, in.Name); {
	case errors.Is(err, assetstore.ErrNameRequired):
		jsonutil.ValidationError(w, map[string]string{"name": "Name is required."})
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		jsonutil.NotFound(w, "asset not found")
		return
	case err != nil:
		h.errLog.Log(r, "failed to rename asset", err)
		jsonutil.InternalError(w, "failed to rename asset, try again")
		return
	}

	h.auditLogger.Asset(r, c, audit.EventAssetRenamed, id, map[string]string{"name": strings.TrimSpace(in.Name)})
	h.show(w, r)
}

// remove deletes the record first, then the bytes. A storage failure after the
// record is gone only leaves an unreferenced object behind, so it is logged.
// Content fields that still point at the URL are not touched.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	c := capability.FromRequest(r)
	a, ok := h.load(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.logger, "delete asset")
	defer cancel()

	if err := h.assets.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "asset not found")
			return
		}
		h.errLog.Log(r, "failed to delete asset", err)
		jsonutil.InternalError(w, "failed to delete asset, try again")
		return
	}
	if err := h.fileStorage.Delete(ctx, a.StoragePath); err != nil {
		h.logger.Warn("failed to delete asset from storage",
			zap.String("path", a.StoragePath),
			zap.Error(err))
	}

	h.auditLogger.Asset(r, c, audit.EventAssetDeleted, a.ID, map[string]string{"name": a.Name})
	jsonutil.NoContent(w)
}

func actorOf(c capability.Capability) string {
	if c.ActorID != "" {
		return c.ActorID
	}
	return c.ActorName
}
