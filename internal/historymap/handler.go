package historymap

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ssherwood/historymap/internal/config"
	"github.com/ssherwood/historymap/internal/geo"
	"github.com/ssherwood/historymap/internal/history"
	"github.com/ssherwood/historymap/internal/importer"
	"github.com/ssherwood/historymap/internal/session"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	uploadMemory      = 8 << 20
	multipartOverhead = 1 << 20
	recentImportLimit = 20
)

//go:embed static/index.html
var static embed.FS

var pageTemplate = template.Must(template.ParseFS(static, "static/index.html"))

// PageConfig is handed to the map page.
type PageConfig struct {
	Title       string
	TileURL     string
	Attribution string
	// ReportLocation is false when the server pins the location itself.
	ReportLocation bool
}

type Handler struct {
	service *Service
	page    PageConfig
}

func NewHandler(r *mux.Router, service *Service, hub http.Handler, page PageConfig) *Handler {
	handler := &Handler{service: service, page: page}
	r.HandleFunc("/", handler.Index).Methods("GET")
	r.HandleFunc("/health", handler.Health).Methods("GET")
	r.HandleFunc("/imports", handler.Import).Methods("POST")
	r.HandleFunc("/imports", handler.ListImports).Methods("GET")
	r.HandleFunc("/categories", handler.Categories).Methods("GET")
	r.HandleFunc("/categories/{name:.+}", handler.ToggleCategory).Methods("PUT")
	r.HandleFunc("/markers", handler.Markers).Methods("GET")
	r.HandleFunc("/view", handler.View).Methods("GET")
	r.HandleFunc("/geolocation", handler.ReportLocation).Methods("POST")
	if hub != nil {
		r.Handle("/ws", hub).Methods("GET")
	}
	return handler
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, h.page); err != nil {
		slog.ErrorContext(r.Context(), "Unable to render map page", config.ErrAttr(err))
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "UP", "imported": h.service.controller.Imported()})
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentSpan := trace.SpanFromContext(ctx)
	currentSpan.AddEvent("Import")

	if h.service.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.service.maxUpload+multipartOverhead)
	}

	if err := r.ParseMultipartForm(uploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, importer.ErrTooLarge)
		} else {
			http.Error(w, "malformed upload", http.StatusBadRequest)
		}
		return
	}

	var files []*multipart.FileHeader
	if form := r.MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
		files = form.File["file"]
	}

	response, err := h.service.Import(ctx, files)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	audits, err := h.service.RecentImports(r.Context(), recentImportLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, audits)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Categories())
}

type toggleRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["name"]

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		http.Error(w, `body must be {"active": true|false}`, http.StatusBadRequest)
		return
	}

	report, err := h.service.Toggle(r.Context(), category, *req.Active)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"categories": h.service.Categories(),
		"render":     report,
	})
}

func (h *Handler) Markers(w http.ResponseWriter, r *http.Request) {
	fc := h.service.Snapshot().FeatureCollection()
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		slog.WarnContext(r.Context(), "Unable to encode markers", config.ErrAttr(err))
	}
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.Snapshot()
	if snapshot.View == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snapshot.View)
}

func (h *Handler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var report LocationReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		h.fail(w, r, ErrInvalidLocation)
		return
	}

	if err := h.service.ReportLocation(report); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// fail records err on the request span and answers with its status.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	currentSpan := trace.SpanFromContext(r.Context())
	currentSpan.RecordError(err)
	currentSpan.SetStatus(codes.Error, err.Error())

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, config.ErrAttr(err))
	} else {
		slog.DebugContext(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, config.ErrAttr(err))
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var validationErr *importer.ValidationError
	var parseErr *history.ParseError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &parseErr), errors.Is(err, ErrInvalidLocation):
		return http.StatusBadRequest
	case errors.Is(err, importer.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, geo.ErrAlreadyApplied):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
