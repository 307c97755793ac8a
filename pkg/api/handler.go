// Package api serves the upload page, the analysis ledger and the
// WebSocket submission endpoint.
package api

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"voice-insight/pkg/logger"
	"voice-insight/pkg/models"
	"voice-insight/pkg/pipeline"
	"voice-insight/pkg/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Form fields that may carry the clip, in order of preference.
var uploadFields = []string{"file", "recorded_data"}

const multipartMemory = 32 << 20

type Handlers struct {
	pipeline *pipeline.Manager
	log      logger.Logger
}

func NewHandlers(p *pipeline.Manager, log logger.Logger) *Handlers {
	return &Handlers{
		pipeline: p,
		log:      log.Named("api"),
	}
}

type chartRow struct {
	Title string
	Label string
	Image string
}

type pageData struct {
	Error      string
	AnalysisID string
	Filename   string
	Rows       []chartRow
}

func newPageData(a *models.Analysis) pageData {
	data := pageData{AnalysisID: a.ID, Filename: a.Filename}
	if a.Prediction == nil {
		return data
	}
	for _, c := range models.Categories {
		data.Rows = append(data.Rows, chartRow{
			Title: c.Title(),
			Label: a.Prediction.Label(c),
			Image: "/static/" + a.Charts[c],
		})
	}
	return data
}

// IndexHandler renders the upload page and, on POST, analyzes the
// submitted clip.
func (h *Handlers) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.renderPage(w, r, http.StatusOK, pageData{})
		return
	}

	ctx := r.Context()
	clip, err := h.readClip(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Warn(ctx, "upload rejected", logger.Int64("limit", tooLarge.Limit))
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.log.Error(ctx, "failed to read upload", logger.Error(err))
		h.renderPage(w, r, http.StatusBadRequest, pageData{Error: "The upload could not be read."})
		return
	}
	if clip == nil {
		h.renderPage(w, r, http.StatusOK, pageData{})
		return
	}

	analysis, err := h.pipeline.Process(ctx, clip)
	if err != nil {
		if pipeline.IsClientError(err) {
			data := pageData{Error: "Could not analyze the uploaded audio. Please upload a WAV or MP3 file."}
			h.renderPage(w, r, http.StatusBadRequest, data)
			return
		}
		h.renderPage(w, r, http.StatusInternalServerError, pageData{Error: "Something went wrong while processing the upload."})
		return
	}

	h.renderPage(w, r, http.StatusOK, newPageData(analysis))
}

// readClip returns the first non-empty upload field, or nil when the
// request carries none.
func (h *Handlers) readClip(r *http.Request) (*models.UploadedClip, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	for _, field := range uploadFields {
		file, header, err := r.FormFile(field)
		if err != nil {
			continue
		}
		if header.Filename == "" {
			file.Close()
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		return models.NewUploadedClip(header.Filename, data), nil
	}
	return nil, nil
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.log.Error(r.Context(), "failed to render page", logger.Error(err))
	}
}

func (h *Handlers) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	analysis, err := h.pipeline.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrAnalysisNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
			return
		}
		h.log.Error(r.Context(), "failed to load analysis", logger.String("analysis_id", id), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handlers) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	analyses, err := h.pipeline.List(r.Context(), limit)
	if err != nil {
		h.log.Error(r.Context(), "failed to list analyses", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
