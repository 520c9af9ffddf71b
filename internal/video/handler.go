// MsHoa Learning | 2026
// handler.go

package video

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/middleware"
)

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadMB int64) *Handler {
	return &Handler{
		service:        service,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// RegisterRoutes mounts the streaming endpoint. Anonymous callers can
// stream free and preview content, so this rides OptionalAuth.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/videos/{videoID}/stream", h.Stream)
	})
}

// RegisterAdminRoutes mounts video management; callers wrap it in the
// admin gate.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/courses/{courseID}/videos", func(r chi.Router) {
		r.Get("/", h.AdminList)
		r.Post("/", h.Upload)
		r.Put("/reorder", h.Reorder)
	})
	r.Route("/videos/{videoID}", func(r chi.Router) {
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		core.BadRequest(w, "video ID required")
		return
	}

	userID := middleware.GetUserID(r.Context())

	resp, err := h.service.Stream(r.Context(), videoID, userID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "video")
		case errors.Is(err, ErrNoAccess):
			core.Forbidden(w, "purchase the course or upgrade to VIP to watch this video")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		core.BadRequest(w, "invalid multipart form or file too large")
		return
	}
	defer func() {
		//nolint:errcheck // temp file cleanup
		_ = r.MultipartForm.RemoveAll()
	}()

	req := UploadVideoRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		IsPreview:   r.FormValue("is_preview") == "true",
	}
	if v := r.FormValue("duration_seconds"); v != "" {
		req.DurationSeconds, _ = strconv.Atoi(v)
	}
	if v := r.FormValue("order_index"); v != "" {
		req.OrderIndex, _ = strconv.Atoi(v)
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	media, mediaHeader, err := r.FormFile("video")
	if err != nil {
		core.BadRequest(w, "video file required")
		return
	}
	defer media.Close() //nolint:errcheck // read-only close

	var thumbReader io.Reader
	var thumbType string
	thumbnail, thumbHeader, err := r.FormFile("thumbnail")
	if err == nil {
		defer thumbnail.Close() //nolint:errcheck // read-only close
		thumbReader = thumbnail
		thumbType = thumbHeader.Header.Get("Content-Type")
	}

	resp, err := h.service.Upload(
		r.Context(),
		courseID,
		req,
		media,
		mediaHeader.Header.Get("Content-Type"),
		thumbReader,
		thumbType,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "course")
		case errors.Is(err, ErrUnsupportedMedia):
			core.BadRequest(w, "unsupported media type")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, resp)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	videos, err := h.service.ListAdmin(r.Context(), courseID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"videos": videos})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		core.BadRequest(w, "video ID required")
		return
	}

	var req UpdateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Update(r.Context(), videoID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "video")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		core.BadRequest(w, "video ID required")
		return
	}

	if err := h.service.Delete(r.Context(), videoID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "video")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	var req ReorderVideosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.Reorder(r.Context(), courseID, req.VideoIDs); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "course")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
