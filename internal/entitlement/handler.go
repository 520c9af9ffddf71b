// MsHoa Learning | 2026
// handler.go

package entitlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/middleware"
)

type UpdateProgressRequest struct {
	Progress           float64 `json:"progress"              validate:"min=0,max=100"`
	LastWatchedVideoID *string `json:"last_watched_video_id" validate:"omitempty,uuid"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Put("/courses/{courseID}/progress", h.UpdateProgress)
	})
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.UpdateProgress(
		r.Context(),
		userID,
		courseID,
		req.Progress,
		req.LastWatchedVideoID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "enrollment")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
