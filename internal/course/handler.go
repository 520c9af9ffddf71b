// MsHoa Learning | 2026
// handler.go

package course

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public catalog. Catalog endpoints accept
// anonymous traffic; optionalAuth enriches responses when a valid
// token is present.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/courses", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.ListCatalog)
			r.Get("/{courseID}", h.GetCourse)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/my", h.MyCourses)
		})
	})
}

func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	params := ListCoursesParams{
		Level:  r.URL.Query().Get("level"),
		Search: r.URL.Query().Get("search"),
	}

	if featured := r.URL.Query().Get("featured"); featured != "" {
		value, err := strconv.ParseBool(featured)
		if err != nil {
			core.BadRequest(w, "featured must be a boolean")
			return
		}
		params.Featured = &value
	}

	if page := r.URL.Query().Get("page"); page != "" {
		params.Page, _ = strconv.Atoi(page)
	}
	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		params.PerPage, _ = strconv.Atoi(perPage)
	}

	userID := middleware.GetUserID(r.Context())

	resp, err := h.service.ListCatalog(r.Context(), params, userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	userID := middleware.GetUserID(r.Context())

	resp, err := h.service.GetCourse(r.Context(), courseID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "course")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) MyCourses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	courses, err := h.service.MyCourses(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"courses": courses})
}
