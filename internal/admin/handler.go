// MsHoa Learning | 2026
// handler.go

package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/course"
	"github.com/mshoa-learning/backend/internal/payment"
	"github.com/mshoa-learning/backend/internal/user"
	"github.com/mshoa-learning/backend/internal/video"
)

type Handler struct {
	courses   *course.Service
	videos    *video.Handler
	payments  *payment.Service
	users     *user.Service
	stats     *StatsHandler
	validator *validator.Validate
}

func NewHandler(
	courses *course.Service,
	videos *video.Handler,
	payments *payment.Service,
	users *user.Service,
	stats *StatsHandler,
) *Handler {
	return &Handler{
		courses:   courses,
		videos:    videos,
		payments:  payments,
		users:     users,
		stats:     stats,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.ListCourses)
			r.Post("/", h.CreateCourse)
			r.Put("/{courseID}", h.UpdateCourse)
			r.Delete("/{courseID}", h.DeactivateCourse)
		})

		h.videos.RegisterAdminRoutes(r)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/{paymentID}/settle", h.SettlePayment)
			r.Post("/{paymentID}/refund", h.RefundPayment)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Put("/{userID}/membership", h.SetMembership)
		})

		h.stats.RegisterRoutes(r)
	})
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	params := course.ListCoursesParams{
		Level:  r.URL.Query().Get("level"),
		Search: r.URL.Query().Get("search"),
	}
	if page := r.URL.Query().Get("page"); page != "" {
		params.Page, _ = strconv.Atoi(page)
	}
	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		params.PerPage, _ = strconv.Atoi(perPage)
	}

	// Admin listing includes deactivated courses; no access resolution.
	resp, err := h.courses.ListCatalogAdmin(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req course.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.courses.Create(r.Context(), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, course.ToCourseResponse(c))
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	var req course.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.courses.Update(r.Context(), courseID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "course")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, course.ToCourseResponse(c))
}

func (h *Handler) DeactivateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		core.BadRequest(w, "course ID required")
		return
	}

	if err := h.courses.Deactivate(r.Context(), courseID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "course")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}
	if offset < 0 {
		offset = 0
	}

	payments, total, err := h.payments.List(r.Context(), status, limit, offset)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"payments":    payments,
		"total_count": total,
	})
}

type settlePaymentRequest struct {
	Success       bool    `json:"success"`
	TransactionID *string `json:"transaction_id" validate:"omitempty,max=255"`
	BankReference *string `json:"bank_reference" validate:"omitempty,max=255"`
}

// SettlePayment records a manual bank-transfer confirmation.
func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		core.BadRequest(w, "payment ID required")
		return
	}

	var req settlePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.payments.Settle(
		r.Context(),
		paymentID,
		req.Success,
		req.TransactionID,
		req.BankReference,
	)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			core.JSONError(w, core.ConflictError(
				"payment is not pending or has expired",
			))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"payment_id": p.ID,
		"status":     p.Status,
	})
}

func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		core.BadRequest(w, "payment ID required")
		return
	}

	p, err := h.payments.Refund(r.Context(), paymentID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "payment")
		case errors.Is(err, payment.ErrNotRefundable):
			core.JSONError(w, core.ConflictError(
				"payment is outside the refund window or not completed",
			))
		case errors.Is(err, core.ErrConflict):
			core.JSONError(w, core.ConflictError("payment already refunded"))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, map[string]any{
		"payment_id": p.ID,
		"status":     p.Status,
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := user.ListUsersParams{
		Search: r.URL.Query().Get("search"),
		Tier:   r.URL.Query().Get("tier"),
	}
	if page := r.URL.Query().Get("page"); page != "" {
		params.Page, _ = strconv.Atoi(page)
	}
	if pageSize := r.URL.Query().Get("page_size"); pageSize != "" {
		params.PageSize, _ = strconv.Atoi(pageSize)
	}
	params.Normalize()

	users, total, err := h.users.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, user.UserListResponse{
		Users:    user.ToUserResponseList(users),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

type setMembershipRequest struct {
	Tier      string     `json:"tier"       validate:"required,oneof=free vip"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handler) SetMembership(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		core.BadRequest(w, "user ID required")
		return
	}

	var req setMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.users.SetMembership(r.Context(), userID, req.Tier, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "invalid membership tier")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}
