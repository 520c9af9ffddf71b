// MsHoa Learning | 2026
// handler.go

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mshoa-learning/backend/internal/core"
	"github.com/mshoa-learning/backend/internal/middleware"
)

const maxWebhookBody = 64 * 1024

type Handler struct {
	service       *Service
	validator     *validator.Validate
	webhookSecret string
}

func NewHandler(service *Service, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		validator:     validator.New(validator.WithRequiredStructEnabled()),
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/webhook", h.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/my", h.MyPayments)
			r.Get("/{paymentID}/qr", h.GetQR)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/courses/{courseID}/purchase", h.Purchase)
	})
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
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

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateOrder(
		r.Context(),
		userID,
		courseID,
		req.PurchaseType,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "course")
		case errors.Is(err, ErrAlreadyOwned):
			core.JSONError(
				w,
				core.ConflictError("you already have access to this course"),
			)
		case errors.Is(err, ErrPendingExists):
			core.JSONError(w, core.ConflictError(
				"a pending order for this course already exists",
			))
		case errors.Is(err, ErrNotPurchasable):
			core.BadRequest(w, "course cannot be purchased this way")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, resp)
}

func (h *Handler) GetQR(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		core.BadRequest(w, "payment ID required")
		return
	}

	qr, err := h.service.GetQR(r.Context(), paymentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "payment")
		case errors.Is(err, ErrOrderExpired):
			core.BadRequest(w, "payment order has expired")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, qr)
}

func (h *Handler) MyPayments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	payments, err := h.service.ListMy(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"payments": payments})
}

// Webhook receives settlement notifications from the bank. The
// signature is HMAC-SHA256 of the raw body; anything unverifiable is
// rejected before the body is parsed.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.BadRequest(w, "unreadable request body")
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		core.Unauthorized(w, "invalid webhook signature")
		return
	}

	var notif WebhookNotification
	if err := json.Unmarshal(body, &notif); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(notif); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.HandleNotification(r.Context(), notif)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownReference):
			core.NotFound(w, "payment")
		case errors.Is(err, core.ErrConflict):
			core.JSONError(w, core.ConflictError(
				"payment is not pending or has expired",
			))
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

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)

	return hmac.Equal(provided, mac.Sum(nil))
}
