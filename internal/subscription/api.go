package subscription

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/events"
	"github.com/previmed/registro/internal/shared/metrics"
)

// Handler exposes the plan catalog and the subscription lifecycle over HTTP
type Handler struct {
	svc *Service
	bus events.EventBus
}

func NewHandler(svc *Service, bus events.EventBus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

// Routes registers the subscription routes. The confirmation callback is
// the only endpoint reachable by the payment provider, so callers may
// attach extra middleware (rate limiting) to it alone.
func (h *Handler) Routes(confirmMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.With(confirmMiddleware...).Post("/confirm", h.Confirm)
	r.Get("/status/{email}", h.Status)

	return r
}

// PlansHandler serves the public plan catalog
func (h *Handler) PlansHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plans": Plans()})
}

// Create starts a subscription purchase and returns the payment URL
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	result, sub, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordSubscriptionCreated(sub.PlanID)
	h.publish(r.Context(), events.NewEvent("subscription.created", "subscription", map[string]any{
		"commerce_order": sub.CommerceOrder,
		"plan_id":        sub.PlanID,
		"amount":         sub.Amount,
	}).WithActor(sub.Email, "medical_center"))

	writeJSON(w, http.StatusCreated, result)
}

// Confirm is the payment provider callback. Replays of an already
// confirmed order answer with the stored activation.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	sub, activated, err := h.svc.ConfirmPayment(r.Context(), req.CommerceOrder, req.PaymentToken)
	if err != nil {
		writeError(w, err)
		return
	}

	if activated {
		metrics.RecordPaymentConfirmed(sub.PlanID)
		h.publish(r.Context(), events.NewEvent("subscription.activated", "subscription", map[string]any{
			"commerce_order": sub.CommerceOrder,
			"plan_id":        sub.PlanID,
			"expires_at":     sub.ExpiresAt,
		}).WithActor(sub.Email, "payment_provider"))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"commerce_order": sub.CommerceOrder,
		"status":         sub.Status,
		"expires_at":     sub.ExpiresAt,
	})
}

// Status reports whether an email holds an active subscription
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	result, err := h.svc.Status(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) publish(ctx context.Context, event events.Event) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ctx, event); err != nil {
		log.Printf("failed to publish %s event: %v", event.Type, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
