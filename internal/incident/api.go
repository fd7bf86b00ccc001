package incident

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/previmed/registro/internal/shared/auth"
	"github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/events"
	"github.com/previmed/registro/internal/shared/metrics"
	"github.com/previmed/registro/internal/subscription"
)

// EntitlementGate decides whether a caller may register incidents
type EntitlementGate interface {
	Authorize(ctx context.Context, email string) (*subscription.Entitlement, error)
}

// Handler exposes incident registration over HTTP
type Handler struct {
	svc  *Service
	gate EntitlementGate
	bus  events.EventBus
}

func NewHandler(svc *Service, gate EntitlementGate, bus events.EventBus) *Handler {
	return &Handler{svc: svc, gate: gate, bus: bus}
}

// Routes registers the incident routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Register)

	return r
}

// Register records an incident for an entitled caller. The entitlement
// check runs before any write, so unsubscribed callers leave no trace.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	email := auth.ResolveEmail(r, req.ReporterEmail)
	ent, err := h.gate.Authorize(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	req.CenterName = ent.CenterName
	req.ReportedByEmail = email

	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordIncidentRegistered(string(result.Incident.Severity))
	if result.PatientCreated {
		metrics.RecordPatientCreated()
	}

	h.publish(r.Context(), events.NewEvent("incident.registered", "incident", map[string]any{
		"registration_number": result.Incident.RegistrationNumber,
		"incident_type":       result.Incident.IncidentType,
		"severity":            result.Incident.Severity,
		"center_name":         result.Incident.CenterName,
	}).WithActor(email, "medical_center"))

	if result.Escalated() {
		metrics.RecordRiskEscalation(string(result.PreviousRisk), string(result.Patient.RiskLevel))
		h.publish(r.Context(), events.NewEvent("patient.risk_escalated", "incident", map[string]any{
			"patient_id":     result.Patient.ID,
			"previous_risk":  result.PreviousRisk,
			"new_risk":       result.Patient.RiskLevel,
			"incident_count": result.IncidentCount,
		}).WithActor(email, "medical_center"))
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"registration_number": result.Incident.RegistrationNumber,
		"severity":            result.Incident.Severity,
		"patient_risk_level":  result.Patient.RiskLevel,
		"incident_count":      result.IncidentCount,
	})
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
