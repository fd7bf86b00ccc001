package patient

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/previmed/registro/internal/shared/errors"
)

// Handler provides HTTP handlers for patient lookup
type Handler struct {
	repo *Repository
}

// NewHandler creates a new patient handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the patient routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Lookup is privacy-preserving (fragment + initials, never the full
	// identity) and deliberately not entitlement-gated
	r.Post("/search", h.Search)

	return r
}

// Search finds patients by identity fragment and initials
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	missing := map[string]string{}
	if req.Fragment == "" {
		missing["identity_fragment"] = "identity_fragment is required"
	}
	if req.Initials == "" {
		missing["initials"] = "initials is required"
	}
	if len(missing) > 0 {
		writeError(w, errors.MissingFields(missing))
		return
	}

	results, err := h.repo.Search(r.Context(), req.Fragment, req.Initials)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patients": results,
		"total":    len(results),
	})
}

// --- Helpers ---

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
