package patient

import (
	"time"

	"github.com/previmed/registro/internal/shared/types"
)

// RiskLevel classifies a patient by their accumulated incident history
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Patient represents a person with at least one recorded incident.
// Identity is stored in full for exact matching; lookups by third parties
// only ever use the fragment + initials pair.
type Patient struct {
	ID           types.ID  `json:"id"`
	FullIdentity string    `json:"-"` // never exposed in JSON
	Fragment     string    `json:"identity_fragment"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name,omitempty"`
	Initials     string    `json:"initials"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	RiskLevel    RiskLevel `json:"risk_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HistoryEntry is the read model of one incident in a patient's history,
// returned by the privacy-preserving search.
type HistoryEntry struct {
	ID                 types.ID  `json:"id"`
	IncidentType       string    `json:"incident_type"`
	Description        string    `json:"description"`
	OccurredOn         time.Time `json:"occurred_on"`
	Severity           string    `json:"severity"`
	CenterName         string    `json:"center_name,omitempty"`
	RegistrationNumber string    `json:"registration_number"`
	CreatedAt          time.Time `json:"created_at"`
}

// SearchResult is one patient match with their full incident history,
// most recent incident first.
type SearchResult struct {
	Patient
	IncidentCount int            `json:"incident_count"`
	Incidents     []HistoryEntry `json:"incidents"`
}

// SearchRequest is the request for the fragment + initials lookup
type SearchRequest struct {
	Fragment string `json:"identity_fragment"`
	Initials string `json:"initials"`
}
