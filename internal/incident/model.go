package incident

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/previmed/registro/internal/patient"
	"github.com/previmed/registro/internal/shared/types"
)

// Incident is one recorded aggression event against medical staff
type Incident struct {
	ID                 types.ID  `json:"id"`
	PatientID          types.ID  `json:"patient_id"`
	RegistrationNumber string    `json:"registration_number"`
	IncidentType       string    `json:"incident_type"`
	Severity           Severity  `json:"severity"`
	Description        string    `json:"description"`
	OccurredOn         time.Time `json:"occurred_on"`
	CenterName         string    `json:"center_name,omitempty"`
	ReportedByEmail    string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// RegisterRequest carries everything needed to record an incident.
// CenterName and ReportedByEmail are filled from the caller's
// entitlement, never trusted from the body.
type RegisterRequest struct {
	PatientIdentity string `json:"patient_identity"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name,omitempty"`
	PatientEmail    string `json:"patient_email,omitempty"`
	PatientPhone    string `json:"patient_phone,omitempty"`
	IncidentType    string `json:"incident_type"`
	Description     string `json:"description"`
	OccurredOn      string `json:"occurred_on"`
	ReporterEmail   string `json:"email,omitempty"`

	CenterName      string `json:"-"`
	ReportedByEmail string `json:"-"`
}

// RegisterResult is the outcome of a registration: the stored incident,
// the patient's state after recounting their history, and what the risk
// level was before, so callers can detect escalations.
type RegisterResult struct {
	Incident       Incident          `json:"incident"`
	Patient        patient.Patient   `json:"patient"`
	PreviousRisk   patient.RiskLevel `json:"-"`
	IncidentCount  int               `json:"incident_count"`
	PatientCreated bool              `json:"-"`
}

// Escalated reports whether this registration raised the patient's risk level
func (r *RegisterResult) Escalated() bool {
	return r.Patient.RiskLevel != r.PreviousRisk
}

// NewRegistrationNumber generates a unique human-quotable incident number.
// Uniqueness is ultimately enforced by the store; callers retry once on
// the rare collision.
func NewRegistrationNumber() string {
	return fmt.Sprintf("INC-%d-%s", time.Now().UnixMilli(), strings.ToUpper(uuid.NewString()[:6]))
}
