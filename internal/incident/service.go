package incident

import (
	"context"
	"time"

	"github.com/previmed/registro/internal/patient"
	apperrors "github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

// Store is what the service needs from persistence. Implemented by
// Repository; tests substitute an in-memory fake.
type Store interface {
	RegisterIncident(ctx context.Context, p *patient.Patient, inc *Incident) (*RegisterResult, error)
}

// Service orchestrates incident registration: validation, identity
// normalization, severity classification and the transactional write.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register records an incident. The caller must already be entitled;
// this layer only cares that the report itself is well formed.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	missing := map[string]string{}
	if req.PatientIdentity == "" {
		missing["patient_identity"] = "required"
	}
	if req.FirstName == "" {
		missing["first_name"] = "required"
	}
	if req.IncidentType == "" {
		missing["incident_type"] = "required"
	}
	if req.Description == "" {
		missing["description"] = "required"
	}
	if req.OccurredOn == "" {
		missing["occurred_on"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingFields(missing)
	}

	identity, err := patient.NormalizeIdentity(req.PatientIdentity)
	if err != nil {
		return nil, err
	}

	occurredOn, err := time.Parse("2006-01-02", req.OccurredOn)
	if err != nil {
		return nil, apperrors.BadRequest("occurred_on must be a date in YYYY-MM-DD format")
	}

	p := &patient.Patient{
		FullIdentity: identity.Full,
		Fragment:     identity.Fragment,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Initials:     patient.DeriveInitials(req.FirstName, req.LastName),
		Email:        req.PatientEmail,
		Phone:        req.PatientPhone,
	}

	// Retry once on a registration number collision with fresh entropy.
	var result *RegisterResult
	for attempt := 0; attempt < 2; attempt++ {
		inc := &Incident{
			ID:                 types.NewID(),
			RegistrationNumber: NewRegistrationNumber(),
			IncidentType:       req.IncidentType,
			Severity:           ClassifySeverity(req.IncidentType),
			Description:        req.Description,
			OccurredOn:         occurredOn,
			CenterName:         req.CenterName,
			ReportedByEmail:    req.ReportedByEmail,
		}
		result, err = s.store.RegisterIncident(ctx, p, inc)
		if err == nil {
			return result, nil
		}
		if !apperrors.IsCode(err, "CONFLICT") {
			return nil, err
		}
	}
	return nil, err
}
