package incident

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previmed/registro/internal/patient"
	apperrors "github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

// Repository persists incidents in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RegisterIncident records an incident in a single transaction: the
// patient is found by full identity or created, the incident inserted,
// and the patient's risk level recomputed from the new history count.
// Either everything lands or nothing does.
func (r *Repository) RegisterIncident(ctx context.Context, p *patient.Patient, inc *Incident) (*RegisterResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	defer tx.Rollback(ctx)

	stored, created, err := findOrCreatePatient(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	inc.PatientID = stored.ID
	insertQuery := `
		INSERT INTO incidents (id, patient_id, incident_type, description, occurred_on,
		                       severity, center_name, registration_number, reported_by_email)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''))
		RETURNING created_at`

	err = tx.QueryRow(ctx, insertQuery,
		inc.ID, inc.PatientID, inc.IncidentType, inc.Description, inc.OccurredOn,
		inc.Severity, inc.CenterName, inc.RegistrationNumber, inc.ReportedByEmail,
	).Scan(&inc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.Conflict("registration number already exists")
		}
		return nil, apperrors.Wrap(err, "failed to insert incident")
	}

	var count int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM incidents WHERE patient_id = $1`, stored.ID).Scan(&count)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count incidents")
	}

	previous := stored.RiskLevel
	risk := patient.RiskForIncidentCount(count)
	if risk != previous {
		_, err = tx.Exec(ctx,
			`UPDATE patients SET risk_level = $2, updated_at = NOW() WHERE id = $1`,
			stored.ID, risk)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to update risk level")
		}
		stored.RiskLevel = risk
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Wrap(err, "failed to commit registration")
	}

	return &RegisterResult{
		Incident:       *inc,
		Patient:        *stored,
		PreviousRisk:   previous,
		IncidentCount:  count,
		PatientCreated: created,
	}, nil
}

// findOrCreatePatient matches on the full identity inside the transaction.
// The row lock keeps two concurrent registrations for the same patient
// from racing on the risk recount.
func findOrCreatePatient(ctx context.Context, tx pgx.Tx, p *patient.Patient) (*patient.Patient, bool, error) {
	selectQuery := `
		SELECT id, full_identity, identity_fragment, first_name, last_name, initials,
		       email, phone, risk_level, created_at, updated_at
		FROM patients
		WHERE full_identity = $1
		FOR UPDATE`

	stored, err := scanPatientRow(tx.QueryRow(ctx, selectQuery, p.FullIdentity))
	if err == nil {
		return stored, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.Wrap(err, "failed to look up patient")
	}

	// ON CONFLICT DO NOTHING keeps the transaction alive when a
	// concurrent registration created the same patient first; the
	// follow-up select then locks their row instead.
	p.ID = types.NewID()
	insertQuery := `
		INSERT INTO patients (id, full_identity, identity_fragment, first_name, last_name,
		                      initials, email, phone, risk_level)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), $9)
		ON CONFLICT (full_identity) DO NOTHING
		RETURNING id, full_identity, identity_fragment, first_name, last_name, initials,
		          email, phone, risk_level, created_at, updated_at`

	stored, err = scanPatientRow(tx.QueryRow(ctx, insertQuery,
		p.ID, p.FullIdentity, p.Fragment, p.FirstName, p.LastName,
		p.Initials, p.Email, p.Phone, patient.RiskLow,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.Wrap(err, "failed to create patient")
	}

	stored, err = scanPatientRow(tx.QueryRow(ctx, selectQuery, p.FullIdentity))
	if err != nil {
		return nil, false, apperrors.Wrap(err, "failed to look up patient")
	}
	return stored, false, nil
}

func scanPatientRow(row pgx.Row) (*patient.Patient, error) {
	var p patient.Patient
	var lastName, email, phone *string
	err := row.Scan(
		&p.ID, &p.FullIdentity, &p.Fragment, &p.FirstName, &lastName, &p.Initials,
		&email, &phone, &p.RiskLevel, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastName != nil {
		p.LastName = *lastName
	}
	if email != nil {
		p.Email = *email
	}
	if phone != nil {
		p.Phone = *phone
	}
	return &p, nil
}
