package patient

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

// Repository provides database operations for patients
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new patient repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID retrieves a patient by ID
func (r *Repository) GetByID(ctx context.Context, id types.ID) (*Patient, error) {
	query := `
		SELECT id, full_identity, identity_fragment, first_name, last_name,
			initials, email, phone, risk_level, created_at, updated_at
		FROM patients
		WHERE id = $1`

	p, err := scanPatient(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get patient")
	}

	return p, nil
}

// Search finds patients by identity fragment and initials. The fragment
// matches exactly; initials match case-insensitively. Each match carries
// its full incident history, most recent incident date first.
func (r *Repository) Search(ctx context.Context, fragment, initials string) ([]SearchResult, error) {
	query := `
		SELECT p.id, p.full_identity, p.identity_fragment, p.first_name, p.last_name,
			p.initials, p.email, p.phone, p.risk_level, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM incidents WHERE patient_id = p.id) AS incident_count
		FROM patients p
		WHERE p.identity_fragment = $1 AND UPPER(p.initials) = UPPER($2)`

	rows, err := r.pool.Query(ctx, query, fragment, initials)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search patients")
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var res SearchResult
		var lastName, email, phone *string
		err := rows.Scan(
			&res.ID, &res.FullIdentity, &res.Fragment, &res.FirstName, &lastName,
			&res.Initials, &email, &phone, &res.RiskLevel, &res.CreatedAt, &res.UpdatedAt,
			&res.IncidentCount,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan patient")
		}
		res.LastName = deref(lastName)
		res.Email = deref(email)
		res.Phone = deref(phone)
		results = append(results, res)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "failed to search patients")
	}

	for i := range results {
		history, err := r.history(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Incidents = history
	}

	return results, nil
}

// history retrieves a patient's incidents ordered by incident date descending
func (r *Repository) history(ctx context.Context, patientID types.ID) ([]HistoryEntry, error) {
	query := `
		SELECT id, incident_type, description, occurred_on, severity,
			center_name, registration_number, created_at
		FROM incidents
		WHERE patient_id = $1
		ORDER BY occurred_on DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get incident history")
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var center *string
		err := rows.Scan(&e.ID, &e.IncidentType, &e.Description, &e.OccurredOn,
			&e.Severity, &center, &e.RegistrationNumber, &e.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan incident history")
		}
		e.CenterName = deref(center)
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "failed to get incident history")
	}

	return entries, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	var lastName, email, phone *string
	err := row.Scan(
		&p.ID, &p.FullIdentity, &p.Fragment, &p.FirstName, &lastName,
		&p.Initials, &email, &phone, &p.RiskLevel, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.LastName = deref(lastName)
	p.Email = deref(email)
	p.Phone = deref(phone)
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
