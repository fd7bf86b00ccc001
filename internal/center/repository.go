package center

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

// Repository provides database operations for medical centers
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new medical center repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindOrCreate looks a center up by email and creates it if absent.
// The insert uses ON CONFLICT so two concurrent first-time subscription
// requests for the same email converge on one row.
func (r *Repository) FindOrCreate(ctx context.Context, c *MedicalCenter) (*MedicalCenter, error) {
	existing, err := r.GetByEmail(ctx, c.Email)
	if err == nil {
		return existing, nil
	}
	if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != "NOT_FOUND" {
		return nil, err
	}

	query := `
		INSERT INTO medical_centers (id, email, name, tax_id, phone, address, plan_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id, email, name, COALESCE(tax_id, ''), COALESCE(phone, ''),
			COALESCE(address, ''), COALESCE(plan_id, ''), subscription_active,
			created_at, updated_at`

	created := &MedicalCenter{}
	err = r.pool.QueryRow(ctx, query,
		types.NewID(), c.Email, c.Name, c.TaxID, c.Phone, c.Address, c.PlanID,
	).Scan(
		&created.ID, &created.Email, &created.Name, &created.TaxID, &created.Phone,
		&created.Address, &created.PlanID, &created.SubscriptionActive,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create medical center")
	}

	return created, nil
}

// GetByEmail retrieves a center by its subscription email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*MedicalCenter, error) {
	query := `
		SELECT id, email, name, COALESCE(tax_id, ''), COALESCE(phone, ''),
			COALESCE(address, ''), COALESCE(plan_id, ''), subscription_active,
			created_at, updated_at
		FROM medical_centers
		WHERE email = $1`

	c := &MedicalCenter{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&c.ID, &c.Email, &c.Name, &c.TaxID, &c.Phone,
		&c.Address, &c.PlanID, &c.SubscriptionActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("medical center", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get medical center")
	}

	return c, nil
}

// MarkSubscribed flags the center as entitled under the given plan.
// Invoked when a payment confirmation activates a subscription.
func (r *Repository) MarkSubscribed(ctx context.Context, id types.ID, planID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE medical_centers
		SET subscription_active = true, plan_id = $2, updated_at = NOW()
		WHERE id = $1`, id, planID)
	if err != nil {
		return errors.Wrap(err, "failed to update medical center")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("medical center", id.String())
	}

	return nil
}
