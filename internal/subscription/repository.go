package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/previmed/registro/internal/shared/errors"
)

// Repository persists subscriptions in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new pending subscription. A commerce order collision
// surfaces as a Conflict so the caller can retry with a fresh order.
func (r *Repository) Insert(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (id, center_id, commerce_order, plan_id, email, amount, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		sub.ID, sub.CenterID, sub.CommerceOrder, sub.PlanID,
		normalizeEmail(sub.Email), sub.Amount, sub.Status, sub.StartedAt,
	).Scan(&sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.Conflict("commerce order already exists")
		}
		return apperrors.Wrap(err, "failed to insert subscription")
	}
	return nil
}

// GetByOrder fetches a subscription by its commerce order identifier
func (r *Repository) GetByOrder(ctx context.Context, order string) (*Subscription, error) {
	query := `
		SELECT id, center_id, commerce_order, plan_id, email, amount, status,
		       started_at, activated_at, expires_at, payment_token, payment_data, created_at
		FROM subscriptions
		WHERE commerce_order = $1`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, order))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.OrderNotFound(order)
		}
		return nil, apperrors.Wrap(err, "failed to get subscription")
	}
	return sub, nil
}

// Activate flips a pending subscription to active, recording the payment
// token and metadata. Only pending rows transition; confirming an already
// active order reports a Conflict so the caller can treat it as a replay.
func (r *Repository) Activate(ctx context.Context, order, token string, paymentData map[string]any, activatedAt, expiresAt time.Time) (*Subscription, error) {
	data, err := json.Marshal(paymentData)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode payment data")
	}

	query := `
		UPDATE subscriptions
		SET status = 'active', payment_token = $2, payment_data = $3,
		    activated_at = $4, expires_at = $5
		WHERE commerce_order = $1 AND status = 'pending'
		RETURNING id, center_id, commerce_order, plan_id, email, amount, status,
		          started_at, activated_at, expires_at, payment_token, payment_data, created_at`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, order, token, data, activatedAt, expiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Conflict("subscription is not pending")
		}
		return nil, apperrors.Wrap(err, "failed to activate subscription")
	}
	return sub, nil
}

// LatestActive returns the most recently activated subscription that
// grants entitlement for the email at the given instant.
func (r *Repository) LatestActive(ctx context.Context, email string, now time.Time) (*Entitlement, error) {
	query := `
		SELECT s.id, s.center_id, s.commerce_order, s.plan_id, s.email, s.amount, s.status,
		       s.started_at, s.activated_at, s.expires_at, s.payment_token, s.payment_data, s.created_at,
		       c.name
		FROM subscriptions s
		JOIN medical_centers c ON c.id = s.center_id
		WHERE s.email = $1 AND s.status = 'active' AND s.expires_at > $2
		ORDER BY s.activated_at DESC
		LIMIT 1`

	row := r.pool.QueryRow(ctx, query, normalizeEmail(email), now)

	var ent Entitlement
	var token *string
	var data []byte
	err := row.Scan(
		&ent.ID, &ent.CenterID, &ent.CommerceOrder, &ent.PlanID, &ent.Email,
		&ent.Amount, &ent.Status, &ent.StartedAt, &ent.ActivatedAt,
		&ent.ExpiresAt, &token, &data, &ent.CreatedAt,
		&ent.CenterName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("active subscription", normalizeEmail(email))
		}
		return nil, apperrors.Wrap(err, "failed to query entitlement")
	}
	finishScan(&ent.Subscription, token, data)
	return &ent, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	var token *string
	var data []byte
	err := row.Scan(
		&sub.ID, &sub.CenterID, &sub.CommerceOrder, &sub.PlanID, &sub.Email,
		&sub.Amount, &sub.Status, &sub.StartedAt, &sub.ActivatedAt,
		&sub.ExpiresAt, &token, &data, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	finishScan(&sub, token, data)
	return &sub, nil
}

func finishScan(sub *Subscription, token *string, data []byte) {
	if token != nil {
		sub.PaymentToken = *token
	}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &sub.PaymentData)
	}
}
