package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/previmed/registro/internal/shared/types"
)

// Status defines the stored state of a subscription. "Expired" is a
// derived read-time view (active with expiry in the past), never stored.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

// Subscription represents one purchase attempt of a plan by a medical
// center, from creation through payment confirmation.
type Subscription struct {
	ID            types.ID       `json:"id"`
	CenterID      types.ID       `json:"center_id"`
	CommerceOrder string         `json:"commerce_order"`
	PlanID        string         `json:"plan_id"`
	Email         string         `json:"email"`
	Amount        int            `json:"amount"`
	Status        Status         `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	ActivatedAt   *time.Time     `json:"activated_at,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	PaymentToken  string         `json:"-"`
	PaymentData   map[string]any `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
}

// IsActive reports whether the subscription grants entitlement at the
// given instant: confirmed and not yet expired.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// DaysRemaining returns the whole days of entitlement left at the given
// instant, zero when expired or not yet activated.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s.ExpiresAt == nil || !s.ExpiresAt.After(now) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now).Hours() / 24)
}

// NewCommerceOrder generates a globally unique commerce order identifier.
// A time component plus random entropy keeps collision probability
// negligible; the store's uniqueness constraint catches the rest.
func NewCommerceOrder() string {
	return fmt.Sprintf("SUB-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Entitlement is a subscription that currently grants registration rights,
// joined with its owning center's display name.
type Entitlement struct {
	Subscription
	CenterName string `json:"center_name"`
}

// CreateRequest is the request to start a subscription purchase
type CreateRequest struct {
	PlanID     string `json:"plan_id"`
	Email      string `json:"email"`
	CenterName string `json:"center_name"`
	Phone      string `json:"phone"`
	TaxID      string `json:"tax_id,omitempty"`
	Address    string `json:"address,omitempty"`
}

// CreateResult is returned when a purchase was started
type CreateResult struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

// ConfirmRequest is the payment provider callback payload
type ConfirmRequest struct {
	CommerceOrder string `json:"commerce_order"`
	PaymentToken  string `json:"payment_token"`
}

// StatusDetail describes an active subscription in status responses
type StatusDetail struct {
	Plan          string    `json:"plan"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysRemaining int       `json:"days_remaining"`
	CenterName    string    `json:"center_name"`
}

// StatusResult is the answer to a status query by email
type StatusResult struct {
	Active       bool          `json:"active"`
	Subscription *StatusDetail `json:"subscription,omitempty"`
}

// normalizeEmail lowercases and trims an email for comparison
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
