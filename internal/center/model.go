package center

import (
	"time"

	"github.com/previmed/registro/internal/shared/types"
)

// MedicalCenter represents a clinic or hospital that reports incidents.
// Centers are keyed by the email used for their subscription and are
// created lazily on the first subscription request.
type MedicalCenter struct {
	ID                 types.ID  `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	TaxID              string    `json:"tax_id,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	PlanID             string    `json:"plan_id,omitempty"`
	SubscriptionActive bool      `json:"subscription_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
