package subscription

import (
	"context"
	"time"

	apperrors "github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/metrics"
)

// Gate answers the entitlement question for protected operations:
// does this caller hold an active, unexpired subscription right now.
type Gate struct {
	subs Store
	now  func() time.Time
}

func NewGate(subs Store) *Gate {
	return &Gate{subs: subs, now: time.Now}
}

// Authorize resolves the caller's entitlement. An empty email is an
// authentication failure; a known email without an active subscription
// is a subscription failure. The distinction matters to API clients.
func (g *Gate) Authorize(ctx context.Context, email string) (*Entitlement, error) {
	if email == "" {
		metrics.RecordEntitlementDenied("missing_email")
		return nil, apperrors.Unauthorized("caller email could not be determined")
	}

	ent, err := g.subs.LatestActive(ctx, email, g.now())
	if err != nil {
		if apperrors.IsCode(err, "NOT_FOUND") {
			metrics.RecordEntitlementDenied("no_active_subscription")
			return nil, apperrors.SubscriptionRequired()
		}
		return nil, err
	}
	return ent, nil
}
