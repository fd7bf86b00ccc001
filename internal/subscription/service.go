package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/previmed/registro/internal/center"
	apperrors "github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

// Store is the persistence surface the service needs. Implemented by
// Repository; tests substitute an in-memory fake.
type Store interface {
	Insert(ctx context.Context, sub *Subscription) error
	GetByOrder(ctx context.Context, order string) (*Subscription, error)
	Activate(ctx context.Context, order, token string, paymentData map[string]any, activatedAt, expiresAt time.Time) (*Subscription, error)
	LatestActive(ctx context.Context, email string, now time.Time) (*Entitlement, error)
}

// CenterStore resolves the medical center owning a subscription
type CenterStore interface {
	FindOrCreate(ctx context.Context, c *center.MedicalCenter) (*center.MedicalCenter, error)
	MarkSubscribed(ctx context.Context, id types.ID, planID string) error
}

// Service drives the subscription lifecycle: purchase, payment
// confirmation and status queries.
type Service struct {
	subs    Store
	centers CenterStore
	baseURL string
	now     func() time.Time
}

func NewService(subs Store, centers CenterStore, baseURL string) *Service {
	return &Service{
		subs:    subs,
		centers: centers,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Create starts a purchase: registers or updates the medical center,
// stores a pending subscription and hands back the payment redirect URL.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, *Subscription, error) {
	missing := map[string]string{}
	if req.PlanID == "" {
		missing["plan_id"] = "required"
	}
	if req.Email == "" {
		missing["email"] = "required"
	}
	if req.CenterName == "" {
		missing["center_name"] = "required"
	}
	if req.Phone == "" {
		missing["phone"] = "required"
	}
	if len(missing) > 0 {
		return nil, nil, apperrors.MissingFields(missing)
	}

	plan, ok := PlanByID(req.PlanID)
	if !ok {
		return nil, nil, apperrors.UnknownPlan(req.PlanID)
	}

	c, err := s.centers.FindOrCreate(ctx, &center.MedicalCenter{
		Email:   normalizeEmail(req.Email),
		Name:    req.CenterName,
		TaxID:   req.TaxID,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return nil, nil, err
	}

	// One retry on commerce order collision, the window is a millisecond.
	var sub *Subscription
	for attempt := 0; attempt < 2; attempt++ {
		sub = &Subscription{
			ID:            types.NewID(),
			CenterID:      c.ID,
			CommerceOrder: NewCommerceOrder(),
			PlanID:        plan.ID,
			Email:         normalizeEmail(req.Email),
			Amount:        plan.Price,
			Status:        StatusPending,
			StartedAt:     s.now().UTC(),
		}
		err = s.subs.Insert(ctx, sub)
		if err == nil {
			break
		}
		if !apperrors.IsCode(err, "CONFLICT") {
			return nil, nil, err
		}
	}
	if err != nil {
		return nil, nil, err
	}

	return &CreateResult{
		OrderID:    sub.CommerceOrder,
		PaymentURL: fmt.Sprintf("%s/pay?order=%s", s.baseURL, sub.CommerceOrder),
	}, sub, nil
}

// ConfirmPayment activates a pending subscription. Confirmation is
// idempotent: replaying a callback for an already active order returns
// the stored result without touching the entitlement window.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, token string) (*Subscription, bool, error) {
	if orderID == "" {
		return nil, false, apperrors.MissingFields(map[string]string{"commerce_order": "required"})
	}

	existing, err := s.subs.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if existing.Status == StatusActive {
		return existing, false, nil
	}

	plan, ok := PlanByID(existing.PlanID)
	if !ok {
		return nil, false, apperrors.Internal(fmt.Errorf("subscription %s references unknown plan %s", orderID, existing.PlanID))
	}

	activatedAt := s.now().UTC()
	expiresAt := activatedAt.AddDate(0, 0, plan.DurationDays)
	paymentData := map[string]any{
		"token":        token,
		"confirmed_at": activatedAt.Format(time.RFC3339),
	}

	sub, err := s.subs.Activate(ctx, orderID, token, paymentData, activatedAt, expiresAt)
	if err != nil {
		// Lost a race with a concurrent confirmation, serve its result.
		if apperrors.IsCode(err, "CONFLICT") {
			replayed, getErr := s.subs.GetByOrder(ctx, orderID)
			if getErr == nil && replayed.Status == StatusActive {
				return replayed, false, nil
			}
		}
		return nil, false, err
	}

	if err := s.centers.MarkSubscribed(ctx, sub.CenterID, sub.PlanID); err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// Status reports whether an email currently holds an active subscription
func (s *Service) Status(ctx context.Context, email string) (*StatusResult, error) {
	if email == "" {
		return nil, apperrors.MissingFields(map[string]string{"email": "required"})
	}

	ent, err := s.subs.LatestActive(ctx, email, s.now())
	if err != nil {
		if apperrors.IsCode(err, "NOT_FOUND") {
			return &StatusResult{Active: false}, nil
		}
		return nil, err
	}

	plan, _ := PlanByID(ent.PlanID)
	name := plan.Name
	if name == "" {
		name = ent.PlanID
	}
	return &StatusResult{
		Active: true,
		Subscription: &StatusDetail{
			Plan:          name,
			ExpiresAt:     *ent.ExpiresAt,
			DaysRemaining: ent.DaysRemaining(s.now()),
			CenterName:    ent.CenterName,
		},
	}, nil
}
