package subscription

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/previmed/registro/internal/center"
	apperrors "github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

// fakeStore keeps subscriptions in memory with the repository's semantics
type fakeStore struct {
	byOrder    map[string]*Subscription
	names      map[types.ID]string
	insertFail bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byOrder: make(map[string]*Subscription),
		names:   make(map[types.ID]string),
	}
}

func (f *fakeStore) Insert(ctx context.Context, sub *Subscription) error {
	if f.insertFail {
		f.insertFail = false
		return apperrors.Conflict("commerce order already exists")
	}
	if _, ok := f.byOrder[sub.CommerceOrder]; ok {
		return apperrors.Conflict("commerce order already exists")
	}
	clone := *sub
	clone.CreatedAt = time.Now().UTC()
	f.byOrder[sub.CommerceOrder] = &clone
	return nil
}

func (f *fakeStore) GetByOrder(ctx context.Context, order string) (*Subscription, error) {
	sub, ok := f.byOrder[order]
	if !ok {
		return nil, apperrors.OrderNotFound(order)
	}
	clone := *sub
	return &clone, nil
}

func (f *fakeStore) Activate(ctx context.Context, order, token string, paymentData map[string]any, activatedAt, expiresAt time.Time) (*Subscription, error) {
	sub, ok := f.byOrder[order]
	if !ok || sub.Status != StatusPending {
		return nil, apperrors.Conflict("subscription is not pending")
	}
	sub.Status = StatusActive
	sub.PaymentToken = token
	sub.PaymentData = paymentData
	sub.ActivatedAt = &activatedAt
	sub.ExpiresAt = &expiresAt
	clone := *sub
	return &clone, nil
}

func (f *fakeStore) LatestActive(ctx context.Context, email string, now time.Time) (*Entitlement, error) {
	var best *Subscription
	for _, sub := range f.byOrder {
		if sub.Email != normalizeEmail(email) || !sub.IsActive(now) {
			continue
		}
		if best == nil || sub.ActivatedAt.After(*best.ActivatedAt) {
			best = sub
		}
	}
	if best == nil {
		return nil, apperrors.NotFound("active subscription", normalizeEmail(email))
	}
	return &Entitlement{Subscription: *best, CenterName: f.names[best.CenterID]}, nil
}

// fakeCenters records center registrations and subscription marks. It
// shares the store's names map so entitlement lookups see center names
// the same way the SQL join does.
type fakeCenters struct {
	byEmail    map[string]*center.MedicalCenter
	subscribed map[types.ID]string
	names      map[types.ID]string
}

func newFakeCenters(store *fakeStore) *fakeCenters {
	return &fakeCenters{
		byEmail:    make(map[string]*center.MedicalCenter),
		subscribed: make(map[types.ID]string),
		names:      store.names,
	}
}

func (f *fakeCenters) FindOrCreate(ctx context.Context, c *center.MedicalCenter) (*center.MedicalCenter, error) {
	if existing, ok := f.byEmail[c.Email]; ok {
		return existing, nil
	}
	clone := *c
	clone.ID = types.NewID()
	f.byEmail[c.Email] = &clone
	f.names[clone.ID] = clone.Name
	return &clone, nil
}

func (f *fakeCenters) MarkSubscribed(ctx context.Context, id types.ID, planID string) error {
	f.subscribed[id] = planID
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeCenters) {
	store := newFakeStore()
	centers := newFakeCenters(store)
	svc := NewService(store, centers, "https://registro.example.cl")
	return svc, store, centers
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		PlanID:     "basico",
		Email:      "admin@clinica.cl",
		CenterName: "Clínica Central",
		Phone:      "+56 9 1234 5678",
	}
}

// TestCreateMissingFields tests validation of the purchase request
func TestCreateMissingFields(t *testing.T) {
	svc, store, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"no plan", func(r *CreateRequest) { r.PlanID = "" }},
		{"no email", func(r *CreateRequest) { r.Email = "" }},
		{"no center name", func(r *CreateRequest) { r.CenterName = "" }},
		{"no phone", func(r *CreateRequest) { r.Phone = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			_, _, err := svc.Create(context.Background(), req)
			if !apperrors.IsCode(err, "MISSING_FIELDS") {
				t.Fatalf("expected MISSING_FIELDS error, got %v", err)
			}
		})
	}

	if len(store.byOrder) != 0 {
		t.Error("store was written despite validation failures")
	}
}

// TestCreateUnknownPlan tests rejection of plan ids outside the catalog
func TestCreateUnknownPlan(t *testing.T) {
	svc, _, _ := newTestService()

	req := validCreateRequest()
	req.PlanID = "premium"

	if _, _, err := svc.Create(context.Background(), req); !apperrors.IsCode(err, "UNKNOWN_PLAN") {
		t.Fatalf("expected UNKNOWN_PLAN error, got %v", err)
	}
}

// TestCreateStartsPendingSubscription tests the happy purchase path
func TestCreateStartsPendingSubscription(t *testing.T) {
	svc, store, centers := newTestService()

	result, sub, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(result.OrderID, "SUB-") {
		t.Errorf("order id %q missing SUB- prefix", result.OrderID)
	}
	if !strings.Contains(result.PaymentURL, "https://registro.example.cl/pay?order=") {
		t.Errorf("payment url %q not built from base url", result.PaymentURL)
	}
	if !strings.HasSuffix(result.PaymentURL, result.OrderID) {
		t.Errorf("payment url %q does not reference order %q", result.PaymentURL, result.OrderID)
	}

	if sub.Status != StatusPending {
		t.Errorf("status = %s, want %s", sub.Status, StatusPending)
	}
	if sub.Amount != 9990 {
		t.Errorf("amount = %d, want 9990", sub.Amount)
	}
	if sub.ExpiresAt != nil {
		t.Error("expiry must not be set before payment confirmation")
	}

	if _, ok := store.byOrder[result.OrderID]; !ok {
		t.Error("subscription not stored under its order id")
	}
	if _, ok := centers.byEmail["admin@clinica.cl"]; !ok {
		t.Error("medical center was not registered")
	}
}

// TestCreateRetriesOnOrderCollision tests that an order collision is
// retried with a fresh identifier
func TestCreateRetriesOnOrderCollision(t *testing.T) {
	svc, store, _ := newTestService()
	store.insertFail = true

	result, _, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if result.OrderID == "" {
		t.Error("expected an order id after retry")
	}
}

// TestConfirmPaymentActivates tests the pending to active transition
func TestConfirmPaymentActivates(t *testing.T) {
	svc, _, centers := newTestService()
	ctx := context.Background()

	result, created, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}

	sub, activated, err := svc.ConfirmPayment(ctx, result.OrderID, "tok-123")
	if err != nil {
		t.Fatal(err)
	}
	if !activated {
		t.Error("expected first confirmation to activate")
	}
	if sub.Status != StatusActive {
		t.Errorf("status = %s, want %s", sub.Status, StatusActive)
	}
	if sub.ExpiresAt == nil || sub.ActivatedAt == nil {
		t.Fatal("activation must set both timestamps")
	}

	wantExpiry := sub.ActivatedAt.AddDate(0, 0, 30)
	if !sub.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expiry = %s, want %s", sub.ExpiresAt, wantExpiry)
	}

	if centers.subscribed[created.CenterID] != "basico" {
		t.Error("center was not marked as subscribed to the paid plan")
	}
}

// TestConfirmPaymentIdempotent tests that replaying a provider callback
// neither fails nor extends the entitlement window
func TestConfirmPaymentIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	result, _, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}

	first, _, err := svc.ConfirmPayment(ctx, result.OrderID, "tok-123")
	if err != nil {
		t.Fatal(err)
	}

	second, activated, err := svc.ConfirmPayment(ctx, result.OrderID, "tok-456")
	if err != nil {
		t.Fatalf("replayed confirmation failed: %v", err)
	}
	if activated {
		t.Error("replay must not re-activate")
	}
	if !second.ExpiresAt.Equal(*first.ExpiresAt) {
		t.Errorf("replay moved expiry from %s to %s", first.ExpiresAt, second.ExpiresAt)
	}
	if second.PaymentToken != first.PaymentToken {
		t.Error("replay must not overwrite the original payment token")
	}
}

// TestConfirmPaymentUnknownOrder tests confirmation of a nonexistent order
func TestConfirmPaymentUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.ConfirmPayment(context.Background(), "SUB-0-deadbeef", "tok")
	if !apperrors.IsCode(err, "ORDER_NOT_FOUND") {
		t.Fatalf("expected ORDER_NOT_FOUND error, got %v", err)
	}
}

// TestStatus tests the status query for subscribed and unsubscribed emails
func TestStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	result, _, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.ConfirmPayment(ctx, result.OrderID, "tok"); err != nil {
		t.Fatal(err)
	}

	status, err := svc.Status(ctx, "admin@clinica.cl")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Active {
		t.Fatal("expected an active subscription")
	}
	if status.Subscription.Plan != "Plan Básico" {
		t.Errorf("plan = %q, want %q", status.Subscription.Plan, "Plan Básico")
	}
	if status.Subscription.DaysRemaining < 29 || status.Subscription.DaysRemaining > 30 {
		t.Errorf("days remaining = %d, want about 30", status.Subscription.DaysRemaining)
	}
	if status.Subscription.CenterName != "Clínica Central" {
		t.Errorf("center = %q, want %q", status.Subscription.CenterName, "Clínica Central")
	}

	// Unknown email answers inactive rather than erroring
	none, err := svc.Status(ctx, "nobody@example.cl")
	if err != nil {
		t.Fatal(err)
	}
	if none.Active || none.Subscription != nil {
		t.Error("expected inactive status for unknown email")
	}
}

// TestStatusEmailCaseInsensitive tests that the query matches regardless of casing
func TestStatusEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	result, _, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.ConfirmPayment(ctx, result.OrderID, "tok"); err != nil {
		t.Fatal(err)
	}

	status, err := svc.Status(ctx, "Admin@Clinica.CL")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Active {
		t.Error("expected case-insensitive email match")
	}
}
