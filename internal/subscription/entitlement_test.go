package subscription

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/previmed/registro/internal/shared/errors"
	"github.com/previmed/registro/internal/shared/types"
)

func seedActive(store *fakeStore, email string, activatedAt, expiresAt time.Time, centerName string) *Subscription {
	id := types.NewID()
	sub := &Subscription{
		ID:            types.NewID(),
		CenterID:      id,
		CommerceOrder: NewCommerceOrder(),
		PlanID:        "basico",
		Email:         normalizeEmail(email),
		Amount:        9990,
		Status:        StatusActive,
		StartedAt:     activatedAt,
		ActivatedAt:   &activatedAt,
		ExpiresAt:     &expiresAt,
	}
	store.byOrder[sub.CommerceOrder] = sub
	store.names[id] = centerName
	return sub
}

// TestAuthorizeMissingEmail tests that an unidentified caller is an
// authentication failure, not an entitlement failure
func TestAuthorizeMissingEmail(t *testing.T) {
	gate := NewGate(newFakeStore())

	_, err := gate.Authorize(context.Background(), "")
	if !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("expected UNAUTHORIZED error, got %v", err)
	}
}

// TestAuthorizeNoSubscription tests denial for emails without any subscription
func TestAuthorizeNoSubscription(t *testing.T) {
	gate := NewGate(newFakeStore())

	_, err := gate.Authorize(context.Background(), "admin@clinica.cl")
	if !apperrors.IsCode(err, "SUBSCRIPTION_REQUIRED") {
		t.Fatalf("expected SUBSCRIPTION_REQUIRED error, got %v", err)
	}
}

// TestAuthorizeExpiredSubscription tests that a lapsed subscription no
// longer grants access
func TestAuthorizeExpiredSubscription(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	seedActive(store, "admin@clinica.cl", now.AddDate(0, 0, -60), now.AddDate(0, 0, -30), "Clínica Central")

	gate := NewGate(store)
	_, err := gate.Authorize(context.Background(), "admin@clinica.cl")
	if !apperrors.IsCode(err, "SUBSCRIPTION_REQUIRED") {
		t.Fatalf("expected SUBSCRIPTION_REQUIRED error for expired subscription, got %v", err)
	}
}

// TestAuthorizeActiveSubscription tests the happy path
func TestAuthorizeActiveSubscription(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	seedActive(store, "admin@clinica.cl", now, now.AddDate(0, 0, 30), "Clínica Central")

	gate := NewGate(store)
	ent, err := gate.Authorize(context.Background(), "admin@clinica.cl")
	if err != nil {
		t.Fatal(err)
	}
	if ent.CenterName != "Clínica Central" {
		t.Errorf("center = %q, want %q", ent.CenterName, "Clínica Central")
	}
}

// TestAuthorizePicksMostRecent tests that the newest active subscription
// wins when an email holds several
func TestAuthorizePicksMostRecent(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	seedActive(store, "admin@clinica.cl", now.AddDate(0, 0, -20), now.AddDate(0, 0, 10), "Sede Antigua")
	newest := seedActive(store, "admin@clinica.cl", now.AddDate(0, 0, -1), now.AddDate(0, 0, 29), "Sede Nueva")

	gate := NewGate(store)
	ent, err := gate.Authorize(context.Background(), "admin@clinica.cl")
	if err != nil {
		t.Fatal(err)
	}
	if ent.CommerceOrder != newest.CommerceOrder {
		t.Errorf("authorized order %s, want most recent %s", ent.CommerceOrder, newest.CommerceOrder)
	}
}
