package subscription

import (
	"strings"
	"testing"
	"time"
)

// TestNewCommerceOrderFormat tests the shape of generated order identifiers
func TestNewCommerceOrderFormat(t *testing.T) {
	order := NewCommerceOrder()

	if !strings.HasPrefix(order, "SUB-") {
		t.Errorf("order %q missing SUB- prefix", order)
	}
	parts := strings.Split(order, "-")
	if len(parts) != 3 {
		t.Fatalf("order %q should have 3 segments", order)
	}
	if len(parts[2]) != 8 {
		t.Errorf("random segment %q should be 8 characters", parts[2])
	}
}

// TestNewCommerceOrderUnique tests that successive orders differ
func TestNewCommerceOrderUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		order := NewCommerceOrder()
		if seen[order] {
			t.Fatalf("duplicate order generated: %s", order)
		}
		seen[order] = true
	}
}

// TestIsActive tests the entitlement window logic
func TestIsActive(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active and unexpired", Subscription{Status: StatusActive, ExpiresAt: &future}, true},
		{"active but expired", Subscription{Status: StatusActive, ExpiresAt: &past}, false},
		{"pending", Subscription{Status: StatusPending}, false},
		{"active without expiry", Subscription{Status: StatusActive}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.IsActive(now); got != tt.want {
				t.Errorf("IsActive = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDaysRemaining tests the whole-day countdown
func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		until time.Duration
		want  int
	}{
		{"thirty days", 30 * 24 * time.Hour, 30},
		{"partial day rounds down", 36 * time.Hour, 1},
		{"under a day", 6 * time.Hour, 0},
		{"already expired", -time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expires := now.Add(tt.until)
			sub := Subscription{Status: StatusActive, ExpiresAt: &expires}
			if got := sub.DaysRemaining(now); got != tt.want {
				t.Errorf("DaysRemaining = %d, want %d", got, tt.want)
			}
		})
	}
}
