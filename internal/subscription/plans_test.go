package subscription

import "testing"

// TestPlanCatalog tests the fixed plan catalog
func TestPlanCatalog(t *testing.T) {
	tests := []struct {
		id        string
		price     int
		days      int
		limit     int
		unlimited bool
	}{
		{"basico", 9990, 30, 50, false},
		{"profesional", 19990, 30, UnlimitedRecords, true},
		{"empresa", 49990, 30, UnlimitedRecords, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			plan, ok := PlanByID(tt.id)
			if !ok {
				t.Fatalf("plan %s not in catalog", tt.id)
			}
			if plan.Price != tt.price {
				t.Errorf("price = %d, want %d", plan.Price, tt.price)
			}
			if plan.DurationDays != tt.days {
				t.Errorf("duration = %d, want %d", plan.DurationDays, tt.days)
			}
			if plan.RecordLimit != tt.limit {
				t.Errorf("record limit = %d, want %d", plan.RecordLimit, tt.limit)
			}
			if plan.Unlimited() != tt.unlimited {
				t.Errorf("unlimited = %v, want %v", plan.Unlimited(), tt.unlimited)
			}
		})
	}
}

// TestPlanByIDUnknown tests lookup of an id outside the catalog
func TestPlanByIDUnknown(t *testing.T) {
	if _, ok := PlanByID("premium"); ok {
		t.Error("expected unknown plan to miss")
	}
	if _, ok := PlanByID(""); ok {
		t.Error("expected empty plan id to miss")
	}
}

// TestPlansOrdering tests that the catalog lists in price-ascending order
func TestPlansOrdering(t *testing.T) {
	plans := Plans()
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i].Price < plans[i-1].Price {
			t.Errorf("plans out of order: %s (%d) before %s (%d)",
				plans[i-1].ID, plans[i-1].Price, plans[i].ID, plans[i].Price)
		}
	}
}
