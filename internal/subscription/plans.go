package subscription

// UnlimitedRecords marks plans with no monthly registration cap.
const UnlimitedRecords = -1

// Plan describes a purchasable subscription tier. Prices are stored in
// the smallest currency unit.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	DurationDays int    `json:"duration_days"`
	RecordLimit  int    `json:"record_limit"`
}

// Unlimited reports whether the plan has no registration cap
func (p Plan) Unlimited() bool {
	return p.RecordLimit == UnlimitedRecords
}

// planOrder keeps catalog listings in a stable, price-ascending order.
var planOrder = []string{"basico", "profesional", "empresa"}

var catalog = map[string]Plan{
	"basico": {
		ID:           "basico",
		Name:         "Plan Básico",
		Price:        9990,
		DurationDays: 30,
		RecordLimit:  50,
	},
	"profesional": {
		ID:           "profesional",
		Name:         "Plan Profesional",
		Price:        19990,
		DurationDays: 30,
		RecordLimit:  UnlimitedRecords,
	},
	"empresa": {
		ID:           "empresa",
		Name:         "Plan Empresa",
		Price:        49990,
		DurationDays: 30,
		RecordLimit:  UnlimitedRecords,
	},
}

// PlanByID looks up a plan in the catalog
func PlanByID(id string) (Plan, bool) {
	p, ok := catalog[id]
	return p, ok
}

// Plans returns the catalog as a stable ordered list
func Plans() []Plan {
	out := make([]Plan, 0, len(planOrder))
	for _, id := range planOrder {
		out = append(out, catalog[id])
	}
	return out
}
