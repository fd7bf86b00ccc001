package patient

// RiskForIncidentCount computes a patient's risk level from their total
// incident count, including the incident just recorded. The function is
// stateless and recomputed from scratch after every registration; the level
// never decreases in practice because counts never decrease.
func RiskForIncidentCount(count int) RiskLevel {
	switch {
	case count >= 3:
		return RiskHigh
	case count == 2:
		return RiskMedium
	default:
		return RiskLow
	}
}
