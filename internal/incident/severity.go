package incident

import "strings"

// Severity grades a single incident by its type. Distinct from the
// patient risk level, which grades the accumulated history.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ClassifySeverity maps an incident type to its severity. Unknown types
// classify LOW rather than failing: the registry accepts free-form types
// so centers are never blocked from recording an event.
func ClassifySeverity(incidentType string) Severity {
	switch strings.ToLower(strings.TrimSpace(incidentType)) {
	case "physical_aggression", "threats":
		return SeverityHigh
	case "verbal_aggression", "aggressive_behavior", "threatened_lawsuit":
		return SeverityMedium
	default:
		return SeverityLow
	}
}
