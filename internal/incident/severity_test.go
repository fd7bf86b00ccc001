package incident

import "testing"

// TestClassifySeverity tests the incident type to severity mapping
func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		incidentType string
		want         Severity
	}{
		{"physical_aggression", SeverityHigh},
		{"threats", SeverityHigh},
		{"verbal_aggression", SeverityMedium},
		{"aggressive_behavior", SeverityMedium},
		{"threatened_lawsuit", SeverityMedium},
		{"property_damage", SeverityLow},
		{"other", SeverityLow},
		{"", SeverityLow},
		{"something_never_seen_before", SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.incidentType, func(t *testing.T) {
			if got := ClassifySeverity(tt.incidentType); got != tt.want {
				t.Errorf("ClassifySeverity(%q) = %s, want %s", tt.incidentType, got, tt.want)
			}
		})
	}
}

// TestClassifySeverityNormalizes tests that casing and whitespace do not
// change the classification
func TestClassifySeverityNormalizes(t *testing.T) {
	for _, raw := range []string{"Physical_Aggression", " THREATS ", "physical_aggression"} {
		if got := ClassifySeverity(raw); got != SeverityHigh {
			t.Errorf("ClassifySeverity(%q) = %s, want %s", raw, got, SeverityHigh)
		}
	}
}
