package patient

import "testing"

// TestNormalizeIdentity tests fragment derivation from raw identity strings
func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantFull     string
		wantFragment string
	}{
		{"with dash and check digit", "12345678-9", "123456789", "678"},
		{"with dots and dash", "12.345.678-9", "123456789", "678"},
		{"digits only", "123456789", "123456789", "678"},
		{"check letter kept in canonical form", "12345678-K", "12345678K", "567"},
		{"lowercase check letter uppercased", "12345678-k", "12345678K", "567"},
		{"surrounding whitespace stripped", "  12345678-9  ", "123456789", "678"},
		{"minimum length", "1234", "1234", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentity(tt.raw)
			if err != nil {
				t.Fatalf("NormalizeIdentity(%q) returned error: %v", tt.raw, err)
			}
			if got.Full != tt.wantFull {
				t.Errorf("Full = %q, want %q", got.Full, tt.wantFull)
			}
			if got.Fragment != tt.wantFragment {
				t.Errorf("Fragment = %q, want %q", got.Fragment, tt.wantFragment)
			}
		})
	}
}

// TestNormalizeIdentityDeterministic tests that equal inputs in different
// formats yield the same fragment
func TestNormalizeIdentityDeterministic(t *testing.T) {
	a, err := NormalizeIdentity("12.345.678-9")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NormalizeIdentity("123456789")
	if err != nil {
		t.Fatal(err)
	}
	if a.Fragment != b.Fragment {
		t.Errorf("formats of the same identity disagree: %q vs %q", a.Fragment, b.Fragment)
	}
}

// TestNormalizeIdentityTooShort tests rejection of identities with fewer
// than 4 digits
func TestNormalizeIdentityTooShort(t *testing.T) {
	for _, raw := range []string{"", "1", "123", "ab-c", "1-2-3"} {
		if _, err := NormalizeIdentity(raw); err == nil {
			t.Errorf("NormalizeIdentity(%q) expected error, got nil", raw)
		}
	}
}

// TestDeriveInitials tests initials derivation
func TestDeriveInitials(t *testing.T) {
	tests := []struct {
		name      string
		firstName string
		lastName  string
		want      string
	}{
		{"both names", "Ana", "Silva", "AS"},
		{"lowercase input", "ana", "silva", "AS"},
		{"missing family name", "Ana", "", "AX"},
		{"whitespace family name", "Ana", "   ", "AX"},
		{"accented given name", "Óscar", "Vidal", "ÓV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveInitials(tt.firstName, tt.lastName); got != tt.want {
				t.Errorf("DeriveInitials(%q, %q) = %q, want %q", tt.firstName, tt.lastName, got, tt.want)
			}
		})
	}
}
