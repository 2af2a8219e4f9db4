package rule

import "testing"

func TestParseStrength(t *testing.T) {
	cases := []struct {
		in      string
		want    Strength
		wantErr bool
	}{
		{"low", StrengthLow, false},
		{"medium", StrengthMedium, false},
		{"", StrengthMedium, false},
		{"high", StrengthHigh, false},
		{"insane", StrengthInsane, false},
		{"extreme", StrengthMedium, true},
		{"Medium", StrengthMedium, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStrength(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseStrength(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseStrength(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		in      string
		want    Threshold
		wantErr bool
	}{
		{"off", ThresholdOff, false},
		{"low", ThresholdLow, false},
		{"", ThresholdMedium, false},
		{"medium", ThresholdMedium, false},
		{"high", ThresholdHigh, false},
		{"paranoid", ThresholdMedium, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseThreshold(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseThreshold(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseThreshold(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTechSetHasAny(t *testing.T) {
	javaOnly := NewTechSet(TechJava)
	if !javaOnly.HasAny([]string{TechJava, TechPHP}) {
		t.Error("overlapping sets must match")
	}
	if javaOnly.HasAny([]string{TechPHP}) {
		t.Error("disjoint sets must not match")
	}
	if !javaOnly.HasAny(nil) {
		t.Error("a rule with no declared technologies runs everywhere")
	}
	if !NewTechSet().HasAny([]string{TechPHP}) {
		t.Error("an unfingerprinted target runs every rule")
	}
}
