package rule

import "fmt"

// Strength controls how exhaustive an active rule's probing is.
// Ordering: Low < Medium < High < Insane.
type Strength int

const (
	// StrengthLow sends the minimum number of probes.
	StrengthLow Strength = iota

	// StrengthMedium is the default probing level.
	StrengthMedium

	// StrengthHigh sends an extended probe set.
	StrengthHigh

	// StrengthInsane sends every known probe variant.
	StrengthInsane
)

// String returns the strength as a string.
func (s Strength) String() string {
	switch s {
	case StrengthLow:
		return "low"
	case StrengthMedium:
		return "medium"
	case StrengthHigh:
		return "high"
	case StrengthInsane:
		return "insane"
	default:
		return "unknown"
	}
}

// ParseStrength converts a config string into a Strength.
func ParseStrength(s string) (Strength, error) {
	switch s {
	case "low":
		return StrengthLow, nil
	case "medium", "":
		return StrengthMedium, nil
	case "high":
		return StrengthHigh, nil
	case "insane":
		return StrengthInsane, nil
	}
	return StrengthMedium, fmt.Errorf("unknown attack strength %q", s)
}

// Threshold controls how much evidence a rule requires before alerting.
// Ordering: Off < Low < Medium < High. Off disables alerting entirely.
type Threshold int

const (
	// ThresholdOff disables the rule's alerts.
	ThresholdOff Threshold = iota

	// ThresholdLow raises alerts on weak evidence.
	ThresholdLow

	// ThresholdMedium is the default evidence requirement.
	ThresholdMedium

	// ThresholdHigh raises only well-supported alerts.
	ThresholdHigh
)

// String returns the threshold as a string.
func (t Threshold) String() string {
	switch t {
	case ThresholdOff:
		return "off"
	case ThresholdLow:
		return "low"
	case ThresholdMedium:
		return "medium"
	case ThresholdHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseThreshold converts a config string into a Threshold.
func ParseThreshold(s string) (Threshold, error) {
	switch s {
	case "off":
		return ThresholdOff, nil
	case "low":
		return ThresholdLow, nil
	case "medium", "":
		return ThresholdMedium, nil
	case "high":
		return ThresholdHigh, nil
	}
	return ThresholdMedium, fmt.Errorf("unknown alert threshold %q", s)
}
