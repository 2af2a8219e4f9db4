package alert

// Risk represents the risk level of a finding. The ordering follows the
// numeric scores: Info < Low < Medium < High.
type Risk int

const (
	// RiskInfo represents informational findings with no direct impact.
	RiskInfo Risk = iota

	// RiskLow represents limited impact (verbose errors, minor info leak).
	RiskLow

	// RiskMedium represents moderate impact (reflected XSS, CSRF).
	RiskMedium

	// RiskHigh represents significant impact requiring prompt fix.
	RiskHigh
)

// IsValid reports whether r is a recognized risk level.
func (r Risk) IsValid() bool {
	return r >= RiskInfo && r <= RiskHigh
}

// Score returns a numeric score for sorting and comparison.
func (r Risk) Score() int {
	return int(r)
}

// String returns the risk as a string.
func (r Risk) String() string {
	switch r {
	case RiskInfo:
		return "info"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Confidence represents how certain a rule is about a finding.
// Ordering: Low < Medium < High < Confirmed.
type Confidence int

const (
	// ConfidenceLow indicates weak or circumstantial evidence.
	ConfidenceLow Confidence = iota

	// ConfidenceMedium indicates a plausible but unverified finding.
	ConfidenceMedium

	// ConfidenceHigh indicates strong supporting evidence.
	ConfidenceHigh

	// ConfidenceConfirmed indicates the finding was positively verified,
	// e.g. an unambiguous binary signature match.
	ConfidenceConfirmed
)

// IsValid reports whether c is a recognized confidence level.
func (c Confidence) IsValid() bool {
	return c >= ConfidenceLow && c <= ConfidenceConfirmed
}

// Score returns a numeric score for sorting and comparison.
func (c Confidence) Score() int {
	return int(c)
}

// String returns the confidence as a string.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	case ConfidenceConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}
