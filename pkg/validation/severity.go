package validation

// Severity classifies a validation finding. The ordering is significant:
// a Result is invalid iff it contains at least one finding with severity
// SeverityError or above.
type Severity int

const (
	// SeverityInfo is a purely informational finding.
	SeverityInfo Severity = iota

	// SeverityWarning indicates a suspicious but acceptable value.
	SeverityWarning

	// SeverityError indicates an invalid value. Any Error finding makes
	// the overall result invalid.
	SeverityError

	// SeverityCritical indicates an invalid value that also suggests the
	// input is unusable for further processing.
	SeverityCritical
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Blocking reports whether a finding of this severity makes a result invalid.
func (s Severity) Blocking() bool {
	return s >= SeverityError
}
