package diag

// Severity ranks how serious a diagnostic is.
type Severity uint8

const (
	// SevInfo marks purely informational diagnostics.
	SevInfo Severity = iota
	// SevWarning marks problems the run can proceed past.
	SevWarning
	// SevError marks problems that fail the operation.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
