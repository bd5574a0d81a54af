package diag

import "github.com/mvp-joe/featurescan/internal/source"

// WarningError is a hard failure that still carries a source location, such as
// a fatal parse error. Scanning of the affected document stops.
type WarningError struct {
	Warning Warning
}

// NewWarningError wraps a warning as a returned error.
func NewWarningError(code string, sev Severity, message string, r *source.Range) *WarningError {
	return &WarningError{Warning: Warning{
		Code:        code,
		Severity:    sev,
		Message:     message,
		SourceRange: r,
	}}
}

func (e *WarningError) Error() string {
	return e.Warning.String()
}
