package diag

import (
	"fmt"

	"github.com/mvp-joe/featurescan/internal/source"
)

// Severity defines the importance of a warning.
type Severity uint8

const (
	// SeverityInfo is for informational warnings.
	SeverityInfo Severity = iota
	// SeverityWarning is for problems that do not prevent use of a feature.
	SeverityWarning
	// SeverityError is for problems that make a feature unreliable.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity maps a case-sensitive severity name back to its value.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "info", "INFO":
		return SeverityInfo, true
	case "warning", "WARNING":
		return SeverityWarning, true
	case "error", "ERROR":
		return SeverityError, true
	}
	return 0, false
}

// Warning codes produced by the scanners and the resolver.
const (
	CodeParseError                    = "parse-error"
	CodeCouldNotDetermineBehaviorName = "could-not-determine-behavior-name"
	CodeInvalidBehaviorsDeclaration   = "invalid-behaviors-declaration"
	CodeInvalidPropertiesDeclaration  = "invalid-properties-declaration"
	CodeInvalidObserversDeclaration   = "invalid-observers-declaration"
	CodeInvalidListenersDeclaration   = "invalid-listeners-declaration"
	CodeInvalidTagName                = "invalid-tag-name"
	CodeInvalidPropertyObserver       = "invalid-property-observer"
	CodeCouldNotDetermineType         = "could-not-determine-type"
	CodeUnresolvableBehavior          = "unresolvable-behavior-reference"
	CodeUnresolvableMixin             = "unresolvable-mixin-reference"
	CodeCyclicBehaviorReference       = "cyclic-behavior-reference"
	CodeCyclicMixinReference          = "cyclic-mixin-reference"
	CodeCouldNotLoad                  = "could-not-load"
	CodeMissingSourceRange            = "missing-source-range"
	CodeSkippedDeclaration            = "skipped-declaration"
)

// Warning is a non-fatal diagnostic attached to a feature or a document.
type Warning struct {
	Code        string        `json:"code"`
	Severity    Severity      `json:"severity"`
	Message     string        `json:"message"`
	SourceRange *source.Range `json:"sourceRange,omitempty"`
}

func (w Warning) String() string {
	if w.SourceRange == nil {
		return fmt.Sprintf("%s [%s] %s", w.Severity, w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s [%s] %s", w.SourceRange, w.Severity, w.Code, w.Message)
}

// Collector accumulates warnings in the order they are reported.
type Collector struct {
	items []Warning
}

// Add appends a warning.
func (c *Collector) Add(w Warning) {
	c.items = append(c.items, w)
}

// Addf appends a warning built from a format string.
func (c *Collector) Addf(code string, sev Severity, r *source.Range, format string, args ...any) {
	c.Add(Warning{
		Code:        code,
		Severity:    sev,
		Message:     fmt.Sprintf(format, args...),
		SourceRange: r,
	})
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	return len(c.items)
}

// Items returns a copy of the collected warnings.
func (c *Collector) Items() []Warning {
	if len(c.items) == 0 {
		return nil
	}
	out := make([]Warning, len(c.items))
	copy(out, c.items)
	return out
}

// Filter returns the warnings at or above min.
func Filter(warnings []Warning, min Severity) []Warning {
	var out []Warning
	for _, w := range warnings {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// MarshalText renders the severity by name in serialized output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("unknown severity %q", text)
	}
	*s = sev
	return nil
}
