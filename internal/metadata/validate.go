package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
)

// Violation is one problem found in a metadata document.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// ValidationError lists every violation found, in document order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = "  - " + v.String()
	}
	return "metadata validation failed:\n" + strings.Join(lines, "\n")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// metadataValidator returns the shared validator with field names reported
// by their JSON keys.
func metadataValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("schema_version", func(fl validator.FieldLevel) bool {
			return compatibleSchemaVersion(fl.Field().String())
		})
	})
	return validate
}

// compatibleSchemaVersion accepts major.minor.patch versions whose
// major.minor is not newer than the version this package writes. Newer
// patch releases are compatible.
func compatibleSchemaVersion(version string) bool {
	v := "v" + version
	if !semver.IsValid(v) || semver.Canonical(v) != v {
		return false
	}
	return semver.Compare(semver.MajorMinor(v), semver.MajorMinor("v"+SchemaVersion)) <= 0
}

// ValidateElements validates a serialized metadata document. A JSON value of
// the wrong type is reported alongside the schema violations of everything
// else; only malformed JSON stops validation early.
func ValidateElements(data []byte) error {
	var m Metadata
	var decoded []Violation
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return malformed(err.Error())
		}
		decoded = append(decoded, Violation{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		})
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return malformed("unexpected data after the top-level value")
	}

	err := Validate(&m)
	if len(decoded) == 0 {
		return err
	}
	var verr *ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	out := &ValidationError{Violations: decoded}
	if verr != nil {
		for _, v := range verr.Violations {
			// A field that failed to decode is also empty; report it once.
			if !slices.ContainsFunc(decoded, func(d Violation) bool { return d.Field == withoutIndexes(v.Field) }) {
				out.Violations = append(out.Violations, v)
			}
		}
	}
	return out
}

func malformed(msg string) error {
	return &ValidationError{Violations: []Violation{{Message: "malformed JSON: " + msg}}}
}

var indexPattern = regexp.MustCompile(`\[\d+\]`)

// withoutIndexes turns "elements[0].path" into "elements.path", the form
// encoding/json uses for fields of a type error.
func withoutIndexes(field string) string {
	return indexPattern.ReplaceAllString(field, "")
}

// Validate checks a metadata value against the schema rules.
func Validate(v any) error {
	switch v.(type) {
	case *Metadata, Metadata:
	default:
		return fmt.Errorf("cannot validate %T as metadata", v)
	}

	err := metadataValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate metadata: %w", err)
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, Violation{
			Field:   fieldPath(fe),
			Message: violationMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("missing required property %s", fe.Field())
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", fe.Field(), strings.ToLower(fe.Param()))
	case "schema_version":
		return fmt.Sprintf("invalid schema_version %q: expected major.minor.patch no newer than %s", fe.Value(), SchemaVersion)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
