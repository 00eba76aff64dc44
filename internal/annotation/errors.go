package annotation

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every ConfigurationError through errors.Is.
	ErrConfiguration = errors.New("annotation configuration error")
	// ErrCapabilityMissing reports that an instance does not expose a
	// capability an annotation needs. Annotations treat it as a skip.
	ErrCapabilityMissing = errors.New("instance capability missing")
)

// ConfigurationError reports an annotation that is missing a required
// attribute, carries an invalid one, or is attached to a target kind it does
// not support.
type ConfigurationError struct {
	Kind      string
	Target    string
	Attribute string
	Reason    string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("annotation %q", e.Kind)
	if e.Target != "" {
		msg += " on " + e.Target
	}
	if e.Attribute != "" {
		msg += fmt.Sprintf(": attribute %q", e.Attribute)
	}
	return msg + ": " + e.Reason
}

// Is makes errors.Is(err, ErrConfiguration) true for any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Missing builds the error for an absent required attribute.
func Missing(kind, target, attr string) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Target: target, Attribute: attr, Reason: "required attribute is missing"}
}

// Misplaced builds the error for an annotation applied to the wrong target kind.
func Misplaced(a Annotation, got Target, target string) *ConfigurationError {
	return &ConfigurationError{
		Kind:   a.Kind(),
		Target: target,
		Reason: fmt.Sprintf("supports %s targets, found on a %s", a.Target(), got),
	}
}
