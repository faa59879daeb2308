package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrViewerRequired is returned when an operation needs an authenticated user.
	ErrViewerRequired = errors.New("dashboard: viewer context missing user id")
	// ErrTypeKeyRequired is returned when a catalog entry has no type_key.
	ErrTypeKeyRequired = errors.New("dashboard: type_key is required")
	// ErrWidgetTypeNotFound is returned when deleting a type the catalog does not hold.
	ErrWidgetTypeNotFound = errors.New("dashboard: widget type not found")
	// ErrForbidden is returned when the viewer may not maintain the catalog.
	ErrForbidden = errors.New("dashboard: forbidden")
)

// Load sources reported by LoadError.
const (
	LoadSourceCatalog = "catalog"
	LoadSourceConfig  = "config"
)

// LoadError reports that one of the two dashboard inputs could not be fetched.
// The dashboard is not rendered partially when this happens.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dashboard: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ValidationError reports a payload that failed schema or consistency checks.
type ValidationError struct {
	Subject string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dashboard: invalid %s: %v", e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
