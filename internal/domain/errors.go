package domain

import "errors"

// Taxonomia de errores compartida por repositorios, servicios y la capa HTTP.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrValidationFailed       = errors.New("validation failed")
	ErrConcurrentModification = concurrentModificationError{}
)

// concurrentModificationError es un InvalidTransition: otro request avanzo la entrevista primero.
type concurrentModificationError struct{}

func (concurrentModificationError) Error() string {
	return "concurrent modification"
}

func (concurrentModificationError) Is(target error) bool {
	return target == ErrInvalidTransition
}
