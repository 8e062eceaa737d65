package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")

	ErrEmptySequence    = errors.New("seed sequence is empty")
	ErrGenerationFailed = errors.New("generation failed")
	ErrDeliveryFailed   = errors.New("delivery failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsEmptySequence(err error) bool {
	return errors.Is(err, ErrEmptySequence)
}
