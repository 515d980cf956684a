package service

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both genuinely missing entities and entities owned by
// someone else. Ownership failures are deliberately indistinguishable so
// cart/order contents never leak across users.
var ErrNotFound = errors.New("not found")

// ErrConflict marks registration conflicts (already-active account,
// identity collision).
var ErrConflict = errors.New("conflict")

// ErrUnauthorized marks bad or expired credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError is a caller-fixable input problem. Checkout failures
// (empty cart, unavailable product, closed branch) are validation errors
// and leave all prior state untouched.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
