package handler

import (
	"errors"
	"net/http"

	"voicebank/errs"
)

// statusFor maps the domain error taxonomy onto HTTP statuses. Client
// faults keep their specific codes; everything else is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrTokenNotFound), errors.Is(err, errs.ErrTokenNotYetValid):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNameTaken):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errs.ErrSelfParent), errors.Is(err, errs.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrCapacity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
