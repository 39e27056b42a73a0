package api

import (
	"errors"
	"net/http"

	"github.com/loopstate/core/internal/domain"
)

// faultStatus maps the §7 fault taxonomy onto HTTP status codes.
func faultStatus(code domain.FaultCode) int {
	switch code {
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeFault renders err as a JSON error, mapping a domain.Fault to its
// taxonomy code and status, or falling back to 500 internal for anything
// else.
func writeFault(w http.ResponseWriter, err error) {
	var f *domain.Fault
	if errors.As(err, &f) {
		writeError(w, faultStatus(f.Code), string(f.Code), f.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, string(domain.CodeInternal), err.Error())
}
