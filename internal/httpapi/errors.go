package httpapi

import (
	"errors"
	"net/http"

	"github.com/jamesaphoenix/tx/internal/txerr"
)

var errInvalidLimit = errors.New("limit must be a non-negative integer")
var errPeripheralEndpoint = errors.New("not implemented: peripheral to the core engine")

// statusFor maps the typed errors of spec §7 onto HTTP status codes.
// Propagation follows §6: validation/not-found surface unchanged,
// concurrency errors surface so the caller can pick a different task,
// everything else is a 500 DatabaseError.
func statusFor(err error) int {
	switch err.(type) {
	case *txerr.ValidationError:
		return http.StatusBadRequest
	case *txerr.NotFoundError:
		return http.StatusNotFound
	case *txerr.CircularDependencyError:
		return http.StatusConflict
	case *txerr.AlreadyClaimedError:
		return http.StatusConflict
	case *txerr.MaxRenewalsExceededError:
		return http.StatusConflict
	case *txerr.RegistrationError:
		return http.StatusServiceUnavailable
	case *txerr.OrchestratorError:
		return http.StatusConflict
	case *txerr.DatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeErr(w, statusFor(err), err)
}
