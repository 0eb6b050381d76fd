package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "ibanmanager/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// Typed IBAN errors unwrap to *dErrors.Error, so errors.As finds their code.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	return dErrors.StatusHint(code)
}

// DomainCodeToHTTPCode translates domain error codes to the error string in the JSON body.
// IBAN codes pass through unchanged so clients can branch on them.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeInvalidIBAN,
		dErrors.CodeInvalidStatusTransition,
		dErrors.CodeDuplicateIBAN,
		dErrors.CodeIBANNotFound,
		dErrors.CodeAccountNotFound,
		dErrors.CodeUnsupportedCountry,
		dErrors.CodeCurrencyNotAllowed,
		dErrors.CodeIBANAllocationFailed:
		return string(code)
	default:
		return "internal_error"
	}
}
