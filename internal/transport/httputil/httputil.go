package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "quotagate/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// WriteError centralizes domain error translation to HTTP responses.
// The body is always `{error, code}`: a human-readable message plus the
// machine-readable code, which is the only place failure kinds diverge.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		message := domainErr.Message
		if message == "" {
			message = string(domainErr.Code)
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), map[string]string{
			"error": message,
			"code":  DomainCodeToHTTPCode(domainErr.Code),
		})
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
		"code":  DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeMissingCredential, dErrors.CodeInvalidCredential,
		dErrors.CodeCredentialExpired, dErrors.CodeCredentialRevoked:
		return http.StatusUnauthorized
	case dErrors.CodeRateLimitMinute, dErrors.CodeRateLimitDay:
		return http.StatusTooManyRequests
	case dErrors.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the wire codes
// carried in JSON responses.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "NOT_FOUND"
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return "BAD_REQUEST"
	case dErrors.CodeConflict:
		return "CONFLICT"
	case dErrors.CodeUnauthorized:
		return "UNAUTHORIZED"
	case dErrors.CodeMissingCredential:
		return "MISSING_CREDENTIAL"
	case dErrors.CodeInvalidCredential:
		return "INVALID_CREDENTIAL"
	case dErrors.CodeCredentialExpired:
		return "EXPIRED"
	case dErrors.CodeCredentialRevoked:
		return "REVOKED"
	case dErrors.CodeRateLimitMinute:
		return "RATE_LIMIT_MINUTE"
	case dErrors.CodeRateLimitDay:
		return "RATE_LIMIT_DAY"
	case dErrors.CodeStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
