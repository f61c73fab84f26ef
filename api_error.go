package railpoint

// APIError is the error body returned by all endpoints.
type APIError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ErrorInvalidRequest returns an APIError for a malformed request
func ErrorInvalidRequest(description string) APIError {
	return APIError{Error: "invalid_request", ErrorDescription: description}
}

// ErrorUnauthorized returns an APIError for missing or bad credentials
func ErrorUnauthorized(description string) APIError {
	return APIError{Error: "invalid_client", ErrorDescription: description}
}

// ErrorForbidden returns an APIError for an authenticated but not
// permitted caller
func ErrorForbidden(description string) APIError {
	return APIError{Error: "forbidden", ErrorDescription: description}
}

// ErrorNotFound returns an APIError for an unknown resource
func ErrorNotFound(description string) APIError {
	return APIError{Error: "not_found", ErrorDescription: description}
}

// ErrorGone returns an APIError for a resource that existed but is
// permanently disabled
func ErrorGone(description string) APIError {
	return APIError{Error: "gone", ErrorDescription: description}
}

// ErrorConflict returns an APIError for a uniqueness conflict
func ErrorConflict(description string) APIError {
	return APIError{Error: "conflict", ErrorDescription: description}
}

// ErrorRateLimited returns an APIError for a throttled caller
func ErrorRateLimited(description string) APIError {
	return APIError{Error: "rate_limited", ErrorDescription: description}
}

// ErrorServerError returns an APIError for an internal failure
func ErrorServerError(description string) APIError {
	return APIError{Error: "server_error", ErrorDescription: description}
}
