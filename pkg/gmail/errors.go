package gmail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Status tags carried by StatusError. Callers branch on these instead of
// inspecting message text.
const (
	StatusServiceUnavailable = "service_unavailable"
	StatusMissingParameters  = "missing_parameters"
	StatusNotFound           = "not_found"
	StatusFailed             = "failed"
)

// StatusError is the tagged error value returned by every mailbox operation.
// Provider failures are wrapped rather than propagated raw so a calling agent
// can keep its conversation loop alive.
type StatusError struct {
	Status  string
	Field   string // set for missing_parameters: "to", "subject" or "body"
	Message string
}

func (e *StatusError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func serviceUnavailable() *StatusError {
	return &StatusError{
		Status:  StatusServiceUnavailable,
		Message: "Gmail service not initialized, tokens are not valid",
	}
}

func missingParameter(field, message string) *StatusError {
	return &StatusError{Status: StatusMissingParameters, Field: field, Message: message}
}

func failed(format string, args ...any) *StatusError {
	return &StatusError{Status: StatusFailed, Message: fmt.Sprintf(format, args...)}
}

// providerError tags a Gmail API failure for a single message: a 404 means
// the message id does not exist, everything else stays a generic failure.
func providerError(err error, format string) *StatusError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return &StatusError{Status: StatusNotFound, Message: fmt.Sprintf("Message not found: %v", err)}
	}
	return failed(format, err)
}
