package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidResponse = errors.New("invalid backend response")
	ErrInvalidArgument = errors.New("invalid argument")
)

// StatusError is returned for any non-2xx backend reply.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, statusCode int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == statusCode
}

const maxErrorMessageLen = 200

func newStatusError(endpoint string, statusCode int, body []byte) *StatusError {
	return &StatusError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    errorMessage(body),
	}
}

// errorMessage extracts {"error": ...} or {"message": ...} from an error
// body, falling back to the trimmed raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen] + "..."
	}
	return msg
}

func invalidResponse(endpoint, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidResponse, endpoint, reason)
}
