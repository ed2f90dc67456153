package stream

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAvailable is returned when an administrative request is answered
	// with a 503 Status header or an error object with code 503 (spec §7:
	// StreamError.NotAvailable).
	ErrNotAvailable = errors.New("natsline/stream: stream layer not enabled on this server")
	// ErrAPIFailure is the sentinel wrapped by APIError.
	ErrAPIFailure = errors.New("natsline/stream: api failure")
)

// apiErrorResponse is the `{error: {code, description}}` shape any
// administrative response may carry, per spec §4.7.
type apiErrorResponse struct {
	Error *struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// APIError lifts a response's error field into a Go error, spec §7's
// StreamError.ApiFailure.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("natsline/stream: api error %d: %s", e.Code, e.Description)
}

func (e *APIError) Unwrap() error { return ErrAPIFailure }

// NotFound reports whether the error represents a "no such stream/consumer"
// response, the same heuristic spec §4.9 uses to decide whether
// ensure-stream/ensure-consumer should create instead of erroring
// ("description contains 'not found', case-insensitive").
func (e *APIError) NotFound() bool {
	return strings.Contains(strings.ToLower(e.Description), "not found")
}

// AlreadyExists reports whether the error represents a concurrent-create
// race, resolved as success per spec §9's open question.
func (e *APIError) AlreadyExists() bool {
	desc := strings.ToLower(e.Description)
	return strings.Contains(desc, "already") &&
		(strings.Contains(desc, "exist") || strings.Contains(desc, "in use"))
}
