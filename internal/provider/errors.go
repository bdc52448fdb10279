package provider

import "fmt"

// AuthError reports that no usable credential exists or that
// re-authentication itself failed. It is terminal for the current call.
type AuthError struct {
	// Op is the operation that failed (e.g. "call", "refresh").
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("auth %s: authentication failed", e.Op)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// InteractionRequiredError reports that silent token acquisition is
// insufficient and an interactive flow is needed. It triggers exactly one
// interactive attempt, never a loop.
type InteractionRequiredError struct {
	Err error
}

func (e *InteractionRequiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interaction required: %v", e.Err)
	}
	return "interaction required"
}

func (e *InteractionRequiredError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a 404 from the provider: semantically success for a
// delete, a stale-reference signal for update and single fetch.
type NotFoundError struct {
	// Endpoint is the request path that returned 404.
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Endpoint)
}

// RemoteError is any other non-2xx provider response. It is not retried at
// the client layer.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("provider %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TimeFormatError is raised locally when event time fields fail validation
// before a mutation is sent. It never reaches the network.
type TimeFormatError struct {
	// Field names the offending field ("startTime", "endTime").
	Field string

	// Value is the rejected input.
	Value string

	// Err is the parse error, if any.
	Err error
}

func (e *TimeFormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("time format error: %s is missing", e.Field)
	}
	return fmt.Sprintf("time format error: %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *TimeFormatError) Unwrap() error {
	return e.Err
}
