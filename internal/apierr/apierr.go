// Package apierr carries an HTTP status and a stable machine-readable code
// across the service boundary, so handlers can shape the response without
// services importing gin.
package apierr

import "fmt"

// Error wraps a service failure with the status and code the handler should
// respond with. Code is what clients switch on; Err keeps the underlying
// cause reachable through errors.Is/As.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
