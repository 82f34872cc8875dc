package service

import "fmt"

// InputError is a malformed batch request, rejected before any upstream call
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// InternalError is a defect hit while resolving a user. It aborts the whole
// batch instead of corrupting a single entry.
type InternalError struct {
	Username string
	Cause    interface{}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error resolving %q: %v", e.Username, e.Cause)
}
