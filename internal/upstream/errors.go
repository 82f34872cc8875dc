package upstream

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why a query failed. Every kind is transient from the
// pipeline's point of view; a missing user is reported as NotFound, never as
// an error.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindTimeout
	KindStatus
	KindGraphQL
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindGraphQL:
		return "graphql"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// GraphQLError is one entry of the upstream "errors" array
type GraphQLError struct {
	Message string `json:"message"`
}

// Error is a failed upstream query
type Error struct {
	Operation  string
	Kind       ErrorKind
	StatusCode int
	Messages   []string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s error", e.Operation, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if len(e.Messages) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func messages(errs []GraphQLError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}
