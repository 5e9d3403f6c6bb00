// Package errors defines the failure taxonomy shared by every clone step.
//
// Each failure is reported as an *OperationError carrying the operation that
// failed and one of five Kinds. Callers match on the Kind with the standard
// library:
//
//	if errors.Is(err, ghcerrors.KindAuthFailed) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind categorizes a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidURL
	KindAuthFailed
	KindNetwork
	KindPermissionDenied
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown-Error",
	KindInvalidURL:       "Invalid-URL",
	KindAuthFailed:       "Authentication-Failed",
	KindNetwork:          "Network-Error",
	KindPermissionDenied: "Permission-Denied",
}

// String returns the label printed to users, e.g. "Network-Error".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error lets a Kind be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// OperationError represents an error that occurred during a clone step
type OperationError struct {
	Op   string // The operation being performed
	Kind Kind   // Failure category
	Err  error  // The underlying error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// New creates a new OperationError. The Kind is inherited from err when err
// already carries one, otherwise it is KindUnknown.
func New(op string, err error) *OperationError {
	return &OperationError{
		Op:   op,
		Kind: KindOf(err),
		Err:  err,
	}
}

// NewKind creates a new OperationError with an explicit Kind
func NewKind(op string, kind Kind, err error) *OperationError {
	return &OperationError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Is implements error matching for OperationError. An OperationError matches
// another OperationError with the same Op, and a Kind equal to its own.
func (e *OperationError) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *OperationError:
		return e.Op == t.Op
	}
	return false
}

// KindOf returns the Kind of the outermost categorized error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var opErr *OperationError
	if stderrors.As(err, &opErr) {
		return opErr.Kind
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind()
	}

	var kind Kind
	if stderrors.As(err, &kind) {
		return kind
	}

	return KindUnknown
}
