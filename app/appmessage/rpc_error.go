package appmessage

import "fmt"

// RPCErrorKind categorizes the errors reported to query clients.
type RPCErrorKind string

// Error kinds. Busy and NotReady are transient and the request may be
// retried.
const (
	RPCErrorBusy            RPCErrorKind = "busy"
	RPCErrorNotReady        RPCErrorKind = "not_ready"
	RPCErrorNotFound        RPCErrorKind = "not_found"
	RPCErrorInvalidArgument RPCErrorKind = "invalid_argument"
	RPCErrorDatabase        RPCErrorKind = "database"
)

// RPCError represents an error arriving from the query surface
type RPCError struct {
	Kind    RPCErrorKind `json:"kind"`
	Message string       `json:"message"`
}

func (err RPCError) Error() string {
	return err.Message
}

// IsTransient returns whether the request that failed may succeed if retried.
func (err RPCError) IsTransient() bool {
	return err.Kind == RPCErrorBusy || err.Kind == RPCErrorNotReady
}

// RPCErrorf formats according to a format specifier and returns the string
// as an RPCError of the given kind.
func RPCErrorf(kind RPCErrorKind, format string, args ...interface{}) *RPCError {
	return &RPCError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}
