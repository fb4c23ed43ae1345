package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Error codes an engine reports alongside the machine-readable type.
const (
	// CodeClientSide marks errors synthesized locally, without a server
	// response (parse failures, cancelled transports).
	CodeClientSide int32 = -1000

	// CodeUnauthorized covers auth-key and session errors the engine
	// resolves itself by re-authorizing.
	CodeUnauthorized int32 = 401

	// CodeFlood covers rate-limit errors; the engine's default handling
	// is to back off and retry transparently.
	CodeFlood int32 = 420
)

// floodWaitPrefix is the machine-readable type prefix for rate-limit
// errors carrying a wait hint in seconds, e.g. "FLOOD_WAIT_17".
const floodWaitPrefix = "FLOOD_WAIT_"

// Error is the structured RPC error an engine delivers to fail handlers.
type Error struct {
	// Code is the numeric error class (HTTP-like for server errors,
	// CodeClientSide for local ones).
	Code int32

	// Type is the machine-readable error identifier, e.g. "FLOOD_WAIT_17"
	// or "RESPONSE_PARSE_FAILED".
	Type string

	// Description is the human-readable detail, if any.
	Description string
}

// NewError builds an engine error with the given class, type and detail.
func NewError(code int32, typ, description string) *Error {
	return &Error{Code: code, Type: typ, Description: description}
}

// ClientError builds a locally synthesized error that never crossed the
// wire, such as a response parse failure.
func ClientError(typ, description string) *Error {
	return &Error{Code: CodeClientSide, Type: typ, Description: description}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("engine: %s (%d)", e.Type, e.Code)
	}
	return fmt.Sprintf("engine: %s (%d): %s", e.Type, e.Code, e.Description)
}

// FloodWait returns the wait hint carried by a FLOOD_WAIT_n error type,
// and whether the error carries one.
func (e *Error) FloodWait() (time.Duration, bool) {
	rest, ok := strings.CutPrefix(e.Type, floodWaitPrefix)
	if !ok {
		return 0, false
	}
	seconds, err := strconv.Atoi(rest)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// IsFlood reports whether the error is a rate-limit/flood condition.
func IsFlood(e *Error) bool {
	if e == nil {
		return false
	}
	return e.Code == CodeFlood || strings.HasPrefix(e.Type, floodWaitPrefix)
}

// IsDefaultHandled reports whether the engine's own generic handling
// already covers this error class (re-auth, flood backoff). Fail adapters
// consult this before forwarding an error to the caller.
func IsDefaultHandled(e *Error) bool {
	if e == nil {
		return false
	}
	return e.Code == CodeUnauthorized || e.Code == CodeFlood
}
