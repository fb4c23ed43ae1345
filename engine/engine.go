// Package engine defines the contract between courier and the
// single-threaded RPC engine that actually transmits requests.
//
// An Engine instance is bound permanently to one owner goroutine, modelled
// by Host: every Engine method must be invoked from a closure scheduled on
// the Host, and the Engine delivers responses by invoking ResponseHandlers
// on that same goroutine. The engine package also owns the RPC error type
// and its classification predicates.
package engine

import (
	"time"

	"github.com/xraph/courier/id"
)

// Route selects the target shard/datacenter for a request.
// The zero value means "the sender's default route".
type Route int32

// DefaultRoute is the zero Route, resolved by the sender configuration.
const DefaultRoute Route = 0

// SendOptions carries per-request delivery parameters.
type SendOptions struct {
	// Route is the target shard. Zero means the default route.
	Route Route

	// CanWait is the budget the engine may hold the request before
	// timing out or reassigning it. Zero means the engine default.
	CanWait time.Duration

	// After names a previously issued request that must be delivered
	// to the engine before this one. None means no dependency.
	After id.RequestID
}

// ResponseHandlers is the callback pair an engine invokes when a request
// resolves. Both are called on the owner goroutine, at most once per
// request, and never both for the same request.
//
// Fail reports whether the error was consumed by the caller; returning
// false leaves the error to the engine's own default handling.
type ResponseHandlers struct {
	Done func(rid id.RequestID, body []byte)
	Fail func(rid id.RequestID, err *Error) bool
}

// Engine is the single-threaded RPC execution instance. Implementations
// are not safe for concurrent use: both methods must be called only from
// the owner goroutine (via Host.Schedule), and both are fire-and-forget.
type Engine interface {
	// SendSerialized hands one serialized request to the engine. The
	// engine owns delivery from here on and resolves the request by
	// invoking exactly one of the handlers, on the owner goroutine.
	SendSerialized(rid id.RequestID, payload []byte, handlers ResponseHandlers, opts SendOptions)

	// Cancel drops the request if it is still in flight. Cancelling an
	// unknown or already resolved request is a no-op.
	Cancel(rid id.RequestID)
}
