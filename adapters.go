package courier

import (
	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/id"
)

// FailSkipPolicy controls which error classes are suppressed before a
// request's fail handler is reached. It is consulted on the owner
// goroutine, before anything hops back to the caller.
type FailSkipPolicy int

const (
	// FailSkipDefault leaves every generically handled error (re-auth,
	// flood backoff) to the engine; the caller is never notified of them.
	FailSkipDefault FailSkipPolicy = iota

	// FailSkipHandleFlood behaves like FailSkipDefault except that
	// flood/rate-limit errors are always escalated to the caller.
	FailSkipHandleFlood
)

// doneAdapter binds one request's success path to the engine callback
// contract. The engine owns it for the duration of the request's flight.
type doneAdapter struct {
	sender *Sender
	runner Runner
}

// handle is invoked by the engine on the owner goroutine, exactly once
// per successfully resolved request. The body slice may alias a transient
// engine buffer, so it is copied before leaving the owner goroutine.
func (a *doneAdapter) handle(rid id.RequestID, body []byte) {
	owned := make([]byte, len(body))
	copy(owned, body)

	s := a.sender
	a.runner(func() {
		if s.isAlive() {
			s.complete(rid, owned)
		}
	})
}

// failAdapter binds one request's failure path to the engine callback
// contract, applying the request's FailSkipPolicy before any hand-off.
type failAdapter struct {
	sender *Sender
	runner Runner
	policy FailSkipPolicy
}

// handle is invoked by the engine on the owner goroutine. It returns
// whether the error was consumed by the caller; false hands it back to
// the engine's own default handling.
func (a *failAdapter) handle(rid id.RequestID, rpcErr *engine.Error) bool {
	switch a.policy {
	case FailSkipDefault:
		if engine.IsDefaultHandled(rpcErr) {
			return false
		}
	case FailSkipHandleFlood:
		if engine.IsDefaultHandled(rpcErr) && !engine.IsFlood(rpcErr) {
			return false
		}
	}

	s := a.sender
	a.runner(func() {
		if s.isAlive() {
			s.fail(rid, rpcErr)
		}
	})
	return true
}
