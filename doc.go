// Package courier provides a concurrent sender for a single-threaded RPC
// engine. Arbitrary goroutines issue fire-and-forget requests; the engine
// lives permanently on one owner goroutine; completion and failure
// callbacks come back through a caller-supplied runner, never from the
// owner goroutine.
//
// Courier is designed as a library, not a service. Construct a Sender
// with the engine host and the runner that delivers continuations onto
// your execution context, then issue requests through the builder.
//
// # Quick Start
//
//	s, err := courier.New(host, myLoop.Post)
//	rid := s.Request(payload).
//	    To(2).
//	    Done(func(rid id.RequestID, body []byte) error {
//	        return decode(body)
//	    }).
//	    Fail(func(rid id.RequestID, err *engine.Error) bool {
//	        log.Print(err)
//	        return true
//	    }).
//	    Send()
//
// # Architecture
//
// The Sender owns a pending-request map and is its only mutator.
// Registration happens synchronously on the caller goroutine before the
// request crosses into the owner goroutine, so a response can never
// arrive before its handlers exist. Response adapters bound to the engine
// capture the raw result on the owner goroutine, hop through the runner,
// and deliver into the Sender only if it is still alive — a destroyed
// Sender silently absorbs late responses.
//
// A caller observes Done exactly once, or Fail exactly once, or neither
// (when the request was cancelled or detached first) — never both and
// never more than once.
package courier
