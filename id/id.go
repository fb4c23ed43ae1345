// Package id provides process-wide request identifiers for courier.
//
// Request ids come from a single atomic counter: they are unique for the
// process lifetime, strictly increasing in allocation order, and never
// reused. The zero value None is reserved to mean "no request".
package id

import (
	"strconv"
	"sync/atomic"
)

// RequestID identifies one in-flight request. Ids are ordered: a request
// allocated later always has a larger id.
type RequestID int64

// None is the reserved "no request" id. Next never returns it.
const None RequestID = 0

var counter atomic.Int64

// Next allocates a new RequestID. Safe for concurrent use from any
// goroutine; the returned ids are strictly increasing across all callers.
func Next() RequestID {
	return RequestID(counter.Add(1))
}

// IsNone reports whether the id is the reserved "no request" value.
func (r RequestID) IsNone() bool { return r == None }

// String returns the decimal representation of the id.
func (r RequestID) String() string {
	return strconv.FormatInt(int64(r), 10)
}
