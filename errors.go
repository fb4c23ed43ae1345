package courier

import "errors"

var (
	// ErrNoHost is returned by New when no engine host is supplied.
	ErrNoHost = errors.New("courier: no engine host")

	// ErrNoRunner is returned by New when no runner is supplied.
	ErrNoRunner = errors.New("courier: no runner")
)
