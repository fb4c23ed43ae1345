package courier

import (
	"log/slog"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/ext"
)

// Option configures a Sender.
type Option func(*Sender) error

// WithLogger sets the structured logger for the sender.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) error {
		s.logger = l
		return nil
	}
}

// WithDefaultRoute sets the route used by requests that do not pick one
// explicitly.
func WithDefaultRoute(route engine.Route) Option {
	return func(s *Sender) error {
		s.route = route
		return nil
	}
}

// WithExtension registers a lifecycle extension with the sender.
func WithExtension(e ext.Extension) Option {
	return func(s *Sender) error {
		s.extList = append(s.extList, e)
		return nil
	}
}
