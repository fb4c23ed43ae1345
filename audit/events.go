package audit

// Audit event actions. Each constant corresponds to one ext lifecycle
// hook and becomes the Action field of the audit event.
const (
	ActionRequestRegistered = "request.registered"
	ActionRequestCompleted  = "request.completed"
	ActionRequestFailed     = "request.failed"
	ActionRequestCancelled  = "request.cancelled"
	ActionRequestDetached   = "request.detached"
	ActionSenderClosed      = "sender.closed"
)

// Audit event categories group related actions.
const (
	CategoryRequest = "courier.request"
	CategorySender  = "courier.sender"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceRequest = "request"
	ResourceSender  = "sender"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRequestRegistered,
		ActionRequestCompleted,
		ActionRequestFailed,
		ActionRequestCancelled,
		ActionRequestDetached,
		ActionSenderClosed,
	}
}
