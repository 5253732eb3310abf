package services

// EventPublisher publishes domain events. Publishing is always
// best-effort: failures are logged by callers, never surfaced to clients.
type EventPublisher interface {
	PublishEvent(eventType string, payload map[string]interface{}) error
}
