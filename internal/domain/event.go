package domain

type EventKind string

const (
	EventMessageCreated EventKind = "message.created"
	EventMessageUpdated EventKind = "message.updated"
	EventMessageDeleted EventKind = "message.deleted"
)

// LedgerEvent describes a change to the message ledger.
type LedgerEvent struct {
	Kind    EventKind
	Message Message
}

type EventPublisher interface {
	Publish(ev LedgerEvent)
}

type NopPublisher struct{}

func (NopPublisher) Publish(LedgerEvent) {}
