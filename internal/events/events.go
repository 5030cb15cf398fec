// Package events carries ledger change notifications from the write path to
// interested consumers (balance cache, external brokers).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	TypeExpenseCreated  = "expense.created"
	TypeExpenseUpdated  = "expense.updated"
	TypeExpenseDeleted  = "expense.deleted"
	TypeExpenseSettled  = "expense.settled"
	TypeTransferCreated = "transfer.created"
	TypeTransferDeleted = "transfer.deleted"
)

// Event describes one change to the ledger. SourceID is the ID of the
// expense or transfer that changed.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"event_type"`
	SourceID  string    `json:"source_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Data      any       `json:"event_data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds an event with a fresh ID and timestamp.
func New(eventType, sourceID, actorID string, data any) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		SourceID:  sourceID,
		ActorID:   actorID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink consumes events delivered by the bus.
type Sink interface {
	Handle(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}
