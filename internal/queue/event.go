// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into an audit log.
package queue

import "github.com/transitdesk/busboard/internal/model"

// BookingChangedQueue is the durable queue carrying ledger mutations.
const BookingChangedQueue = "booking.changed"

// BookingChangedEvent is published after every committed ledger
// mutation. It carries the full booking snapshot so downstream consumers
// can log, notify or feed displays without querying the ledger. For
// deletes the snapshot is the state just before removal.
type BookingChangedEvent struct {
	Action     string        `json:"action"` // created, updated, deleted, boarded
	Booking    model.Booking `json:"booking"`
	OccurredAt string        `json:"occurred_at"` // RFC3339 UTC
}
