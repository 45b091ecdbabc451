// Package queue defines message payloads exchanged over the message broker.
package queue

// BookNotifiedEvent is published when a waitlisted student is promoted
// and a copy is reserved for them.  It carries enough information for
// downstream consumers (notification log, mail sender) without querying
// the primary database.
type BookNotifiedEvent struct {
	QueueID    uint64 `json:"queue_id"`
	BookID     uint64 `json:"book_id"`
	BookTitle  string `json:"book_title"`
	StudentID  uint64 `json:"student_id"`
	NotifiedAt string `json:"notified_at"`
	ExpiresAt  string `json:"expires_at"`
}
