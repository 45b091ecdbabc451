package model

import "time"

// QueueStatus enumerates waitlist entry states.  The supported transitions
// are waiting -> notified -> fulfilled|expired; a waiting entry may also be
// removed outright when the student cancels.
const (
	QueueStatusWaiting   = "waiting"
	QueueStatusNotified  = "notified"
	QueueStatusExpired   = "expired"
	QueueStatusFulfilled = "fulfilled"
)

// QueueEntry is a student's place in the FIFO waitlist of a book with no
// free copies.  Positions among the waiting entries of a book always form
// the dense sequence 1..N: whenever an entry leaves the waiting set
// (cancelled, promoted) every later position is decremented by one.
//
// When an entry is promoted to notified, the freed copy is reserved for
// that student until ExpiresAt; the reservation is released if the window
// lapses without acceptance.
//
// Fields:
//  ID          – primary key identifier.
//  BookID      – book being waited for.
//  StudentID   – waiting student.
//  Position    – FIFO position among waiting entries (1-based).
//  Status      – entry state (waiting, notified, expired, fulfilled).
//  RequestedAt – when the student joined the queue.
//  NotifiedAt  – when the entry was promoted (nil while waiting).
//  ExpiresAt   – end of the notification window (nil while waiting).
type QueueEntry struct {
	ID          uint64     // queue_entries.id
	BookID      uint64     // queue_entries.book_id
	StudentID   uint64     // queue_entries.student_id
	Position    uint32     // queue_entries.position
	Status      string     // queue_entries.status
	RequestedAt time.Time  // queue_entries.requested_at
	NotifiedAt  *time.Time // queue_entries.notified_at (nullable)
	ExpiresAt   *time.Time // queue_entries.expires_at (nullable)
}
