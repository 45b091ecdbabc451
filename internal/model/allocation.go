package model

import "time"

// AllocationStatus enumerates loan lifecycle states.  Overdue is a derived
// display state; rows are only ever written as active or returned.
const (
	AllocationStatusActive   = "active"
	AllocationStatusReturned = "returned"
	AllocationStatusOverdue  = "overdue"
)

// Allocation records a single student's loan of one copy of a book.
// Allocations are append-only history: a return stamps ReturnedAt and
// flips Status, it never deletes the row.  At most one active allocation
// exists per student at any time (global single-loan policy).
//
// Fields:
//  ID          – primary key identifier.
//  BookID      – book being borrowed.
//  StudentID   – borrowing student.
//  AllocatedAt – when the loan started.
//  DueDate     – AllocatedAt plus the fixed loan period.
//  ReturnedAt  – when the copy came back (nil while active).
//  Status      – loan state (active, returned).
type Allocation struct {
	ID          uint64     // allocations.id
	BookID      uint64     // allocations.book_id
	StudentID   uint64     // allocations.student_id
	AllocatedAt time.Time  // allocations.allocated_at
	DueDate     time.Time  // allocations.due_date
	ReturnedAt  *time.Time // allocations.returned_at (nullable)
	Status      string     // allocations.status
}
