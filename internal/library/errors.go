// Package library implements the book allocation ledger and the FIFO
// waitlist with expiring notification windows.  All mutating operations
// run inside a single database transaction and serialise on the book row,
// so two simultaneous requests for the last copy cannot both succeed.
package library

import "errors"

// Error is a rejected operation with a machine-readable code.  Handlers
// translate the code into an HTTP status and return both code and message
// to the caller.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrBookNotFound         = &Error{"BOOK_NOT_FOUND", "book not found"}
	ErrBookUnavailable      = &Error{"BOOK_UNAVAILABLE", "book is not available for allocation"}
	ErrDuplicateISBN        = &Error{"DUPLICATE_ISBN", "a book with this ISBN already exists"}
	ErrHasActiveLoans       = &Error{"HAS_ACTIVE_LOANS", "book has active allocations and cannot be deleted"}
	ErrActiveLoanExists     = &Error{"ACTIVE_LOAN_EXISTS", "you already have a book allocated; return it first"}
	ErrAlreadyQueued        = &Error{"ALREADY_QUEUED", "you are already in the queue for this book"}
	ErrAllocationNotFound   = &Error{"ALLOCATION_NOT_FOUND", "active allocation not found"}
	ErrQueueEntryNotFound   = &Error{"QUEUE_ENTRY_NOT_FOUND", "queue entry not found"}
	ErrNotificationNotFound = &Error{"NOTIFICATION_NOT_FOUND", "notification not found"}
	ErrNotificationExpired  = &Error{"NOTIFICATION_EXPIRED", "notification window has expired"}
)

// Code extracts the machine-readable code from an operation error, or ""
// when the error did not originate in this package.
func Code(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
