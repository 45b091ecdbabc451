package library

import (
	"context"
	"database/sql"
	"time"

	"github.com/ssaraswat/campus-services/internal/model"
)

// Store is the persistence surface the service needs.  Every method runs
// within the transaction passed to it; lookups return (nil, nil) when no
// row matches.  The production implementation is repository.LibraryRepo.
type Store interface {
	// Catalog.
	BookByISBN(ctx context.Context, tx *sql.Tx, isbn string) (*model.Book, error)
	InsertBook(ctx context.Context, tx *sql.Tx, b *model.Book) error
	// BookForUpdate loads the book row with an exclusive row lock.  All
	// mutating operations acquire this lock first, which serialises
	// allocation, return and queue traffic per book.
	BookForUpdate(ctx context.Context, tx *sql.Tx, id uint64) (*model.Book, error)
	UpdateBookRow(ctx context.Context, tx *sql.Tx, b *model.Book) error
	DeleteBookRow(ctx context.Context, tx *sql.Tx, id uint64) error
	CountActiveAllocations(ctx context.Context, tx *sql.Tx, bookID uint64) (uint32, error)
	CountReservedNotifications(ctx context.Context, tx *sql.Tx, bookID uint64) (uint32, error)

	// Ledger.
	ActiveAllocationForStudent(ctx context.Context, tx *sql.Tx, studentID uint64) (*model.Allocation, error)
	AllocationByID(ctx context.Context, tx *sql.Tx, id uint64) (*model.Allocation, error)
	InsertAllocation(ctx context.Context, tx *sql.Tx, a *model.Allocation) error
	// MarkAllocationReturned flips an active allocation to returned and
	// reports whether a row was actually updated, guarding against a
	// concurrent return of the same allocation.
	MarkAllocationReturned(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) (bool, error)

	// Waitlist.
	// OpenEntryForStudent finds the student's waiting or notified entry
	// for the book; both states block a second enqueue.
	OpenEntryForStudent(ctx context.Context, tx *sql.Tx, bookID, studentID uint64) (*model.QueueEntry, error)
	CountWaiting(ctx context.Context, tx *sql.Tx, bookID uint64) (uint32, error)
	InsertQueueEntry(ctx context.Context, tx *sql.Tx, e *model.QueueEntry) error
	QueueEntryByID(ctx context.Context, tx *sql.Tx, id uint64) (*model.QueueEntry, error)
	// DeleteQueueEntry removes a waiting entry and reports whether a row
	// was deleted; entries in any other state are left untouched.
	DeleteQueueEntry(ctx context.Context, tx *sql.Tx, id uint64) (bool, error)
	NextWaitingEntry(ctx context.Context, tx *sql.Tx, bookID uint64) (*model.QueueEntry, error)
	MarkEntryNotified(ctx context.Context, tx *sql.Tx, id uint64, notifiedAt, expiresAt time.Time) error
	MarkEntryFulfilled(ctx context.Context, tx *sql.Tx, id uint64) error
	MarkEntryExpired(ctx context.Context, tx *sql.Tx, id uint64) error
	// ShiftWaitingPositions decrements the position of every waiting
	// entry of the book with a position greater than afterPosition,
	// keeping the waiting sequence dense (1..N).
	ShiftWaitingPositions(ctx context.Context, tx *sql.Tx, bookID uint64, afterPosition uint32) error
	// LapsedNotifications returns notified entries whose window ended at
	// or before cutoff.  bookID 0 scans all books (used by the sweeper).
	LapsedNotifications(ctx context.Context, tx *sql.Tx, bookID uint64, cutoff time.Time) ([]model.QueueEntry, error)
}

// Notifier receives promotion events after the surrounding transaction has
// committed.  Implementations must not block the request for long; the
// AMQP publisher logs and swallows its own failures.
type Notifier interface {
	QueuePromoted(ctx context.Context, ev PromotionEvent)
}

// PromotionEvent describes one queue entry moving to notified.
type PromotionEvent struct {
	QueueID   uint64
	BookID    uint64
	BookTitle string
	StudentID uint64
	ExpiresAt time.Time
}

// Service coordinates catalog, ledger and waitlist state.  It is the only
// writer of copy counts outside of admin catalog edits, and the single
// entry point for the return/reallocation sequence.
type Service struct {
	db           *sql.DB
	store        Store
	notifier     Notifier
	loanPeriod   time.Duration
	notifyWindow time.Duration
	now          func() time.Time
}

// New constructs a Service.  notifier may be nil when no broker is
// configured.  loanPeriod is how long an allocation runs before its due
// date; notifyWindow is how long a promoted student has to accept.
func New(db *sql.DB, store Store, notifier Notifier, loanPeriod, notifyWindow time.Duration) *Service {
	if store == nil {
		panic("nil store passed to library.New")
	}
	return &Service{
		db:           db,
		store:        store,
		notifier:     notifier,
		loanPeriod:   loanPeriod,
		notifyWindow: notifyWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// withTx runs fn inside a transaction.  With a nil db (unit tests against
// an in-memory store) fn runs directly with a nil tx.
func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Service) publish(ctx context.Context, promos []PromotionEvent) {
	if s.notifier == nil {
		return
	}
	for _, ev := range promos {
		s.notifier.QueuePromoted(ctx, ev)
	}
}

// ----- Catalog -----

// AddBookInput carries the fields of a new catalog record.
type AddBookInput struct {
	Title       string
	Author      string
	ISBN        string
	Description *string
	Category    *string
	TotalCopies uint32
	AddedByID   uint64
}

// AddBook creates a catalog record with all copies available.  It fails
// with ErrDuplicateISBN when the ISBN is already present.
func (s *Service) AddBook(ctx context.Context, in AddBookInput) (*model.Book, error) {
	if in.TotalCopies == 0 {
		in.TotalCopies = 1
	}
	b := &model.Book{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Description:     in.Description,
		Category:        in.Category,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		Status:          model.BookStatusAvailable,
		AddedByID:       in.AddedByID,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.store.BookByISBN(ctx, tx, in.ISBN)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateISBN
		}
		return s.store.InsertBook(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBookInput holds optional catalog updates; nil fields are left
// unchanged.
type UpdateBookInput struct {
	Title       *string
	Author      *string
	Description *string
	Category    *string
	TotalCopies *uint32
	Status      *string
}

// UpdateBook applies a partial catalog update.  When the copy count
// changes, available copies are recomputed from the live loan and
// reservation counts so the 0 <= available <= total invariant survives
// shrinking the inventory under active loans.
func (s *Service) UpdateBook(ctx context.Context, id uint64, in UpdateBookInput) (*model.Book, error) {
	var updated *model.Book
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := s.store.BookForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookNotFound
		}
		if in.Title != nil {
			b.Title = *in.Title
		}
		if in.Author != nil {
			b.Author = *in.Author
		}
		if in.Description != nil {
			b.Description = in.Description
		}
		if in.Category != nil {
			b.Category = in.Category
		}
		if in.Status != nil {
			b.Status = *in.Status
		}
		if in.TotalCopies != nil {
			b.TotalCopies = *in.TotalCopies
			active, err := s.store.CountActiveAllocations(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			reserved, err := s.store.CountReservedNotifications(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			taken := active + reserved
			if taken >= b.TotalCopies {
				b.AvailableCopies = 0
			} else {
				b.AvailableCopies = b.TotalCopies - taken
			}
		}
		if err := s.store.UpdateBookRow(ctx, tx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBook removes a catalog record.  It fails with ErrHasActiveLoans
// while any allocation of the book is still active.
func (s *Service) DeleteBook(ctx context.Context, id uint64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := s.store.BookForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookNotFound
		}
		active, err := s.store.CountActiveAllocations(ctx, tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrHasActiveLoans
		}
		return s.store.DeleteBookRow(ctx, tx, id)
	})
}

// ----- Ledger and waitlist -----

// RequestResult is the outcome of a student allocation request: either an
// immediate allocation or a queue placement.
type RequestResult struct {
	Status     string // "allocated" or "queued"
	Allocation *model.Allocation
	Entry      *model.QueueEntry
}

// RequestAllocation grants a copy of the book to the student, or places
// the student on the book's waitlist when no copy is free.  A student with
// an active loan anywhere is rejected (single-loan policy), as is a
// student already waiting for this book.
func (s *Service) RequestAllocation(ctx context.Context, bookID, studentID uint64) (*RequestResult, error) {
	var (
		res    RequestResult
		promos []PromotionEvent
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := s.store.BookForUpdate(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookNotFound
		}
		if err := s.expireLapsed(ctx, tx, b, &promos); err != nil {
			return err
		}
		if b.Status != model.BookStatusAvailable {
			return ErrBookUnavailable
		}
		active, err := s.store.ActiveAllocationForStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrActiveLoanExists
		}
		open, err := s.store.OpenEntryForStudent(ctx, tx, bookID, studentID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrAlreadyQueued
		}
		now := s.now()
		if b.AvailableCopies > 0 {
			b.AvailableCopies--
			if err := s.store.UpdateBookRow(ctx, tx, b); err != nil {
				return err
			}
			a := &model.Allocation{
				BookID:      bookID,
				StudentID:   studentID,
				AllocatedAt: now,
				DueDate:     now.Add(s.loanPeriod),
				Status:      model.AllocationStatusActive,
			}
			if err := s.store.InsertAllocation(ctx, tx, a); err != nil {
				return err
			}
			res = RequestResult{Status: "allocated", Allocation: a}
			return nil
		}
		count, err := s.store.CountWaiting(ctx, tx, bookID)
		if err != nil {
			return err
		}
		e := &model.QueueEntry{
			BookID:      bookID,
			StudentID:   studentID,
			Position:    count + 1,
			Status:      model.QueueStatusWaiting,
			RequestedAt: now,
		}
		if err := s.store.InsertQueueEntry(ctx, tx, e); err != nil {
			return err
		}
		res = RequestResult{Status: "queued", Entry: e}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, promos)
	return &res, nil
}

// ReturnResult reports what happened after a return was recorded.
type ReturnResult struct {
	NextStudentNotified bool
}

// Return marks an active allocation returned and hands the freed copy to
// the head of the waitlist, all in one transaction.  studentID scopes the
// lookup for self-service returns; pass 0 for the admin variant.
func (s *Service) Return(ctx context.Context, allocationID, studentID uint64) (*ReturnResult, error) {
	var (
		res    ReturnResult
		promos []PromotionEvent
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := s.store.AllocationByID(ctx, tx, allocationID)
		if err != nil {
			return err
		}
		if a == nil || a.Status != model.AllocationStatusActive {
			return ErrAllocationNotFound
		}
		if studentID != 0 && a.StudentID != studentID {
			return ErrAllocationNotFound
		}
		b, err := s.store.BookForUpdate(ctx, tx, a.BookID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookNotFound
		}
		ok, err := s.store.MarkAllocationReturned(ctx, tx, a.ID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrAllocationNotFound
		}
		if err := s.expireLapsed(ctx, tx, b, &promos); err != nil {
			return err
		}
		promoted, err := s.releaseCopy(ctx, tx, b, &promos)
		if err != nil {
			return err
		}
		res.NextStudentNotified = promoted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, promos)
	return &res, nil
}

// CancelQueue removes the student's waiting entry and renumbers every
// later waiting entry of the book down by one, keeping positions dense.
func (s *Service) CancelQueue(ctx context.Context, queueID, studentID uint64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.store.QueueEntryByID(ctx, tx, queueID)
		if err != nil {
			return err
		}
		if e == nil || e.StudentID != studentID || e.Status != model.QueueStatusWaiting {
			return ErrQueueEntryNotFound
		}
		b, err := s.store.BookForUpdate(ctx, tx, e.BookID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookNotFound
		}
		ok, err := s.store.DeleteQueueEntry(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrQueueEntryNotFound
		}
		return s.store.ShiftWaitingPositions(ctx, tx, e.BookID, e.Position)
	})
}

// AcceptNotification converts a notified queue entry into an allocation.
// The reserved copy was already taken out of AvailableCopies at promotion
// time, so acceptance only writes the allocation and closes the entry.
// An entry past its window is transitioned to expired and the copy is
// immediately offered to the next waiter.
func (s *Service) AcceptNotification(ctx context.Context, queueID, studentID uint64) (*model.Allocation, error) {
	var (
		alloc  *model.Allocation
		lapsed bool
		promos []PromotionEvent
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.store.QueueEntryByID(ctx, tx, queueID)
		if err != nil {
			return err
		}
		if e == nil || e.StudentID != studentID || e.Status != model.QueueStatusNotified {
			return ErrNotificationNotFound
		}
		b, err := s.store.BookForUpdate(ctx, tx, e.BookID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookNotFound
		}
		now := s.now()
		if e.ExpiresAt != nil && now.After(*e.ExpiresAt) {
			// Record the expiry and the onward offer, then commit;
			// the rejection is reported after the commit so the
			// state change is not rolled back with it.
			if err := s.store.MarkEntryExpired(ctx, tx, e.ID); err != nil {
				return err
			}
			if _, err := s.releaseCopy(ctx, tx, b, &promos); err != nil {
				return err
			}
			lapsed = true
			return nil
		}
		active, err := s.store.ActiveAllocationForStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrActiveLoanExists
		}
		if err := s.store.MarkEntryFulfilled(ctx, tx, e.ID); err != nil {
			return err
		}
		a := &model.Allocation{
			BookID:      e.BookID,
			StudentID:   studentID,
			AllocatedAt: now,
			DueDate:     now.Add(s.loanPeriod),
			Status:      model.AllocationStatusActive,
		}
		if err := s.store.InsertAllocation(ctx, tx, a); err != nil {
			return err
		}
		alloc = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, promos)
	if lapsed {
		return nil, ErrNotificationExpired
	}
	return alloc, nil
}

// Sweep expires every lapsed notification across all books and hands each
// reserved copy to the next waiter.  It returns the number of entries
// expired.  The HTTP handlers also expire lazily per book, so the sweeper
// is a safety net for idle books rather than a correctness requirement.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	var (
		expired int
		promos  []PromotionEvent
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		lapsed, err := s.store.LapsedNotifications(ctx, tx, 0, s.now())
		if err != nil {
			return err
		}
		for _, e := range lapsed {
			b, err := s.store.BookForUpdate(ctx, tx, e.BookID)
			if err != nil {
				return err
			}
			if b == nil {
				continue
			}
			// Re-read under the book lock; another request may have
			// expired or fulfilled the entry in the meantime.
			cur, err := s.store.QueueEntryByID(ctx, tx, e.ID)
			if err != nil {
				return err
			}
			if cur == nil || cur.Status != model.QueueStatusNotified {
				continue
			}
			if cur.ExpiresAt != nil && !s.now().After(*cur.ExpiresAt) {
				continue
			}
			if err := s.store.MarkEntryExpired(ctx, tx, cur.ID); err != nil {
				return err
			}
			if _, err := s.releaseCopy(ctx, tx, b, &promos); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, promos)
	return expired, nil
}

// expireLapsed lazily expires this book's overdue notifications before any
// availability decision is made, re-offering each reserved copy onward.
func (s *Service) expireLapsed(ctx context.Context, tx *sql.Tx, b *model.Book, promos *[]PromotionEvent) error {
	lapsed, err := s.store.LapsedNotifications(ctx, tx, b.ID, s.now())
	if err != nil {
		return err
	}
	for _, e := range lapsed {
		if err := s.store.MarkEntryExpired(ctx, tx, e.ID); err != nil {
			return err
		}
		if _, err := s.releaseCopy(ctx, tx, b, promos); err != nil {
			return err
		}
	}
	return nil
}

// releaseCopy hands one freed copy onward.  When a waiter exists the copy
// is reserved for them: the entry becomes notified with a fresh window,
// the waiting sequence is renumbered, and AvailableCopies stays put.
// Without waiters the copy goes back into AvailableCopies.  Reports
// whether a promotion happened.
func (s *Service) releaseCopy(ctx context.Context, tx *sql.Tx, b *model.Book, promos *[]PromotionEvent) (bool, error) {
	next, err := s.store.NextWaitingEntry(ctx, tx, b.ID)
	if err != nil {
		return false, err
	}
	if next == nil {
		if b.AvailableCopies < b.TotalCopies {
			b.AvailableCopies++
		}
		return false, s.store.UpdateBookRow(ctx, tx, b)
	}
	now := s.now()
	expiresAt := now.Add(s.notifyWindow)
	if err := s.store.MarkEntryNotified(ctx, tx, next.ID, now, expiresAt); err != nil {
		return false, err
	}
	if err := s.store.ShiftWaitingPositions(ctx, tx, b.ID, next.Position); err != nil {
		return false, err
	}
	*promos = append(*promos, PromotionEvent{
		QueueID:   next.ID,
		BookID:    b.ID,
		BookTitle: b.Title,
		StudentID: next.StudentID,
		ExpiresAt: expiresAt,
	})
	return true, nil
}
