package library

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssaraswat/campus-services/internal/model"
)

// memStore is an in-memory Store used to exercise the service logic
// without a database.  A Service constructed with a nil db runs every
// operation with a nil tx, so the tx argument is ignored throughout.
type memStore struct {
	books   map[uint64]*model.Book
	allocs  map[uint64]*model.Allocation
	entries map[uint64]*model.QueueEntry
	nextID  uint64
}

func newMemStore() *memStore {
	return &memStore{
		books:   map[uint64]*model.Book{},
		allocs:  map[uint64]*model.Allocation{},
		entries: map[uint64]*model.QueueEntry{},
	}
}

func (m *memStore) id() uint64 { m.nextID++; return m.nextID }

func (m *memStore) BookByISBN(_ context.Context, _ *sql.Tx, isbn string) (*model.Book, error) {
	for _, b := range m.books {
		if b.ISBN == isbn {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertBook(_ context.Context, _ *sql.Tx, b *model.Book) error {
	b.ID = m.id()
	c := *b
	m.books[b.ID] = &c
	return nil
}

func (m *memStore) BookForUpdate(_ context.Context, _ *sql.Tx, id uint64) (*model.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (m *memStore) UpdateBookRow(_ context.Context, _ *sql.Tx, b *model.Book) error {
	c := *b
	m.books[b.ID] = &c
	return nil
}

func (m *memStore) DeleteBookRow(_ context.Context, _ *sql.Tx, id uint64) error {
	delete(m.books, id)
	return nil
}

func (m *memStore) CountActiveAllocations(_ context.Context, _ *sql.Tx, bookID uint64) (uint32, error) {
	var n uint32
	for _, a := range m.allocs {
		if a.BookID == bookID && a.Status == model.AllocationStatusActive {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountReservedNotifications(_ context.Context, _ *sql.Tx, bookID uint64) (uint32, error) {
	var n uint32
	for _, e := range m.entries {
		if e.BookID == bookID && e.Status == model.QueueStatusNotified {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ActiveAllocationForStudent(_ context.Context, _ *sql.Tx, studentID uint64) (*model.Allocation, error) {
	for _, a := range m.allocs {
		if a.StudentID == studentID && a.Status == model.AllocationStatusActive {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) AllocationByID(_ context.Context, _ *sql.Tx, id uint64) (*model.Allocation, error) {
	a, ok := m.allocs[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (m *memStore) InsertAllocation(_ context.Context, _ *sql.Tx, a *model.Allocation) error {
	a.ID = m.id()
	c := *a
	m.allocs[a.ID] = &c
	return nil
}

func (m *memStore) MarkAllocationReturned(_ context.Context, _ *sql.Tx, id uint64, at time.Time) (bool, error) {
	a, ok := m.allocs[id]
	if !ok || a.Status != model.AllocationStatusActive {
		return false, nil
	}
	a.Status = model.AllocationStatusReturned
	t := at
	a.ReturnedAt = &t
	return true, nil
}

func (m *memStore) OpenEntryForStudent(_ context.Context, _ *sql.Tx, bookID, studentID uint64) (*model.QueueEntry, error) {
	for _, e := range m.entries {
		if e.BookID != bookID || e.StudentID != studentID {
			continue
		}
		if e.Status == model.QueueStatusWaiting || e.Status == model.QueueStatusNotified {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) CountWaiting(_ context.Context, _ *sql.Tx, bookID uint64) (uint32, error) {
	var n uint32
	for _, e := range m.entries {
		if e.BookID == bookID && e.Status == model.QueueStatusWaiting {
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertQueueEntry(_ context.Context, _ *sql.Tx, e *model.QueueEntry) error {
	e.ID = m.id()
	c := *e
	m.entries[e.ID] = &c
	return nil
}

func (m *memStore) QueueEntryByID(_ context.Context, _ *sql.Tx, id uint64) (*model.QueueEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (m *memStore) DeleteQueueEntry(_ context.Context, _ *sql.Tx, id uint64) (bool, error) {
	e, ok := m.entries[id]
	if !ok || e.Status != model.QueueStatusWaiting {
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

func (m *memStore) NextWaitingEntry(_ context.Context, _ *sql.Tx, bookID uint64) (*model.QueueEntry, error) {
	var head *model.QueueEntry
	for _, e := range m.entries {
		if e.BookID != bookID || e.Status != model.QueueStatusWaiting {
			continue
		}
		if head == nil || e.Position < head.Position {
			head = e
		}
	}
	if head == nil {
		return nil, nil
	}
	c := *head
	return &c, nil
}

func (m *memStore) MarkEntryNotified(_ context.Context, _ *sql.Tx, id uint64, notifiedAt, expiresAt time.Time) error {
	e := m.entries[id]
	e.Status = model.QueueStatusNotified
	n, x := notifiedAt, expiresAt
	e.NotifiedAt = &n
	e.ExpiresAt = &x
	return nil
}

func (m *memStore) MarkEntryFulfilled(_ context.Context, _ *sql.Tx, id uint64) error {
	m.entries[id].Status = model.QueueStatusFulfilled
	return nil
}

func (m *memStore) MarkEntryExpired(_ context.Context, _ *sql.Tx, id uint64) error {
	m.entries[id].Status = model.QueueStatusExpired
	return nil
}

func (m *memStore) ShiftWaitingPositions(_ context.Context, _ *sql.Tx, bookID uint64, afterPosition uint32) error {
	for _, e := range m.entries {
		if e.BookID == bookID && e.Status == model.QueueStatusWaiting && e.Position > afterPosition {
			e.Position--
		}
	}
	return nil
}

func (m *memStore) LapsedNotifications(_ context.Context, _ *sql.Tx, bookID uint64, cutoff time.Time) ([]model.QueueEntry, error) {
	var out []model.QueueEntry
	for _, e := range m.entries {
		if e.Status != model.QueueStatusNotified || e.ExpiresAt == nil {
			continue
		}
		if bookID != 0 && e.BookID != bookID {
			continue
		}
		if e.ExpiresAt.Before(cutoff) {
			out = append(out, *e)
		}
	}
	return out, nil
}

// waitingPositions returns the positions of all waiting entries for a
// book, sorted ascending.
func (m *memStore) waitingPositions(bookID uint64) []uint32 {
	var out []uint32
	for _, e := range m.entries {
		if e.BookID == bookID && e.Status == model.QueueStatusWaiting {
			out = append(out, e.Position)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

type recordingNotifier struct {
	events []PromotionEvent
}

func (r *recordingNotifier) QueuePromoted(_ context.Context, ev PromotionEvent) {
	r.events = append(r.events, ev)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *memStore, *recordingNotifier, *fakeClock) {
	t.Helper()
	st := newMemStore()
	nf := &recordingNotifier{}
	clk := &fakeClock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	svc := New(nil, st, nf, 7*24*time.Hour, 24*time.Hour)
	svc.now = clk.now
	return svc, st, nf, clk
}

func addBook(t *testing.T, svc *Service, copies uint32) *model.Book {
	t.Helper()
	b, err := svc.AddBook(context.Background(), AddBookInput{
		Title:       "The Go Programming Language",
		Author:      "Donovan & Kernighan",
		ISBN:        "9780134190440",
		TotalCopies: copies,
		AddedByID:   1,
	})
	require.NoError(t, err)
	return b
}

// checkCopyInvariant asserts available + active loans + reserved
// notifications == total for the book.
func checkCopyInvariant(t *testing.T, st *memStore, bookID uint64) {
	t.Helper()
	b := st.books[bookID]
	require.NotNil(t, b)
	active, _ := st.CountActiveAllocations(context.Background(), nil, bookID)
	reserved, _ := st.CountReservedNotifications(context.Background(), nil, bookID)
	assert.Equal(t, b.TotalCopies, b.AvailableCopies+active+reserved,
		"copy accounting drifted: total=%d available=%d active=%d reserved=%d",
		b.TotalCopies, b.AvailableCopies, active, reserved)
}

func TestAddBookRejectsDuplicateISBN(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	addBook(t, svc, 2)

	_, err := svc.AddBook(context.Background(), AddBookInput{
		Title: "Another Title", Author: "Someone", ISBN: "9780134190440", TotalCopies: 1,
	})
	assert.ErrorIs(t, err, ErrDuplicateISBN)
}

func TestRequestAllocationGrantsCopy(t *testing.T) {
	svc, st, _, clk := newTestService(t)
	b := addBook(t, svc, 2)

	res, err := svc.RequestAllocation(context.Background(), b.ID, 10)
	require.NoError(t, err)
	require.Equal(t, "allocated", res.Status)
	require.NotNil(t, res.Allocation)
	assert.Equal(t, model.AllocationStatusActive, res.Allocation.Status)
	assert.Equal(t, clk.t, res.Allocation.AllocatedAt)
	assert.Equal(t, clk.t.Add(7*24*time.Hour), res.Allocation.DueDate)
	assert.Equal(t, uint32(1), st.books[b.ID].AvailableCopies)
	checkCopyInvariant(t, st, b.ID)
}

func TestRequestAllocationEnforcesSingleLoan(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b1 := addBook(t, svc, 1)
	b2, err := svc.AddBook(context.Background(), AddBookInput{
		Title: "Designing Data-Intensive Applications", Author: "Kleppmann",
		ISBN: "9781449373320", TotalCopies: 1,
	})
	require.NoError(t, err)

	_, err = svc.RequestAllocation(context.Background(), b1.ID, 10)
	require.NoError(t, err)

	_, err = svc.RequestAllocation(context.Background(), b2.ID, 10)
	assert.ErrorIs(t, err, ErrActiveLoanExists)
}

func TestRequestAllocationQueuesWhenExhausted(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	_, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)

	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	require.Equal(t, "queued", res2.Status)
	assert.Equal(t, uint32(1), res2.Entry.Position)

	res3, err := svc.RequestAllocation(ctx, b.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), res3.Entry.Position)

	_, err = svc.RequestAllocation(ctx, b.ID, 11)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	assert.Equal(t, []uint32{1, 2}, st.waitingPositions(b.ID))
	checkCopyInvariant(t, st, b.ID)
}

func TestRequestAllocationUnknownBook(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.RequestAllocation(context.Background(), 999, 10)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReturnWithoutWaitersRestoresAvailability(t *testing.T) {
	svc, st, nf, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)

	ret, err := svc.Return(ctx, res.Allocation.ID, 10)
	require.NoError(t, err)
	assert.False(t, ret.NextStudentNotified)
	assert.Equal(t, uint32(1), st.books[b.ID].AvailableCopies)
	assert.Equal(t, model.AllocationStatusReturned, st.allocs[res.Allocation.ID].Status)
	assert.NotNil(t, st.allocs[res.Allocation.ID].ReturnedAt)
	assert.Empty(t, nf.events)
	checkCopyInvariant(t, st, b.ID)
}

func TestReturnPromotesHeadOfQueue(t *testing.T) {
	svc, st, nf, clk := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res1, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	_, err = svc.RequestAllocation(ctx, b.ID, 12)
	require.NoError(t, err)

	ret, err := svc.Return(ctx, res1.Allocation.ID, 10)
	require.NoError(t, err)
	assert.True(t, ret.NextStudentNotified)

	head := st.entries[res2.Entry.ID]
	assert.Equal(t, model.QueueStatusNotified, head.Status)
	require.NotNil(t, head.ExpiresAt)
	assert.Equal(t, clk.t.Add(24*time.Hour), *head.ExpiresAt)

	// The freed copy is reserved for the notified student, not released
	// to the shelf, so a walk-in request still queues.
	assert.Equal(t, uint32(0), st.books[b.ID].AvailableCopies)
	assert.Equal(t, []uint32{1}, st.waitingPositions(b.ID))

	require.Len(t, nf.events, 1)
	assert.Equal(t, uint64(11), nf.events[0].StudentID)
	assert.Equal(t, b.ID, nf.events[0].BookID)
	checkCopyInvariant(t, st, b.ID)
}

func TestRequestAllocationRejectsNotifiedStudent(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res1, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)

	_, err = svc.Return(ctx, res1.Allocation.ID, 10)
	require.NoError(t, err)
	require.Equal(t, model.QueueStatusNotified, st.entries[res2.Entry.ID].Status)

	// A pending reservation counts as queue membership: the notified
	// student cannot join the same queue again while it is open.
	_, err = svc.RequestAllocation(ctx, b.ID, 11)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	open, err := st.OpenEntryForStudent(ctx, nil, b.ID, 11)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, res2.Entry.ID, open.ID)
	assert.Empty(t, st.waitingPositions(b.ID))
	checkCopyInvariant(t, st, b.ID)
}

func TestCancelQueueRenumbersPositions(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	_, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	_, err = svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	mid, err := svc.RequestAllocation(ctx, b.ID, 12)
	require.NoError(t, err)
	_, err = svc.RequestAllocation(ctx, b.ID, 13)
	require.NoError(t, err)

	require.NoError(t, svc.CancelQueue(ctx, mid.Entry.ID, 12))
	assert.Equal(t, []uint32{1, 2}, st.waitingPositions(b.ID))

	// Cancelling again, or as a different student, is a not-found.
	assert.ErrorIs(t, svc.CancelQueue(ctx, mid.Entry.ID, 12), ErrQueueEntryNotFound)
	e, _ := st.OpenEntryForStudent(ctx, nil, b.ID, 13)
	assert.ErrorIs(t, svc.CancelQueue(ctx, e.ID, 11), ErrQueueEntryNotFound)
}

func TestAcceptNotificationAllocates(t *testing.T) {
	svc, st, _, clk := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res1, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	_, err = svc.Return(ctx, res1.Allocation.ID, 10)
	require.NoError(t, err)

	clk.advance(2 * time.Hour)
	a, err := svc.AcceptNotification(ctx, res2.Entry.ID, 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), a.StudentID)
	assert.Equal(t, clk.t.Add(7*24*time.Hour), a.DueDate)
	assert.Equal(t, model.QueueStatusFulfilled, st.entries[res2.Entry.ID].Status)
	assert.Equal(t, uint32(0), st.books[b.ID].AvailableCopies)
	checkCopyInvariant(t, st, b.ID)

	// Accepting twice is a not-found: the entry is no longer notified.
	_, err = svc.AcceptNotification(ctx, res2.Entry.ID, 11)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestAcceptNotificationAfterWindowRepromotes(t *testing.T) {
	svc, st, nf, clk := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res1, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	res3, err := svc.RequestAllocation(ctx, b.ID, 12)
	require.NoError(t, err)
	_, err = svc.Return(ctx, res1.Allocation.ID, 10)
	require.NoError(t, err)

	clk.advance(25 * time.Hour)
	_, err = svc.AcceptNotification(ctx, res2.Entry.ID, 11)
	assert.ErrorIs(t, err, ErrNotificationExpired)

	// The lapsed hold is recorded and the copy moves on to the next
	// student in line.
	assert.Equal(t, model.QueueStatusExpired, st.entries[res2.Entry.ID].Status)
	assert.Equal(t, model.QueueStatusNotified, st.entries[res3.Entry.ID].Status)
	assert.Equal(t, uint32(0), st.books[b.ID].AvailableCopies)
	require.Len(t, nf.events, 2)
	assert.Equal(t, uint64(12), nf.events[1].StudentID)
	checkCopyInvariant(t, st, b.ID)
}

func TestSweepExpiresAndRepromotes(t *testing.T) {
	svc, st, nf, clk := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res1, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	res3, err := svc.RequestAllocation(ctx, b.ID, 12)
	require.NoError(t, err)
	_, err = svc.Return(ctx, res1.Allocation.ID, 10)
	require.NoError(t, err)

	clk.advance(25 * time.Hour)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.QueueStatusExpired, st.entries[res2.Entry.ID].Status)
	assert.Equal(t, model.QueueStatusNotified, st.entries[res3.Entry.ID].Status)
	require.Len(t, nf.events, 2)
	checkCopyInvariant(t, st, b.ID)

	// With nobody left waiting, the next lapse releases the copy back
	// to the shelf.
	clk.advance(25 * time.Hour)
	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(1), st.books[b.ID].AvailableCopies)
	checkCopyInvariant(t, st, b.ID)
}

func TestRequestAllocationExpiresLapsedHoldFirst(t *testing.T) {
	svc, st, _, clk := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res1, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	res2, err := svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)
	_, err = svc.Return(ctx, res1.Allocation.ID, 10)
	require.NoError(t, err)

	// Student 11 never accepts.  Once the window lapses, a fresh request
	// reclaims the reserved copy immediately.
	clk.advance(25 * time.Hour)
	res, err := svc.RequestAllocation(ctx, b.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, "allocated", res.Status)
	assert.Equal(t, model.QueueStatusExpired, st.entries[res2.Entry.ID].Status)
	checkCopyInvariant(t, st, b.ID)
}

func TestReturnScopedToOwner(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)

	_, err = svc.Return(ctx, res.Allocation.ID, 11)
	assert.ErrorIs(t, err, ErrAllocationNotFound)

	// Student id 0 is the unscoped admin path.
	_, err = svc.Return(ctx, res.Allocation.ID, 0)
	assert.NoError(t, err)

	_, err = svc.Return(ctx, res.Allocation.ID, 0)
	assert.ErrorIs(t, err, ErrAllocationNotFound)
}

func TestDeleteBookBlockedByActiveLoans(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	res, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteBook(ctx, b.ID), ErrHasActiveLoans)

	_, err = svc.Return(ctx, res.Allocation.ID, 10)
	require.NoError(t, err)
	assert.NoError(t, svc.DeleteBook(ctx, b.ID))
	assert.ErrorIs(t, svc.DeleteBook(ctx, b.ID), ErrBookNotFound)
}

func TestUpdateBookRecomputesAvailability(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	b := addBook(t, svc, 3)
	ctx := context.Background()

	_, err := svc.RequestAllocation(ctx, b.ID, 10)
	require.NoError(t, err)
	_, err = svc.RequestAllocation(ctx, b.ID, 11)
	require.NoError(t, err)

	// Shrinking below the loaned-out count clamps availability at zero.
	two := uint32(2)
	upd, err := svc.UpdateBook(ctx, b.ID, UpdateBookInput{TotalCopies: &two})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), upd.AvailableCopies)

	five := uint32(5)
	upd, err = svc.UpdateBook(ctx, b.ID, UpdateBookInput{TotalCopies: &five})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), upd.AvailableCopies)
	checkCopyInvariant(t, st, b.ID)
}

func TestRequestAllocationRejectsUnavailableBook(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	b := addBook(t, svc, 1)
	ctx := context.Background()

	status := model.BookStatusUnavailable
	_, err := svc.UpdateBook(ctx, b.ID, UpdateBookInput{Status: &status})
	require.NoError(t, err)

	_, err = svc.RequestAllocation(ctx, b.ID, 10)
	assert.ErrorIs(t, err, ErrBookUnavailable)
}
