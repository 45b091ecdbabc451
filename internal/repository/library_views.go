package repository

import (
	"context"
	"time"

	"github.com/ssaraswat/campus-services/internal/model"
)

// BookSummary is a catalog row joined with its live queue length and loan
// count.  Browse and admin listings both render from it.
type BookSummary struct {
	model.Book
	ActiveAllocations uint32
	QueueLength       uint32
}

// StudentAllocation is a loan row joined with the book it refers to, for
// the student's own history view.
type StudentAllocation struct {
	model.Allocation
	BookTitle  string
	BookAuthor string
}

// StudentQueueEntry is a waitlist row joined with the book it refers to.
type StudentQueueEntry struct {
	model.QueueEntry
	BookTitle  string
	BookAuthor string
}

// AllocationDetail is a loan row joined with book and student identity,
// for the admin ledger view.
type AllocationDetail struct {
	model.Allocation
	BookTitle    string
	StudentName  string
	StudentEmail string
}

// QueueEntryDetail is a waitlist row joined with student identity, for
// the admin per-book queue view.
type QueueEntryDetail struct {
	model.QueueEntry
	StudentName  string
	StudentEmail string
}

// ListBooks returns a page of the catalog with per-book loan and queue
// counts.  search matches against title, author and ISBN; category
// filters exactly.  Empty strings disable the respective filter.
func (r *LibraryRepo) ListBooks(ctx context.Context, search, category string, limit, offset int) ([]BookSummary, error) {
	q := `SELECT b.id, b.title, b.author, b.isbn, b.description, b.category,
	             b.total_copies, b.available_copies, b.status, b.added_by_id, b.created_at, b.updated_at,
	             (SELECT COUNT(*) FROM allocations a WHERE a.book_id = b.id AND a.status = ?),
	             (SELECT COUNT(*) FROM queue_entries q WHERE q.book_id = b.id AND q.status = ?)
	      FROM books b`
	args := []interface{}{model.AllocationStatusActive, model.QueueStatusWaiting}
	where := ""
	if search != "" {
		where = ` WHERE (b.title LIKE ? OR b.author LIKE ? OR b.isbn LIKE ?)`
		pat := "%" + search + "%"
		args = append(args, pat, pat, pat)
	}
	if category != "" {
		if where == "" {
			where = ` WHERE b.category = ?`
		} else {
			where += ` AND b.category = ?`
		}
		args = append(args, category)
	}
	q += where + ` ORDER BY b.title ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookSummary
	for rows.Next() {
		var s BookSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Author, &s.ISBN, &s.Description, &s.Category,
			&s.TotalCopies, &s.AvailableCopies, &s.Status, &s.AddedByID, &s.CreatedAt, &s.UpdatedAt,
			&s.ActiveAllocations, &s.QueueLength); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BookByID fetches a single catalog row without locking, for detail
// views.  Returns (nil, nil) when absent.
func (r *LibraryRepo) BookByID(ctx context.Context, id uint64) (*model.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	return scanBook(row)
}

// AllocationsForStudent lists the student's loans, active first, newest
// first within each state.
func (r *LibraryRepo) AllocationsForStudent(ctx context.Context, studentID uint64) ([]StudentAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.book_id, a.student_id, a.allocated_at, a.due_date, a.returned_at, a.status,
		        b.title, b.author
		 FROM allocations a
		 JOIN books b ON b.id = a.book_id
		 WHERE a.student_id = ?
		 ORDER BY (a.status = ?) DESC, a.allocated_at DESC`,
		studentID, model.AllocationStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StudentAllocation
	for rows.Next() {
		var s StudentAllocation
		if err := rows.Scan(&s.ID, &s.BookID, &s.StudentID, &s.AllocatedAt, &s.DueDate,
			&s.ReturnedAt, &s.Status, &s.BookTitle, &s.BookAuthor); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueueEntriesForStudent lists the student's open waitlist entries
// (waiting or notified).
func (r *LibraryRepo) QueueEntriesForStudent(ctx context.Context, studentID uint64) ([]StudentQueueEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT q.id, q.book_id, q.student_id, q.position, q.status, q.requested_at, q.notified_at, q.expires_at,
		        b.title, b.author
		 FROM queue_entries q
		 JOIN books b ON b.id = q.book_id
		 WHERE q.student_id = ? AND q.status IN (?, ?)
		 ORDER BY q.requested_at ASC`,
		studentID, model.QueueStatusWaiting, model.QueueStatusNotified)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StudentQueueEntry
	for rows.Next() {
		var s StudentQueueEntry
		if err := rows.Scan(&s.ID, &s.BookID, &s.StudentID, &s.Position, &s.Status,
			&s.RequestedAt, &s.NotifiedAt, &s.ExpiresAt, &s.BookTitle, &s.BookAuthor); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllocations returns a page of the loan ledger with book and student
// identity joined in.  status filters to one loan state; empty means all.
func (r *LibraryRepo) ListAllocations(ctx context.Context, status string, limit, offset int) ([]AllocationDetail, error) {
	q := `SELECT a.id, a.book_id, a.student_id, a.allocated_at, a.due_date, a.returned_at, a.status,
	             b.title, u.full_name, u.email
	      FROM allocations a
	      JOIN books b ON b.id = a.book_id
	      JOIN users u ON u.id = a.student_id`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE a.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY a.allocated_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AllocationDetail
	for rows.Next() {
		var d AllocationDetail
		if err := rows.Scan(&d.ID, &d.BookID, &d.StudentID, &d.AllocatedAt, &d.DueDate,
			&d.ReturnedAt, &d.Status, &d.BookTitle, &d.StudentName, &d.StudentEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OverdueAllocations lists active loans whose due date has passed, oldest
// due date first.
func (r *LibraryRepo) OverdueAllocations(ctx context.Context, now time.Time) ([]AllocationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.book_id, a.student_id, a.allocated_at, a.due_date, a.returned_at, a.status,
		        b.title, u.full_name, u.email
		 FROM allocations a
		 JOIN books b ON b.id = a.book_id
		 JOIN users u ON u.id = a.student_id
		 WHERE a.status = ? AND a.due_date < ?
		 ORDER BY a.due_date ASC`,
		model.AllocationStatusActive, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AllocationDetail
	for rows.Next() {
		var d AllocationDetail
		if err := rows.Scan(&d.ID, &d.BookID, &d.StudentID, &d.AllocatedAt, &d.DueDate,
			&d.ReturnedAt, &d.Status, &d.BookTitle, &d.StudentName, &d.StudentEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueueForBook lists the open waitlist of a book in position order, with
// student identity for the admin view.
func (r *LibraryRepo) QueueForBook(ctx context.Context, bookID uint64) ([]QueueEntryDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT q.id, q.book_id, q.student_id, q.position, q.status, q.requested_at, q.notified_at, q.expires_at,
		        u.full_name, u.email
		 FROM queue_entries q
		 JOIN users u ON u.id = q.student_id
		 WHERE q.book_id = ? AND q.status IN (?, ?)
		 ORDER BY (q.status = ?) DESC, q.position ASC`,
		bookID, model.QueueStatusWaiting, model.QueueStatusNotified, model.QueueStatusNotified)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QueueEntryDetail
	for rows.Next() {
		var d QueueEntryDetail
		if err := rows.Scan(&d.ID, &d.BookID, &d.StudentID, &d.Position, &d.Status,
			&d.RequestedAt, &d.NotifiedAt, &d.ExpiresAt, &d.StudentName, &d.StudentEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
