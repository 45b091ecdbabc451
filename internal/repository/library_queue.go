package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ssaraswat/campus-services/internal/model"
)

const queueEntryColumns = `id, book_id, student_id, position, status, requested_at, notified_at, expires_at`

func scanQueueEntry(row *sql.Row) (*model.QueueEntry, error) {
	var e model.QueueEntry
	err := row.Scan(&e.ID, &e.BookID, &e.StudentID, &e.Position, &e.Status,
		&e.RequestedAt, &e.NotifiedAt, &e.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// OpenEntryForStudent returns the student's open (waiting or notified)
// entry for the book, or (nil, nil).  A student can hold at most one open
// entry per book; a notified entry counts, otherwise a student with a
// pending reservation could join the same queue a second time.
func (r *LibraryRepo) OpenEntryForStudent(ctx context.Context, tx *sql.Tx, bookID, studentID uint64) (*model.QueueEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+queueEntryColumns+` FROM queue_entries
		 WHERE book_id = ? AND student_id = ? AND status IN (?, ?) LIMIT 1`,
		bookID, studentID, model.QueueStatusWaiting, model.QueueStatusNotified)
	return scanQueueEntry(row)
}

// CountWaiting counts the waiting entries of a book; the next insert
// takes position count+1.
func (r *LibraryRepo) CountWaiting(ctx context.Context, tx *sql.Tx, bookID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_entries WHERE book_id = ? AND status = ?`,
		bookID, model.QueueStatusWaiting,
	).Scan(&n)
	return n, err
}

// InsertQueueEntry appends a waitlist row and fills in the generated ID.
func (r *LibraryRepo) InsertQueueEntry(ctx context.Context, tx *sql.Tx, e *model.QueueEntry) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO queue_entries (book_id, student_id, position, status, requested_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.BookID, e.StudentID, e.Position, e.Status,
		e.RequestedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// QueueEntryByID fetches one queue entry.  Returns (nil, nil) when absent.
func (r *LibraryRepo) QueueEntryByID(ctx context.Context, tx *sql.Tx, id uint64) (*model.QueueEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+queueEntryColumns+` FROM queue_entries WHERE id = ?`, id)
	return scanQueueEntry(row)
}

// DeleteQueueEntry removes an entry, but only while it is still waiting.
// The status guard protects a cancel racing against a promotion; the
// boolean result reports whether a row was deleted.
func (r *LibraryRepo) DeleteQueueEntry(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM queue_entries WHERE id = ? AND status = ?`,
		id, model.QueueStatusWaiting)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NextWaitingEntry returns the head of the book's waitlist (lowest
// position), or (nil, nil) when nobody is waiting.
func (r *LibraryRepo) NextWaitingEntry(ctx context.Context, tx *sql.Tx, bookID uint64) (*model.QueueEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+queueEntryColumns+` FROM queue_entries
		 WHERE book_id = ? AND status = ?
		 ORDER BY position ASC LIMIT 1`,
		bookID, model.QueueStatusWaiting)
	return scanQueueEntry(row)
}

// MarkEntryNotified promotes an entry: waiting becomes notified and the
// acceptance window timestamps are stamped.
func (r *LibraryRepo) MarkEntryNotified(ctx context.Context, tx *sql.Tx, id uint64, notifiedAt, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE queue_entries SET status = ?, notified_at = ?, expires_at = ?
		 WHERE id = ?`,
		model.QueueStatusNotified,
		notifiedAt.UTC().Format("2006-01-02 15:04:05"),
		expiresAt.UTC().Format("2006-01-02 15:04:05"),
		id,
	)
	return err
}

// MarkEntryFulfilled closes a notified entry whose student accepted.
func (r *LibraryRepo) MarkEntryFulfilled(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE queue_entries SET status = ? WHERE id = ?`,
		model.QueueStatusFulfilled, id)
	return err
}

// MarkEntryExpired closes a notified entry whose window lapsed.
func (r *LibraryRepo) MarkEntryExpired(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE queue_entries SET status = ? WHERE id = ?`,
		model.QueueStatusExpired, id)
	return err
}

// ShiftWaitingPositions decrements the position of every waiting entry of
// the book past afterPosition, keeping the waiting sequence dense.
func (r *LibraryRepo) ShiftWaitingPositions(ctx context.Context, tx *sql.Tx, bookID uint64, afterPosition uint32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE queue_entries SET position = position - 1
		 WHERE book_id = ? AND status = ? AND position > ?`,
		bookID, model.QueueStatusWaiting, afterPosition)
	return err
}

// LapsedNotifications lists notified entries whose acceptance window
// ended before cutoff.  bookID 0 scans every book; the background sweeper
// uses that form.
func (r *LibraryRepo) LapsedNotifications(ctx context.Context, tx *sql.Tx, bookID uint64, cutoff time.Time) ([]model.QueueEntry, error) {
	q := `SELECT ` + queueEntryColumns + ` FROM queue_entries
	      WHERE status = ? AND expires_at < ?`
	args := []interface{}{model.QueueStatusNotified, cutoff.UTC().Format("2006-01-02 15:04:05")}
	if bookID != 0 {
		q += ` AND book_id = ?`
		args = append(args, bookID)
	}
	q += ` ORDER BY expires_at ASC`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.QueueEntry
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(&e.ID, &e.BookID, &e.StudentID, &e.Position, &e.Status,
			&e.RequestedAt, &e.NotifiedAt, &e.ExpiresAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
