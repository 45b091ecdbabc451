package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ssaraswat/campus-services/internal/model"
)

const allocationColumns = `id, book_id, student_id, allocated_at, due_date, returned_at, status`

func scanAllocation(row *sql.Row) (*model.Allocation, error) {
	var a model.Allocation
	err := row.Scan(&a.ID, &a.BookID, &a.StudentID, &a.AllocatedAt, &a.DueDate, &a.ReturnedAt, &a.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ActiveAllocationForStudent returns the student's single active loan, or
// (nil, nil) when the student holds nothing.  The single-loan policy makes
// LIMIT 1 safe.
func (r *LibraryRepo) ActiveAllocationForStudent(ctx context.Context, tx *sql.Tx, studentID uint64) (*model.Allocation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations
		 WHERE student_id = ? AND status = ? LIMIT 1`,
		studentID, model.AllocationStatusActive)
	return scanAllocation(row)
}

// AllocationByID fetches one allocation row.  Returns (nil, nil) when
// absent.
func (r *LibraryRepo) AllocationByID(ctx context.Context, tx *sql.Tx, id uint64) (*model.Allocation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, id)
	return scanAllocation(row)
}

// InsertAllocation appends a loan record and fills in the generated ID.
func (r *LibraryRepo) InsertAllocation(ctx context.Context, tx *sql.Tx, a *model.Allocation) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO allocations (book_id, student_id, allocated_at, due_date, status)
		 VALUES (?, ?, ?, ?, ?)`,
		a.BookID, a.StudentID,
		a.AllocatedAt.UTC().Format("2006-01-02 15:04:05"),
		a.DueDate.UTC().Format("2006-01-02 15:04:05"),
		a.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// MarkAllocationReturned flips an active allocation to returned and
// stamps the return time.  The status guard in the WHERE clause makes the
// update a no-op when a concurrent request already returned the loan; the
// boolean result tells the caller which case occurred.
func (r *LibraryRepo) MarkAllocationReturned(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE allocations SET status = ?, returned_at = ?
		 WHERE id = ? AND status = ?`,
		model.AllocationStatusReturned,
		at.UTC().Format("2006-01-02 15:04:05"),
		id, model.AllocationStatusActive,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
