package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ssaraswat/campus-services/internal/model"
)

// LibraryRepo provides data access to the books, allocations and
// queue_entries tables.  It implements the store interface of the library
// service: every mutating method runs within a caller-supplied
// transaction, because the service owns the transaction boundary for the
// whole allocate/return/promote sequence.  Read-only listing queries for
// the HTTP layer live in library_views.go and use the pool directly.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo returns a new LibraryRepo bound to the provided database.
func NewLibraryRepo(db *sql.DB) *LibraryRepo { return &LibraryRepo{db: db} }

const bookColumns = `id, title, author, isbn, description, category,
	total_copies, available_copies, status, added_by_id, created_at, updated_at`

func scanBook(row *sql.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Category,
		&b.TotalCopies, &b.AvailableCopies, &b.Status, &b.AddedByID, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BookByISBN looks a book up by its unique ISBN.  Returns (nil, nil) when
// no such book exists.
func (r *LibraryRepo) BookByISBN(ctx context.Context, tx *sql.Tx, isbn string) (*model.Book, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = ?`, isbn)
	return scanBook(row)
}

// BookForUpdate loads the book row with an exclusive row lock
// (SELECT ... FOR UPDATE).  Every mutating library operation takes this
// lock first, which serialises concurrent traffic on the same book.
func (r *LibraryRepo) BookForUpdate(ctx context.Context, tx *sql.Tx, id uint64) (*model.Book, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? FOR UPDATE`, id)
	return scanBook(row)
}

// InsertBook creates a new catalog row and fills in the generated ID and
// timestamps on the passed struct.
func (r *LibraryRepo) InsertBook(ctx context.Context, tx *sql.Tx, b *model.Book) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO books (title, author, isbn, description, category,
		 total_copies, available_copies, status, added_by_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Author, b.ISBN, b.Description, b.Category,
		b.TotalCopies, b.AvailableCopies, b.Status, b.AddedByID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// UpdateBookRow persists every mutable column of the book.
func (r *LibraryRepo) UpdateBookRow(ctx context.Context, tx *sql.Tx, b *model.Book) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET title = ?, author = ?, description = ?, category = ?,
		     total_copies = ?, available_copies = ?, status = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ?`,
		b.Title, b.Author, b.Description, b.Category,
		b.TotalCopies, b.AvailableCopies, b.Status, b.ID,
	)
	return err
}

// DeleteBookRow removes a book together with its queue entries.  The
// allocation history rows are removed by the ON DELETE CASCADE foreign
// key; the service refuses the delete while any allocation is active.
func (r *LibraryRepo) DeleteBookRow(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_entries WHERE book_id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	return err
}

// CountActiveAllocations counts the live loans of a book.
func (r *LibraryRepo) CountActiveAllocations(ctx context.Context, tx *sql.Tx, bookID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allocations WHERE book_id = ? AND status = ?`,
		bookID, model.AllocationStatusActive,
	).Scan(&n)
	return n, err
}

// CountReservedNotifications counts queue entries of the book whose
// reserved copy is still pending acceptance.
func (r *LibraryRepo) CountReservedNotifications(ctx context.Context, tx *sql.Tx, bookID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_entries WHERE book_id = ? AND status = ?`,
		bookID, model.QueueStatusNotified,
	).Scan(&n)
	return n, err
}
