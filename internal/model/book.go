package model

import "time"

// BookStatus enumerates the catalog states of a book.  A book that is
// unavailable (lost, under repair) cannot be requested or queued for,
// regardless of its copy counts.
const (
	BookStatusAvailable   = "available"
	BookStatusUnavailable = "unavailable"
)

// Book represents a title in the library catalog.  A book owns a fixed
// number of physical copies; AvailableCopies tracks how many of them are
// neither on loan nor reserved for a notified queue entry.  The invariant
// 0 <= AvailableCopies <= TotalCopies holds at all times.
//
// Fields:
//  ID              – primary key identifier.
//  Title           – book title.
//  Author          – book author.
//  ISBN            – unique ISBN string.
//  Description     – optional free-form description.
//  Category        – optional category label.
//  TotalCopies     – number of physical copies owned.
//  AvailableCopies – copies free to lend right now.
//  Status          – catalog status (available, unavailable).
//  AddedByID       – admin user who created the record.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Book struct {
	ID              uint64    // books.id
	Title           string    // books.title
	Author          string    // books.author
	ISBN            string    // books.isbn
	Description     *string   // books.description (nullable)
	Category        *string   // books.category (nullable)
	TotalCopies     uint32    // books.total_copies
	AvailableCopies uint32    // books.available_copies
	Status          string    // books.status
	AddedByID       uint64    // books.added_by_id
	CreatedAt       time.Time // books.created_at
	UpdatedAt       time.Time // books.updated_at
}
