package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/library"
	"github.com/ssaraswat/campus-services/internal/model"
)

// libraryError maps a library service error onto an HTTP response.  The
// machine-readable code travels with the message so clients can branch
// without string matching.
func libraryError(c echo.Context, err error) error {
	code := library.Code(err)
	status := http.StatusInternalServerError
	msg := "internal error"
	switch code {
	case "BOOK_NOT_FOUND", "ALLOCATION_NOT_FOUND", "QUEUE_ENTRY_NOT_FOUND", "NOTIFICATION_NOT_FOUND":
		status = http.StatusNotFound
	case "DUPLICATE_ISBN", "HAS_ACTIVE_LOANS", "ACTIVE_LOAN_EXISTS", "ALREADY_QUEUED", "BOOK_UNAVAILABLE":
		status = http.StatusConflict
	case "NOTIFICATION_EXPIRED":
		status = http.StatusGone
	}
	if code != "" {
		msg = err.Error()
		return c.JSON(status, echo.Map{"error": msg, "code": code})
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// bookResp is the catalog record as rendered to clients.
type bookResp struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	TotalCopies     uint32    `json:"total_copies"`
	AvailableCopies uint32    `json:"available_copies"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toBookResp(b *model.Book) bookResp {
	return bookResp{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Description:     b.Description,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// allocationResp is a loan as rendered to clients.
type allocationResp struct {
	ID          uint64     `json:"id"`
	BookID      uint64     `json:"book_id"`
	StudentID   uint64     `json:"student_id"`
	AllocatedAt time.Time  `json:"allocated_at"`
	DueDate     time.Time  `json:"due_date"`
	ReturnedAt  *time.Time `json:"returned_at"`
	Status      string     `json:"status"`
}

func toAllocationResp(a *model.Allocation) allocationResp {
	return allocationResp{
		ID:          a.ID,
		BookID:      a.BookID,
		StudentID:   a.StudentID,
		AllocatedAt: a.AllocatedAt,
		DueDate:     a.DueDate,
		ReturnedAt:  a.ReturnedAt,
		Status:      a.Status,
	}
}

// queueEntryResp is a waitlist entry as rendered to clients.
type queueEntryResp struct {
	ID          uint64     `json:"id"`
	BookID      uint64     `json:"book_id"`
	Position    uint32     `json:"position"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	NotifiedAt  *time.Time `json:"notified_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func toQueueEntryResp(e *model.QueueEntry) queueEntryResp {
	return queueEntryResp{
		ID:          e.ID,
		BookID:      e.BookID,
		Position:    e.Position,
		Status:      e.Status,
		RequestedAt: e.RequestedAt,
		NotifiedAt:  e.NotifiedAt,
		ExpiresAt:   e.ExpiresAt,
	}
}
