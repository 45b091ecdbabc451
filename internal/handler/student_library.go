package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/library"
	"github.com/ssaraswat/campus-services/internal/repository"
)

// StudentLibraryHandler serves the student side of the library: catalog
// browsing, allocation requests, returns and queue management.  Role
// middleware guarantees the caller is an authenticated student.
type StudentLibraryHandler struct {
	Svc  *library.Service
	Repo *repository.LibraryRepo
}

func NewStudentLibraryHandler(svc *library.Service, repo *repository.LibraryRepo) *StudentLibraryHandler {
	if svc == nil || repo == nil {
		panic("nil dependency passed to NewStudentLibraryHandler")
	}
	return &StudentLibraryHandler{Svc: svc, Repo: repo}
}

// Browse handles GET /v1/library/books.  search matches title, author
// and ISBN; category filters exactly.
func (h *StudentLibraryHandler) Browse(c echo.Context) error {
	limit, offset := pageParams(c, 50, 200)
	books, err := h.Repo.ListBooks(c.Request().Context(),
		strings.TrimSpace(c.QueryParam("search")),
		strings.TrimSpace(c.QueryParam("category")),
		limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type row struct {
		bookResp
		QueueLength uint32 `json:"queue_length"`
	}
	out := make([]row, 0, len(books))
	for i := range books {
		out = append(out, row{
			bookResp:    toBookResp(&books[i].Book),
			QueueLength: books[i].QueueLength,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"books": out})
}

// BookDetail handles GET /v1/library/books/:id.
func (h *StudentLibraryHandler) BookDetail(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	b, err := h.Repo.BookByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if b == nil {
		return libraryError(c, library.ErrBookNotFound)
	}
	return c.JSON(http.StatusOK, toBookResp(b))
}

// RequestBook handles POST /v1/library/books/:id/request.  The response
// distinguishes an immediate allocation from a queue placement.
func (h *StudentLibraryHandler) RequestBook(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	res, err := h.Svc.RequestAllocation(c.Request().Context(), bookID, userID)
	if err != nil {
		return libraryError(c, err)
	}
	if res.Status == "allocated" {
		return c.JSON(http.StatusCreated, echo.Map{
			"status":     res.Status,
			"allocation": toAllocationResp(res.Allocation),
		})
	}
	return c.JSON(http.StatusAccepted, echo.Map{
		"status":      res.Status,
		"queue_entry": toQueueEntryResp(res.Entry),
	})
}

// ReturnBook handles POST /v1/library/allocations/:id/return.  The
// allocation must belong to the caller.
func (h *StudentLibraryHandler) ReturnBook(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	allocID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allocation id"})
	}
	res, err := h.Svc.Return(c.Request().Context(), allocID, userID)
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"next_student_notified": res.NextStudentNotified})
}

// MyBooks handles GET /v1/library/my-books: current loan plus history.
func (h *StudentLibraryHandler) MyBooks(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	allocs, err := h.Repo.AllocationsForStudent(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type row struct {
		allocationResp
		BookTitle  string `json:"book_title"`
		BookAuthor string `json:"book_author"`
	}
	out := make([]row, 0, len(allocs))
	for i := range allocs {
		out = append(out, row{
			allocationResp: toAllocationResp(&allocs[i].Allocation),
			BookTitle:      allocs[i].BookTitle,
			BookAuthor:     allocs[i].BookAuthor,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"allocations": out})
}

// MyQueue handles GET /v1/library/my-queue: open waitlist entries with
// positions and, for notified entries, the acceptance deadline.
func (h *StudentLibraryHandler) MyQueue(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Repo.QueueEntriesForStudent(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type row struct {
		queueEntryResp
		BookTitle  string `json:"book_title"`
		BookAuthor string `json:"book_author"`
	}
	out := make([]row, 0, len(entries))
	for i := range entries {
		out = append(out, row{
			queueEntryResp: toQueueEntryResp(&entries[i].QueueEntry),
			BookTitle:      entries[i].BookTitle,
			BookAuthor:     entries[i].BookAuthor,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"queue": out})
}

// CancelQueue handles DELETE /v1/library/queue/:id.  Only waiting
// entries owned by the caller can be cancelled.
func (h *StudentLibraryHandler) CancelQueue(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queueID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	if err := h.Svc.CancelQueue(c.Request().Context(), queueID, userID); err != nil {
		return libraryError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AcceptNotification handles POST /v1/library/queue/:id/accept,
// converting a notified entry into an allocation of the reserved copy.
func (h *StudentLibraryHandler) AcceptNotification(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queueID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	a, err := h.Svc.AcceptNotification(c.Request().Context(), queueID, userID)
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"allocation": toAllocationResp(a)})
}
