package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/library"
	"github.com/ssaraswat/campus-services/internal/model"
	"github.com/ssaraswat/campus-services/internal/repository"
)

// AdminLibraryHandler serves the librarian side of the catalog: CRUD on
// books, the allocation ledger and per-book queue inspection.  All
// routes sit behind the ADMIN role middleware.
type AdminLibraryHandler struct {
	Svc  *library.Service
	Repo *repository.LibraryRepo
}

func NewAdminLibraryHandler(svc *library.Service, repo *repository.LibraryRepo) *AdminLibraryHandler {
	if svc == nil || repo == nil {
		panic("nil dependency passed to NewAdminLibraryHandler")
	}
	return &AdminLibraryHandler{Svc: svc, Repo: repo}
}

type createBookReq struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        string  `json:"isbn"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	TotalCopies uint32  `json:"total_copies"`
}

// CreateBook handles POST /v1/admin/library/books.
func (h *AdminLibraryHandler) CreateBook(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.ISBN = strings.TrimSpace(req.ISBN)
	if req.Title == "" || req.Author == "" || req.ISBN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/author/isbn required"})
	}
	b, err := h.Svc.AddBook(c.Request().Context(), library.AddBookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Description: req.Description,
		Category:    req.Category,
		TotalCopies: req.TotalCopies,
		AddedByID:   adminID,
	})
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookResp(b))
}

type updateBookReq struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	TotalCopies *uint32 `json:"total_copies"`
	Status      *string `json:"status"`
}

// UpdateBook handles PATCH /v1/admin/library/books/:id.  Absent fields
// are left unchanged.
func (h *AdminLibraryHandler) UpdateBook(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var req updateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != nil && *req.Status != model.BookStatusAvailable && *req.Status != model.BookStatusUnavailable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.TotalCopies != nil && *req.TotalCopies == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_copies must be positive"})
	}
	b, err := h.Svc.UpdateBook(c.Request().Context(), id, library.UpdateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Category:    req.Category,
		TotalCopies: req.TotalCopies,
		Status:      req.Status,
	})
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(http.StatusOK, toBookResp(b))
}

// DeleteBook handles DELETE /v1/admin/library/books/:id.  A book with
// active loans cannot be removed.
func (h *AdminLibraryHandler) DeleteBook(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	if err := h.Svc.DeleteBook(c.Request().Context(), id); err != nil {
		return libraryError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBooks handles GET /v1/admin/library/books with live loan and queue
// counts per title.
func (h *AdminLibraryHandler) ListBooks(c echo.Context) error {
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
		ActiveAllocations uint32 `json:"active_allocations"`
		QueueLength       uint32 `json:"queue_length"`
	}
	out := make([]row, 0, len(books))
	for i := range books {
		out = append(out, row{
			bookResp:          toBookResp(&books[i].Book),
			ActiveAllocations: books[i].ActiveAllocations,
			QueueLength:       books[i].QueueLength,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"books": out})
}

// ListAllocations handles GET /v1/admin/library/allocations.  The status
// query parameter filters to one loan state.
func (h *AdminLibraryHandler) ListAllocations(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	switch status {
	case "", model.AllocationStatusActive, model.AllocationStatusReturned:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	limit, offset := pageParams(c, 50, 200)
	allocs, err := h.Repo.ListAllocations(c.Request().Context(), status, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"allocations": toAllocationDetails(allocs)})
}

// OverdueAllocations handles GET /v1/admin/library/allocations/overdue.
func (h *AdminLibraryHandler) OverdueAllocations(c echo.Context) error {
	allocs, err := h.Repo.OverdueAllocations(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"allocations": toAllocationDetails(allocs)})
}

type allocationDetailResp struct {
	allocationResp
	BookTitle    string `json:"book_title"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

func toAllocationDetails(allocs []repository.AllocationDetail) []allocationDetailResp {
	out := make([]allocationDetailResp, 0, len(allocs))
	for i := range allocs {
		d := &allocs[i]
		resp := allocationDetailResp{
			allocationResp: toAllocationResp(&d.Allocation),
			BookTitle:      d.BookTitle,
			StudentName:    d.StudentName,
			StudentEmail:   d.StudentEmail,
		}
		// Overdue is derived for display; the row itself stays active.
		if d.Status == model.AllocationStatusActive && time.Now().UTC().After(d.DueDate) {
			resp.Status = model.AllocationStatusOverdue
		}
		out = append(out, resp)
	}
	return out
}

// BookQueue handles GET /v1/admin/library/books/:id/queue.
func (h *AdminLibraryHandler) BookQueue(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx := c.Request().Context()
	if b, err := h.Repo.BookByID(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	} else if b == nil {
		return libraryError(c, library.ErrBookNotFound)
	}
	entries, err := h.Repo.QueueForBook(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type row struct {
		queueEntryResp
		StudentName  string `json:"student_name"`
		StudentEmail string `json:"student_email"`
	}
	out := make([]row, 0, len(entries))
	for i := range entries {
		out = append(out, row{
			queueEntryResp: toQueueEntryResp(&entries[i].QueueEntry),
			StudentName:    entries[i].StudentName,
			StudentEmail:   entries[i].StudentEmail,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"queue": out})
}

// ForceReturn handles POST /v1/admin/library/allocations/:id/return for
// desk returns recorded by a librarian on any student's behalf.
func (h *AdminLibraryHandler) ForceReturn(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allocation id"})
	}
	res, err := h.Svc.Return(c.Request().Context(), id, 0)
	if err != nil {
		return libraryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"next_student_notified": res.NextStudentNotified})
}
