package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/handler"
	"github.com/ssaraswat/campus-services/internal/middleware"
)

// RegisterStudentLibrary registers the student-facing library routes
// under /v1/library.  Catalog reads are open to both roles and run
// behind the response cache; loan and queue actions are student only.
func RegisterStudentLibrary(e *echo.Echo, h *handler.StudentLibraryHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	browse := e.Group("/v1/library", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT", "ADMIN"))
	browse.GET("/books", h.Browse, cache)
	browse.GET("/books/:id", h.BookDetail, cache)

	g := e.Group("/v1/library", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT"))
	g.POST("/books/:id/request", h.RequestBook)
	g.POST("/allocations/:id/return", h.ReturnBook)
	g.GET("/my-books", h.MyBooks)
	g.GET("/my-queue", h.MyQueue)
	g.DELETE("/queue/:id", h.CancelQueue)
	g.POST("/queue/:id/accept", h.AcceptNotification)
}

// RegisterAdminLibrary registers catalog management and oversight
// routes under /v1/admin/library.
func RegisterAdminLibrary(e *echo.Echo, h *handler.AdminLibraryHandler, jwtSecret string) {
	g := e.Group("/v1/admin/library", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	g.POST("/books", h.CreateBook)
	g.GET("/books", h.ListBooks)
	g.PATCH("/books/:id", h.UpdateBook)
	g.DELETE("/books/:id", h.DeleteBook)
	g.GET("/books/:id/queue", h.BookQueue)
	g.GET("/allocations", h.ListAllocations)
	g.GET("/allocations/overdue", h.OverdueAllocations)
	g.POST("/allocations/:id/return", h.ForceReturn)
}
