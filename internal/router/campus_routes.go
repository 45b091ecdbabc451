package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/handler"
	"github.com/ssaraswat/campus-services/internal/middleware"
)

// RegisterCanteen registers the canteen menu and order routes.  The
// menu is read-heavy and cached; order state transitions belong to the
// kitchen staff under /v1/admin/canteen.
func RegisterCanteen(e *echo.Echo, h *handler.CanteenHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	s := e.Group("/v1/canteen", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT", "ADMIN"))
	s.GET("/menu", h.Menu, cache)
	s.POST("/orders", h.PlaceOrder)
	s.GET("/orders", h.MyOrders)
	s.POST("/orders/:id/cancel", h.CancelOrder)

	a := e.Group("/v1/admin/canteen", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	a.POST("/menu", h.CreateMenuItem)
	a.PUT("/menu/:id", h.UpdateMenuItem)
	a.GET("/orders", h.Board)
	a.POST("/orders/:id/prepare", h.StartPreparing)
	a.POST("/orders/:id/ready", h.MarkReady)
	a.POST("/orders/:id/deliver", h.MarkDelivered)
}

// RegisterFeedback registers feedback submission for students and the
// review endpoints for admins.
func RegisterFeedback(e *echo.Echo, h *handler.FeedbackHandler, jwtSecret string) {
	s := e.Group("/v1/feedback", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT"))
	s.POST("", h.Submit)

	a := e.Group("/v1/admin/feedback", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	a.GET("", h.List)
	a.GET("/averages", h.Averages)
}

// RegisterCollaboration registers the project and study-group board.
// Every authenticated user can browse and post.
func RegisterCollaboration(e *echo.Echo, h *handler.CollaborationHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/collaboration", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT", "ADMIN"))
	g.POST("/posts", h.Create)
	g.GET("/posts", h.List, cache)
	g.PATCH("/posts/:id/status", h.UpdateStatus)
	g.DELETE("/posts/:id", h.Delete)
}

// RegisterTimetable registers schedule reads for everyone and slot
// management for admins.
func RegisterTimetable(e *echo.Echo, h *handler.TimetableHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	s := e.Group("/v1/timetable", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT", "ADMIN"))
	s.GET("/my-week", h.MyWeek, cache)
	s.GET("/week", h.GroupWeek, cache)
	s.GET("/faculty/:id", h.FacultyDay)

	a := e.Group("/v1/admin/timetable", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	a.POST("/slots", h.CreateSlot)
	a.DELETE("/slots/:id", h.DeleteSlot)
}
