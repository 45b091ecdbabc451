package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/model"
	"github.com/ssaraswat/campus-services/internal/repository"
)

// TimetableHandler serves the weekly lecture schedule.  Admins manage
// slots; students read the schedule of their own group.
type TimetableHandler struct {
	Repo  *repository.TimetableRepo
	Users *repository.UserRepo
}

func NewTimetableHandler(repo *repository.TimetableRepo, users *repository.UserRepo) *TimetableHandler {
	if repo == nil || users == nil {
		panic("nil dependency passed to NewTimetableHandler")
	}
	return &TimetableHandler{Repo: repo, Users: users}
}

type createSlotReq struct {
	CourseName string `json:"course_name"`
	CourseCode string `json:"course_code"`
	FacultyID  uint64 `json:"faculty_id"`
	Room       string `json:"room"`
	DayOfWeek  uint8  `json:"day_of_week"` // 1=Mon..7=Sun
	StartMin   uint16 `json:"start_min"`   // minutes since midnight
	EndMin     uint16 `json:"end_min"`
	Branch     string `json:"branch"`
	Year       uint8  `json:"year"`
}

// CreateSlot handles POST /v1/admin/timetable/slots.  Overlaps with an
// existing slot in the same room or for the same group are rejected.
func (h *TimetableHandler) CreateSlot(c echo.Context) error {
	var req createSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.CourseName = strings.TrimSpace(req.CourseName)
	req.CourseCode = strings.TrimSpace(req.CourseCode)
	req.Room = strings.TrimSpace(req.Room)
	req.Branch = strings.TrimSpace(strings.ToUpper(req.Branch))
	switch {
	case req.CourseName == "" || req.CourseCode == "" || req.Room == "" || req.Branch == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course_name/course_code/room/branch required"})
	case req.DayOfWeek < 1 || req.DayOfWeek > 7:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day_of_week must be 1..7"})
	case req.StartMin >= req.EndMin || req.EndMin > 24*60:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time range"})
	case req.Year < 1 || req.Year > 4:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year must be 1..4"})
	case req.FacultyID == 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "faculty_id required"})
	}
	s := &model.TimetableSlot{
		CourseName: req.CourseName,
		CourseCode: req.CourseCode,
		FacultyID:  req.FacultyID,
		Room:       req.Room,
		DayOfWeek:  req.DayOfWeek,
		StartMin:   req.StartMin,
		EndMin:     req.EndMin,
		Branch:     req.Branch,
		Year:       req.Year,
	}
	ctx := c.Request().Context()
	conflict, err := h.Repo.ConflictExists(ctx, s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if conflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot overlaps an existing one in the same room or for the same group"})
	}
	if err := h.Repo.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slot failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// DeleteSlot handles DELETE /v1/admin/timetable/slots/:id.
func (h *TimetableHandler) DeleteSlot(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete slot failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MyWeek handles GET /v1/timetable/my-week: the weekly schedule of the
// calling student's branch and year.
func (h *TimetableHandler) MyWeek(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.Branch == nil || u.Year == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no branch/year on your profile"})
	}
	slots, err := h.Repo.WeekForGroup(ctx, *u.Branch, *u.Year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// GroupWeek handles GET /v1/timetable/week?branch=…&year=… for any
// group's schedule.
func (h *TimetableHandler) GroupWeek(c echo.Context) error {
	branch := strings.TrimSpace(strings.ToUpper(c.QueryParam("branch")))
	year, err := strconv.ParseUint(c.QueryParam("year"), 10, 8)
	if branch == "" || err != nil || year < 1 || year > 4 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch and year=1..4 required"})
	}
	slots, err := h.Repo.WeekForGroup(c.Request().Context(), branch, uint8(year))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// FacultyDay handles GET /v1/timetable/faculty/:id?day=…, one faculty
// member's slots on a weekday.
func (h *TimetableHandler) FacultyDay(c echo.Context) error {
	facultyID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid faculty id"})
	}
	day, err := strconv.ParseUint(c.QueryParam("day"), 10, 8)
	if err != nil || day < 1 || day > 7 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day=1..7 required"})
	}
	slots, err := h.Repo.DayForFaculty(c.Request().Context(), facultyID, uint8(day))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}
