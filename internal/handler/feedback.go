package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/model"
	"github.com/ssaraswat/campus-services/internal/repository"
)

// FeedbackHandler serves feedback submission and the admin review views.
type FeedbackHandler struct {
	Repo *repository.FeedbackRepo
}

func NewFeedbackHandler(repo *repository.FeedbackRepo) *FeedbackHandler {
	if repo == nil {
		panic("nil repository passed to NewFeedbackHandler")
	}
	return &FeedbackHandler{Repo: repo}
}

func validFeedbackCategory(cat string) bool {
	switch cat {
	case model.FeedbackCategoryFaculty, model.FeedbackCategoryResources,
		model.FeedbackCategoryCanteen, model.FeedbackCategoryEvents,
		model.FeedbackCategoryGeneral:
		return true
	}
	return false
}

type submitFeedbackReq struct {
	Category  string `json:"category"`
	Subject   string `json:"subject"`
	Rating    *uint8 `json:"rating"`
	Comment   string `json:"comment"`
	Anonymous bool   `json:"anonymous"`
}

// Submit handles POST /v1/feedback.  When anonymous is set, the caller's
// identity is dropped before anything is written; the stored row carries
// no student reference.
func (h *FeedbackHandler) Submit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitFeedbackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Category = strings.TrimSpace(strings.ToLower(req.Category))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Comment = strings.TrimSpace(req.Comment)
	if !validFeedbackCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}
	if req.Subject == "" || req.Comment == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subject and comment required"})
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1..5"})
	}
	f := &model.Feedback{
		Category:    req.Category,
		Subject:     req.Subject,
		Rating:      req.Rating,
		Comment:     req.Comment,
		IsAnonymous: req.Anonymous,
	}
	if !req.Anonymous {
		f.StudentID = &userID
	}
	if err := h.Repo.Create(c.Request().Context(), f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit feedback failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": f.ID})
}

// List handles GET /v1/admin/feedback with optional category and subject
// filters.
func (h *FeedbackHandler) List(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	if category != "" && !validFeedbackCategory(category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}
	limit, offset := pageParams(c, 50, 200)
	items, err := h.Repo.List(c.Request().Context(), category,
		strings.TrimSpace(c.QueryParam("subject")), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": items})
}

// Averages handles GET /v1/admin/feedback/averages?category=…, the mean
// rating per subject within one category.
func (h *FeedbackHandler) Averages(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	if !validFeedbackCategory(category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}
	avgs, err := h.Repo.Averages(c.Request().Context(), category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"averages": avgs})
}
