package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/model"
	"github.com/ssaraswat/campus-services/internal/repository"
)

// CollaborationHandler serves the student collaboration board.
type CollaborationHandler struct {
	Repo *repository.CollaborationRepo
}

func NewCollaborationHandler(repo *repository.CollaborationRepo) *CollaborationHandler {
	if repo == nil {
		panic("nil repository passed to NewCollaborationHandler")
	}
	return &CollaborationHandler{Repo: repo}
}

func validPostType(t string) bool {
	switch t {
	case model.PostTypeTask, model.PostTypeResearch, model.PostTypeHackathon, model.PostTypeVolunteering:
		return true
	}
	return false
}

func validPostStatus(s string) bool {
	switch s {
	case model.PostStatusOpen, model.PostStatusInProgress, model.PostStatusClosed:
		return true
	}
	return false
}

type createPostReq struct {
	PostType    string   `json:"post_type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Create handles POST /v1/collaboration/posts.
func (h *CollaborationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.PostType = strings.TrimSpace(strings.ToLower(req.PostType))
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if !validPostType(req.PostType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post_type"})
	}
	if req.Title == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description required"})
	}
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			tags = append(tags, t)
		}
	}
	p := &model.CollaborationPost{
		CreatorID:   userID,
		PostType:    req.PostType,
		Title:       req.Title,
		Description: req.Description,
		Tags:        strings.Join(tags, ","),
		Status:      model.PostStatusOpen,
	}
	if err := h.Repo.Create(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/collaboration/posts with type, status and tag
// filters.
func (h *CollaborationHandler) List(c echo.Context) error {
	postType := strings.TrimSpace(c.QueryParam("type"))
	if postType != "" && !validPostType(postType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type filter"})
	}
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !validPostStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	limit, offset := pageParams(c, 50, 200)
	posts, err := h.Repo.List(c.Request().Context(), postType, status,
		strings.TrimSpace(c.QueryParam("tag")), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

type updatePostStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/collaboration/posts/:id/status.  Only
// the post's creator may move it between states.
func (h *CollaborationHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var req updatePostStatusReq
	if err := c.Bind(&req); err != nil || !validPostStatus(strings.TrimSpace(req.Status)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	err = h.Repo.UpdateStatus(c.Request().Context(), id, userID, strings.TrimSpace(req.Status))
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your post"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update post failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": strings.TrimSpace(req.Status)})
}

// Delete handles DELETE /v1/collaboration/posts/:id.  Creator only.
func (h *CollaborationHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id, userID); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your post"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete post failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
