package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/publishing"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"
)

type PostController struct {
	posts   PostUseCase
	queries QueryUseCase
	logger  logger.Logger
}

func NewPostController(posts PostUseCase, queries QueryUseCase, log logger.Logger) *PostController {
	return &PostController{posts: posts, queries: queries, logger: log}
}

func (ctl *PostController) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body")
		return
	}

	p, targets, err := ctl.posts.CreatePost(c.Request.Context(), publishing.CreateRequest{
		UserID:       c.GetString(userKey),
		Content:      req.Content,
		AccountIDs:   req.AccountIDs,
		ScheduledFor: req.ScheduledFor,
		Draft:        req.Draft,
	})
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPostResponse(*p, domain.Aggregate(*p, targets), targets))
}

func (ctl *PostController) Cancel(c *gin.Context) {
	if err := ctl.posts.Cancel(c.Request.Context(), c.GetString(userKey), c.Param("id")); err != nil {
		ctl.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *PostController) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ScheduledFor == nil {
		respondError(c, http.StatusBadRequest, apperrors.CodeValidation, "scheduled_for is required")
		return
	}

	userID := c.GetString(userKey)
	if _, err := ctl.posts.Reschedule(c.Request.Context(), userID, c.Param("id"), *req.ScheduledFor); err != nil {
		ctl.fail(c, err)
		return
	}
	view, err := ctl.queries.Detail(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(view.Post, view.Status, view.Targets))
}

func (ctl *PostController) History(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		return
	}
	views, err := ctl.queries.History(c.Request.Context(), c.GetString(userKey), c.Query("status"), limit, offset)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(views))
}

func (ctl *PostController) Upcoming(c *gin.Context) {
	limit, _, ok := paging(c)
	if !ok {
		return
	}
	views, err := ctl.queries.Upcoming(c.Request.Context(), c.GetString(userKey), limit)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(views))
}

func (ctl *PostController) Detail(c *gin.Context) {
	view, err := ctl.queries.Detail(c.Request.Context(), c.GetString(userKey), c.Param("id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(view.Post, view.Status, view.Targets))
}

// fail maps the error taxonomy onto HTTP statuses.
func (ctl *PostController) fail(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		respondError(c, http.StatusBadRequest, apperrors.CodeValidation, apperrors.GetMessage(err))
	case apperrors.IsNotFound(err):
		respondError(c, http.StatusNotFound, apperrors.CodeNotFound, apperrors.GetMessage(err))
	case apperrors.IsInvalidState(err):
		respondError(c, http.StatusConflict, apperrors.CodeInvalidState, apperrors.GetMessage(err))
	default:
		ctl.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

func paging(c *gin.Context) (limit, offset int, ok bool) {
	var err error
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			respondError(c, http.StatusBadRequest, apperrors.CodeValidation, "limit must be a number")
			return 0, 0, false
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			respondError(c, http.StatusBadRequest, apperrors.CodeValidation, "offset must be a number")
			return 0, 0, false
		}
	}
	return limit, offset, true
}
