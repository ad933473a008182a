package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/zingg/internal/api/middleware"
	"github.com/d60-Lab/zingg/pkg/response"
)

type commentRequest struct {
	BlogID int64  `json:"blogId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body commentRequest true "评论"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /blog/comment [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing_fields")
		return
	}
	comment, err := h.commentService.Add(c.Request.Context(), middleware.CurrentActorID(c), req.BlogID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// ListComments 评论列表，最新在前
// @Summary 评论列表
// @Tags 评论
// @Produce json
// @Param blogId query int true "博文ID"
// @Success 200 {object} response.Response{data=[]model.CommentView}
// @Failure 400 {object} response.Response
// @Router /blog/comment [get]
func (h *Handler) ListComments(c *gin.Context) {
	blogID, err := strconv.ParseInt(c.Query("blogId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "blog_id_required")
		return
	}
	list, err := h.commentService.List(c.Request.Context(), blogID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
