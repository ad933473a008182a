package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/zingg/internal/api/middleware"
	"github.com/d60-Lab/zingg/internal/service"
	"github.com/d60-Lab/zingg/pkg/response"
)

type followRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type likeRequest struct {
	BlogID int64 `json:"blogId" binding:"required"`
}

// toggled 开启返回 201，关闭返回 200
func toggled(c *gin.Context, key string, on bool) {
	if on {
		response.Created(c, gin.H{key: true})
		return
	}
	response.Success(c, gin.H{key: false})
}

// ToggleFollow 关注 / 取消关注
// @Summary 切换关注状态
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "被关注者"
// @Success 200 {object} response.Response "已取消关注"
// @Success 201 {object} response.Response "已关注"
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /relationship/follow [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id_required")
		return
	}
	on, err := h.relService.ToggleFollow(c.Request.Context(), middleware.CurrentActorID(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	toggled(c, "followed", on)
}

// FollowStatus 查询是否已关注
// @Summary 关注状态
// @Tags 关系链
// @Produce json
// @Param userId query string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.Response
// @Router /relationship/follow/status [get]
func (h *Handler) FollowStatus(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		response.BadRequest(c, "user_id_required")
		return
	}
	followed, err := h.relService.IsFollowing(c.Request.Context(), middleware.CurrentActorID(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"followed": followed})
}

// ListFollows 查询粉丝 / 关注列表
// @Summary 关注列表
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param userId query string true "用户ID"
// @Param type query string true "followers | following"
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FollowPage}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /relationship/follow [get]
func (h *Handler) ListFollows(c *gin.Context) {
	userID := c.Query("userId")
	kind := c.Query("type")
	if userID == "" || kind == "" {
		response.BadRequest(c, "missing_fields")
		return
	}
	dir, err := service.ParseFollowDirection(kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	res, err := h.relService.ListFollows(c.Request.Context(), middleware.CurrentActorID(c), userID, dir, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ToggleLike 点赞 / 取消点赞
// @Summary 切换点赞状态
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body likeRequest true "博文"
// @Success 200 {object} response.Response "已取消点赞"
// @Success 201 {object} response.Response "已点赞"
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /relationship/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "blog_id_required")
		return
	}
	on, err := h.relService.ToggleLike(c.Request.Context(), middleware.CurrentActorID(c), req.BlogID)
	if err != nil {
		response.Error(c, err)
		return
	}
	toggled(c, "liked", on)
}

// LikeStatus 查询是否已点赞，未登录恒为 false
// @Summary 点赞状态
// @Tags 关系链
// @Produce json
// @Param blogId query int true "博文ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.Response
// @Router /relationship/like [get]
func (h *Handler) LikeStatus(c *gin.Context) {
	blogID, err := strconv.ParseInt(c.Query("blogId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "blog_id_required")
		return
	}
	liked, err := h.relService.IsLiked(c.Request.Context(), middleware.CurrentActorID(c), blogID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}
