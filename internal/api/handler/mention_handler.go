package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/zingg/internal/api/middleware"
	"github.com/d60-Lab/zingg/pkg/response"
)

const (
	defaultMentionLimit = 20
	maxMentionLimit     = 50
)

// SearchMentions @提及候选
// @Summary 提及搜索
// @Tags 提及
// @Produce json
// @Security BearerAuth
// @Param q query string false "匹配用户名或显示名"
// @Param limit query int false "数量" default(20)
// @Success 200 {object} response.Response{data=[]model.MentionCandidate}
// @Failure 401 {object} response.Response
// @Router /mentions/search [get]
func (h *Handler) SearchMentions(c *gin.Context) {
	limit := defaultMentionLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(c, "invalid_limit")
			return
		}
		limit = n
	}
	if limit > maxMentionLimit {
		limit = maxMentionLimit
	}
	res, err := h.mentionService.Search(c.Request.Context(), middleware.CurrentActorID(c), c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
