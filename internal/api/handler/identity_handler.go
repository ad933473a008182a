package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/zingg/internal/api/middleware"
	"github.com/d60-Lab/zingg/internal/auth"
	"github.com/d60-Lab/zingg/internal/service"
	"github.com/d60-Lab/zingg/pkg/response"
)

type signUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type oauthCallbackRequest struct {
	Assertion string `json:"assertion" binding:"required"`
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// SignUp 用户名密码注册
// @Summary 注册
// @Tags 身份
// @Accept json
// @Produce json
// @Param request body signUpRequest true "注册信息，username 为空时自动分配"
// @Success 201 {object} response.Response{data=sessionResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /identity/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing_fields")
		return
	}
	id, err := h.identityService.SignUp(c.Request.Context(), service.SignUpInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	sess, err := h.issueSession(id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, sess)
}

// SignIn 用户名密码登录
// @Summary 登录
// @Tags 身份
// @Accept json
// @Produce json
// @Param request body signInRequest true "用户名与密码"
// @Success 200 {object} response.Response{data=sessionResponse}
// @Failure 401 {object} response.Response
// @Router /identity/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unauthorized(c, "invalid_credentials")
		return
	}
	id, err := h.identityService.Resolve(c.Request.Context(), service.CredentialEvent{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	sess, err := h.issueSession(id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, sess)
}

// OAuthCallback 第三方登录回调，assertion 由 OAuth 网关签发
// @Summary 第三方登录
// @Tags 身份
// @Accept json
// @Produce json
// @Param request body oauthCallbackRequest true "provider assertion"
// @Success 200 {object} response.Response{data=sessionResponse}
// @Failure 401 {object} response.Response
// @Router /identity/oauth-callback [post]
func (h *Handler) OAuthCallback(c *gin.Context) {
	var req oauthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Unauthorized(c, "invalid_assertion")
		return
	}
	claims, err := h.providers.Verify(req.Assertion)
	if err != nil {
		if errors.Is(err, auth.ErrProviderNotAllowed) {
			response.Unauthorized(c, "provider_not_allowed")
			return
		}
		response.Unauthorized(c, "invalid_assertion")
		return
	}
	id, err := h.identityService.Resolve(c.Request.Context(), service.ProviderEvent{
		ProviderName: claims.Provider,
		Email:        claims.Email,
		DisplayName:  claims.Name,
		ImageURL:     claims.Picture,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	sess, err := h.issueSession(id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, sess)
}

// SignOut 吊销当前令牌
// @Summary 登出
// @Tags 身份
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /identity/signout [post]
func (h *Handler) SignOut(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Unauthorized(c, "unauthenticated")
		return
	}
	if err := h.revoker.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetProfile 查询用户资料
// @Summary 用户资料
// @Tags 身份
// @Produce json
// @Security BearerAuth
// @Param username query string true "用户名"
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /identity/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, "username_required")
		return
	}
	p, err := h.identityService.Profile(c.Request.Context(), middleware.CurrentActorID(c), username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateProfile 修改显示名 / 头像
// @Summary 修改资料
// @Tags 身份
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "只更新传入的字段"
// @Success 200 {object} response.Response{data=model.AuthenticatedIdentity}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /identity/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request")
		return
	}
	id, err := h.identityService.UpdateProfile(c.Request.Context(), middleware.CurrentActorID(c), service.ProfileUpdate{
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, id)
}
