package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-catalog/internal/dto"
	"course-catalog/internal/service"
	"course-catalog/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 账号密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	token, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, token)
}

// DemoLogin 演示免密登录
// GET /api/v1/auth/demo-login?as=teacher|student
func (h *AuthHandler) DemoLogin(c *gin.Context) {
	var req dto.DemoLoginRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	token, err := h.authSvc.DemoLogin(c.Request.Context(), req.As)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, token)
}

// Logout 登出：Token 加入黑名单并删除会话
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OKWithMessage(c, "已登出", nil)
}

// Me 当前登录者
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, me)
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OKWithMessage(c, "密碼已更新，請妥善保存新密碼。", nil)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, err.Error())
	case errors.Is(err, service.ErrUserDisabled):
		response.Forbidden(c, 11002, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11003, err.Error())
	case errors.Is(err, service.ErrDemoDisabled):
		response.Forbidden(c, 11004, err.Error())
	case errors.Is(err, service.ErrDemoAccountMissing):
		response.NotFound(c, 11005, err.Error())
	case errors.Is(err, service.ErrPasswordEmpty), errors.Is(err, service.ErrPasswordMismatch):
		response.BadRequest(c, 11006, err.Error())
	default:
		response.InternalError(c)
	}
}
