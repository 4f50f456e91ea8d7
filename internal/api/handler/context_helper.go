package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"course-catalog/internal/api/middleware"
	"course-catalog/internal/service"
	"course-catalog/internal/session"
	"course-catalog/pkg/jwt"
	"course-catalog/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "請先登入")
		return "", false
	}
	return s, true
}

// MustGetCaller 当前登录者（user_id + role）
func MustGetCaller(c *gin.Context) (*service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, false
	}
	return &service.Caller{UserID: userID, Role: c.GetString(middleware.CtxRole)}, true
}

// MustGetSession 当前会话；未经 Session 中间件视为登入逾时
func MustGetSession(c *gin.Context) (*session.Session, bool) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		response.Unauthorized(c, 10006, "登入已逾時，請重新登入")
		return nil, false
	}
	return sess, true
}

// MustGetClaims JWTAuth 注入的 Token 声明
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "請先登入")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "請先登入")
		return nil, false
	}
	return claims, true
}

// paramID 解析路径中的正整数 ID
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "ID 格式錯誤")
		return 0, false
	}
	return id, true
}

// bindFailed 统一处理参数绑定失败
func bindFailed(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "上傳內容過大")
		return
	}
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "參數校驗失敗", strings.Join(details, "；"))
		return
	}
	response.BadRequest(c, 10001, "參數格式錯誤")
}
