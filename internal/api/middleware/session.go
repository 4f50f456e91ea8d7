package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"course-catalog/internal/session"
	"course-catalog/pkg/response"
)

// CtxSession gin.Context 中的会话键
const CtxSession = "session"

// Session 会话中间件（须在 JWTAuth 之后）
// 按 Token 中的 sid 载入会话，处理完成后仅在有写入时保存
func Session(store session.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetString(CtxSessionID)
		sess, err := store.Load(c.Request.Context(), sid)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				response.Unauthorized(c, 10006, "登入已逾時，請重新登入")
			} else {
				logger.Error("载入会话失败", zap.String("session_id", sid), zap.Error(err))
				response.InternalError(c)
			}
			c.Abort()
			return
		}
		if sess.UserID != c.GetString(CtxUserID) {
			response.Unauthorized(c, 10006, "登入已逾時，請重新登入")
			c.Abort()
			return
		}

		c.Set(CtxSession, sess)
		c.Next()

		if !sess.Modified() {
			return
		}
		if err := store.Save(c.Request.Context(), sess); err != nil {
			logger.Error("保存会话失败", zap.String("session_id", sid), zap.Error(err))
		}
	}
}

// CurrentSession 取得当前请求的会话，未经 Session 中间件时返回 nil
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(CtxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
