package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-catalog/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// maxBytes: 允许的最大请求体字节数（Excel 上传走同一限制）
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			if IsBodyTooLarge(e.Err) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "上傳內容過大")
				return
			}
		}
	}
}

// IsBodyTooLarge 读取请求体时是否超出限制
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
