package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit giới hạn kích thước request body, đọc quá limit sẽ trả lỗi khi bind
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
