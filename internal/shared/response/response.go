package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes dùng chung, các domain thêm code riêng (invalid_title, invalid_genres ...)
const (
	CodeInvalidBody   = "invalid_body"
	CodeNotFound      = "not_found"
	CodeUnauthorized  = "unauthorized"
	CodeInternalError = "internal_error"
	CodeNotReady      = "not_ready"
	// body vượt quá BODY_LIMIT
	CodePayloadTooLarge = "payload_too_large"
)

// Response là envelope cho lỗi. Success body là record JSON trần
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON trả về record trần, client đọc thẳng body
func JSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// OK trả về {ok:true}, dùng cho health, logout, delete
func OK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Common error responses
func BadRequest(c *gin.Context, code, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func NotFound(c *gin.Context) {
	ErrorResponse(c, http.StatusNotFound, CodeNotFound, "Not found")
}

func InternalServerError(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
