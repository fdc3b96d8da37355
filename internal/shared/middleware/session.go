package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookshelf-backend/internal/shared/response"
	"bookshelf-backend/pkg/session"
)

// ===================================
// CONSTANTS
// ===================================

const (
	// Context keys
	ContextKeyUserID       = "user_id"
	ContextKeySessionToken = "session_token"
)

// SessionReader là phần của session store mà middleware cần
type SessionReader interface {
	Lookup(ctx context.Context, token string) (*session.Data, error)
}

// CookieConfig cấu hình session cookie
type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
	MaxAge time.Duration
}

// ===================================
// SESSION AUTH MIDDLEWARE
// ===================================

// RequireSession resolve cookie session -> user_id
//
// Flow:
// 1. Đọc token từ cookie
// 2. Lookup session trong store
// 3. Không có / hết hạn → 401 unauthorized
// 4. Set user_id + session_token vào context cho handlers
func RequireSession(store SessionReader, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// STEP 1: Lấy token
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		// STEP 2: Lookup
		data, err := store.Lookup(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Error().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("session lookup failed")
			}
			response.Unauthorized(c)
			c.Abort()
			return
		}

		// STEP 3: Set context
		c.Set(ContextKeyUserID, data.UserID)
		c.Set(ContextKeySessionToken, token)

		c.Next()
	}
}

// ===================================
// CONTEXT HELPERS FOR HANDLERS
// ===================================

// GetUserID lấy user id đã được RequireSession set
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// SetSessionCookie đặt cookie httpOnly, SameSite=Lax
func SetSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cookiePath(cfg),
		MaxAge:   int(cfg.MaxAge / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie xóa cookie phía browser
func ClearSessionCookie(c *gin.Context, cfg CookieConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cookiePath(cfg),
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookiePath(cfg CookieConfig) string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}
