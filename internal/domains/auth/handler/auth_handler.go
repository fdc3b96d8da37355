package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookshelf-backend/internal/domains/auth"
	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/internal/shared/response"
	"bookshelf-backend/pkg/jwt"
	"bookshelf-backend/pkg/logger"
	"bookshelf-backend/pkg/session"
)

const (
	// StateCookieName giữ nonce của state token giữa /auth/google và callback
	StateCookieName = "bookshelf.oauth_state"
	stateCookiePath = "/auth"
	stateCookieTTL  = 10 * time.Minute
)

// AuthHandler xử lý Google login, callback và logout
type AuthHandler struct {
	provider  auth.Provider
	users     user.Service
	sessions  *session.Store
	states    *jwt.Manager
	cookie    middleware.CookieConfig
	clientURL string
	log       zerolog.Logger
}

// NewAuthHandler - Constructor injection
func NewAuthHandler(
	provider auth.Provider,
	users user.Service,
	sessions *session.Store,
	states *jwt.Manager,
	cookie middleware.CookieConfig,
	clientURL string,
) *AuthHandler {
	return &AuthHandler{
		provider:  provider,
		users:     users,
		sessions:  sessions,
		states:    states,
		cookie:    cookie,
		clientURL: strings.TrimRight(clientURL, "/"),
		log:       logger.Component("auth_handler"),
	}
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/auth")
	g.GET("/google", h.GoogleLogin)
	g.GET("/google/callback", h.GoogleCallback)
	g.POST("/logout", h.Logout)
}

// ========================================
// GOOGLE OAUTH
// ========================================

// GoogleLogin - GET /auth/google
// 302 tới trang consent, state là JWT ngắn hạn chứa nonce
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, nonce, err := h.states.GenerateStateToken()
	if err != nil {
		h.log.Error().Err(err).Msg("generate oauth state failed")
		response.InternalServerError(c)
		return
	}

	middleware.SetSessionCookie(c, h.stateCookie(stateCookieTTL), nonce)
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// GoogleCallback - GET /auth/google/callback
//
// Flow:
// 1. Verify state (chữ ký + nonce trong cookie)
// 2. Đổi code lấy identity
// 3. Upsert user theo googleId
// 4. Tạo session mới, set cookie
// 5. 302 CLIENT_URL/app; mọi lỗi → 302 CLIENT_URL/login
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	nonce, _ := c.Cookie(StateCookieName)
	middleware.ClearSessionCookie(c, h.stateCookie(0))

	// STEP 1: State
	if _, err := h.states.ValidateStateToken(c.Query("state"), nonce); err != nil {
		h.failLogin(c, errors.Join(auth.ErrInvalidState, err))
		return
	}

	code := c.Query("code")
	if c.Query("error") != "" || code == "" {
		h.failLogin(c, auth.ErrConsentDenied)
		return
	}

	// STEP 2: Identity
	identity, err := h.provider.Exchange(c.Request.Context(), code)
	if err != nil {
		h.failLogin(c, err)
		return
	}

	// STEP 3: Upsert
	u, err := h.users.Login(c.Request.Context(), *identity)
	if err != nil {
		h.failLogin(c, err)
		return
	}

	// STEP 4: Session mới, session cũ (nếu có) bị hủy
	if old, err := c.Cookie(h.cookie.Name); err == nil && old != "" {
		_ = h.sessions.Destroy(c.Request.Context(), old)
	}

	token, err := h.sessions.Create(c.Request.Context(), u.ID)
	if err != nil {
		h.failLogin(c, err)
		return
	}
	middleware.SetSessionCookie(c, h.cookie, token)

	// STEP 5: Redirect
	c.Redirect(http.StatusFound, h.clientURL+"/app")
}

// Logout - POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil && token != "" {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			h.log.Error().Err(err).Msg("destroy session failed")
			response.InternalServerError(c)
			return
		}
	}

	middleware.ClearSessionCookie(c, h.cookie)
	response.OK(c)
}

// ========================================
// HELPERS
// ========================================

func (h *AuthHandler) failLogin(c *gin.Context, err error) {
	h.log.Warn().Err(err).
		Str("request_id", c.GetString(middleware.ContextKeyRequestID)).
		Msg("google login failed")
	c.Redirect(http.StatusFound, h.clientURL+"/login")
}

func (h *AuthHandler) stateCookie(ttl time.Duration) middleware.CookieConfig {
	return middleware.CookieConfig{
		Name:   StateCookieName,
		Path:   stateCookiePath,
		Secure: h.cookie.Secure,
		MaxAge: ttl,
	}
}
