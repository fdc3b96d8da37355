package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/internal/shared/response"
	"bookshelf-backend/internal/shared/utils"
	"bookshelf-backend/pkg/logger"
)

// UserHandler xử lý /api/me, stateless - chỉ chứa dependencies
type UserHandler struct {
	service user.Service
	log     zerolog.Logger
}

// NewUserHandler - Constructor injection
func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service: service,
		log:     logger.Component("user_handler"),
	}
}

// RegisterRoutes gắn các route vào group đã có session middleware
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	me := rg.Group("/me")
	me.GET("", h.GetMe)
	me.PATCH("/preferences", h.UpdatePreferences)
	me.PATCH("/genres", h.UpdateGenres)
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetMe - GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	u, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.ToMeResponse(u))
}

// UpdatePreferences - PATCH /api/me/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	// STEP 1: Decode + validate
	body, err := readObject(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	update, err := user.ParsePreferences(body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// STEP 2: Persist
	u, err := h.service.UpdatePreferences(c.Request.Context(), userID, *update)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.ToPreferencesResponse(u))
}

// UpdateGenres - PATCH /api/me/genres
func (h *UserHandler) UpdateGenres(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	body, err := readObject(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	genres, err := user.ParseGenres(body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	u, err := h.service.UpdateGenres(c.Request.Context(), userID, genres)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.ToGenresResponse(u))
}

func readObject(c *gin.Context) (map[string]interface{}, error) {
	data, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	return utils.DecodeObject(data)
}

// ========================================
// ERROR MAPPING
// ========================================

// handleError map domain errors thành HTTP status codes
// User của session không còn tồn tại → 401, giống session hết hạn
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var (
		fieldErr *utils.FieldError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &fieldErr):
		response.BadRequest(c, fieldErr.Code(), fieldErr.Error())
	case errors.Is(err, utils.ErrInvalidBody):
		response.BadRequest(c, response.CodeInvalidBody, utils.ErrInvalidBody.Error())
	case errors.As(err, &tooLarge):
		response.ErrorResponse(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "Request body too large")
	case errors.Is(err, user.ErrUserNotFound):
		response.Unauthorized(c)
	default:
		h.log.Error().Err(err).
			Str("request_id", c.GetString(middleware.ContextKeyRequestID)).
			Str("path", c.FullPath()).
			Msg("user request failed")
		response.InternalServerError(c)
	}
}
