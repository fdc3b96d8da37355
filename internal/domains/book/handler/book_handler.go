package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/internal/shared/response"
	"bookshelf-backend/internal/shared/utils"
	"bookshelf-backend/pkg/logger"
)

// Handler - HTTP Handler cho /api/books (mọi route đều sau RequireSession)
type Handler struct {
	service book.Service
	log     zerolog.Logger
}

// NewHandler - Constructor with DI
func NewHandler(service book.Service) *Handler {
	return &Handler{
		service: service,
		log:     logger.Component("book_handler"),
	}
}

// RegisterRoutes gắn các route vào group đã có session middleware
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	books := rg.Group("/books")
	books.GET("", h.ListBooks)
	books.POST("", h.CreateBook)
	books.PATCH("/:id", h.PatchBook)
	books.DELETE("/:id", h.DeleteBook)
}

// ListBooks - GET /api/books
func (h *Handler) ListBooks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	books, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, books)
}

// CreateBook - POST /api/books
func (h *Handler) CreateBook(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	// 1. Decode body thành object
	body, err := readObject(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// 2. Coerce + validate
	in, err := book.ParseCreate(body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// 3. Insert
	created, err := h.service.Create(c.Request.Context(), userID, *in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, created)
}

// PatchBook - PATCH /api/books/:id
func (h *Handler) PatchBook(c *gin.Context) {
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

	patch, err := book.ParsePatch(body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	updated, err := h.service.Patch(c.Request.Context(), userID, c.Param("id"), *patch)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated)
}

// DeleteBook - DELETE /api/books/:id
func (h *Handler) DeleteBook(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c)
}

// readObject đọc raw body (đã qua BodyLimit) và decode thành JSON object
func readObject(c *gin.Context) (map[string]interface{}, error) {
	data, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	return utils.DecodeObject(data)
}

// handleError map domain error → HTTP status + reason code
func (h *Handler) handleError(c *gin.Context, err error) {
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
	case errors.Is(err, book.ErrBookNotFound):
		response.NotFound(c)
	default:
		h.log.Error().Err(err).
			Str("request_id", c.GetString(middleware.ContextKeyRequestID)).
			Str("path", c.FullPath()).
			Msg("book request failed")
		response.InternalServerError(c)
	}
}
