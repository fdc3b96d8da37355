package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookshelf-backend/internal/shared/response"
	openlibrary "bookshelf-backend/pkg/catalog"
)

// Handler - GET /api/catalog/search
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/search", h.Search)
}

// Search - Query params: title, author, limit
// Luôn trả 200 với array (rỗng khi upstream lỗi)
func (h *Handler) Search(c *gin.Context) {
	q := openlibrary.Query{
		Title:  c.Query("title"),
		Author: c.Query("author"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= openlibrary.MaxLimit {
			q.Limit = l
		}
	}

	response.JSON(c, http.StatusOK, h.service.Search(c.Request.Context(), q))
}
