package handler

import (
	"net/http"
	"strconv"

	"devmatch/backend/internal/apperr"
	"devmatch/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a classified error to a response. Internal failures are
// reported with a generic code; they were logged where they happened.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := apperr.CodeOf(err)
	if kind == apperr.KindInternal {
		code = "internal_error"
	}
	c.JSON(statusForKind(kind), gin.H{
		"success": false,
		"error":   code,
		"message": h.message(c, "error_"+code),
	})
}

func (h *Handler) message(c *gin.Context, key string) string {
	lang := h.Localizer.Language(c.GetHeader("Accept-Language"))
	return h.Localizer.GetString(lang, key)
}

func parsePagination(c *gin.Context) (models.Pagination, error) {
	page, limit := 1, 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return models.Pagination{}, apperr.Validation("invalid_pagination", err)
		}
		page = parsed
	}
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return models.Pagination{}, apperr.Validation("invalid_pagination", err)
		}
		limit = parsed
	}

	pagination, err := models.NewPagination(page, limit)
	if err != nil {
		return models.Pagination{}, apperr.Validation("invalid_pagination", err)
	}
	return pagination, nil
}
