package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/repository"
)

// SearchClasses handles GET /v1/search/classes. Query parameters:
//
//	q          - substring match on the class title
//	instructor - substring match on the instructor name
//	room       - exact room number
//	when       - upcoming (default) | active | any
//	page       - 1-based page number
//	page_size  - results per page, capped at 100
//
// Results are ordered by start time ascending and include the
// derived spots_left field.
func (h *PublicHandler) SearchClasses(c echo.Context) error {
	q := repository.ClassSearchQuery{
		Title:      strings.TrimSpace(c.QueryParam("q")),
		Instructor: strings.TrimSpace(c.QueryParam("instructor")),
		Room:       strings.TrimSpace(c.QueryParam("room")),
		TimeFilter: strings.TrimSpace(c.QueryParam("when")),
		Page:       1,
		PageSize:   20,
	}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.PageSize = n
		}
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}

	rows, total, err := h.Classes.SearchUpcoming(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"classes":   rows,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}
