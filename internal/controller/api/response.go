package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Pagination метаданные страницы в ответе списка
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Paging page/per_page из query, нормализованные
type Paging struct {
	Page    int
	PerPage int
	Offset  int
}

// resolvePaging читает ?page= и ?per_page= (алиас ?limit=)
func resolvePaging(c *fiber.Ctx) Paging {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page", "1")))
	if page < 1 {
		page = 1
	}

	perPageStr := strings.TrimSpace(c.Query("per_page"))
	if perPageStr == "" {
		perPageStr = strings.TrimSpace(c.Query("limit"))
	}
	perPage, _ := strconv.Atoi(perPageStr)
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Paging{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

func buildPagination(total int64, p Paging) Pagination {
	totalPages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if totalPages == 0 {
		totalPages = 1
	}
	return Pagination{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

func success(c *fiber.Ctx, message string, data interface{}) error {
	return successWithCode(c, fiber.StatusOK, message, data)
}

func successWithCode(c *fiber.Ctx, code int, message string, data interface{}) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func successList(c *fiber.Ctx, message string, data interface{}, pagination Pagination) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"code":       fiber.StatusOK,
		"status":     "success",
		"message":    message,
		"data":       data,
		"pagination": pagination,
	})
}

func errorResponse(c *fiber.Ctx, code int, errorCode, message string, details interface{}) error {
	body := fiber.Map{
		"code":       code,
		"status":     "error",
		"message":    message,
		"error_code": errorCode,
	}
	if details != nil {
		body["details"] = details
	}
	return c.Status(code).JSON(body)
}
