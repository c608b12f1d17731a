package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "visa-consult-api/pkg/errors"
	"visa-consult-api/validation"
)

// respondSuccess writes the shared success envelope.
func respondSuccess(c *gin.Context, status int, message string, data gin.H) {
	c.JSON(status, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// respondValidation writes the full list of field failures. Validation
// errors are always fully enumerated, never truncated to the first one.
func respondValidation(c *gin.Context, errs []validation.FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "fail",
		"message": "Validation failed",
		"code":    apperrors.ErrCodeValidation,
		"errors":  errs,
	})
}

// respondAppError writes the error envelope for a typed application error.
func respondAppError(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.HTTPStatus(), gin.H{
		"status":  "error",
		"message": err.Message,
		"code":    err.Code,
	})
}

// respondPersistence logs a store failure with full context and reports it
// as a fatal error for this request. Internal detail never reaches the
// caller.
func respondPersistence(c *gin.Context, op string, err error) {
	log.Printf("persistence: %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "A storage error occurred, please try again later",
		"code":    apperrors.ErrCodePersistence,
	})
}

// pageParams carries normalized pagination and sorting for list endpoints.
type pageParams struct {
	Page      int
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// parsePageParams normalizes page/limit and resolves the sort column
// against the endpoint's allow-list. Unrecognized sort columns fall back
// to creation time descending instead of failing; the resolved column name
// never comes from user input.
func parsePageParams(c *gin.Context, allowedSort map[string]bool) pageParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	sortBy := c.DefaultQuery("sort_by", "created_at")
	sortOrder := c.DefaultQuery("sort_order", "desc")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if !allowedSort[sortBy] {
		sortBy = "created_at"
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return pageParams{
		Page:      page,
		Limit:     limit,
		Offset:    (page - 1) * limit,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}

// OrderClause composes the ORDER BY fragment from allow-listed values only.
func (p pageParams) OrderClause() string {
	return p.SortBy + " " + p.SortOrder
}

// paginationEnvelope builds the pagination block shared by list responses.
func paginationEnvelope(p pageParams, totalCount int64) gin.H {
	totalPages := (totalCount + int64(p.Limit) - 1) / int64(p.Limit)
	return gin.H{
		"current_page": p.Page,
		"per_page":     p.Limit,
		"total_count":  totalCount,
		"total_pages":  totalPages,
		"has_next":     int64(p.Page) < totalPages,
		"has_prev":     p.Page > 1,
	}
}
