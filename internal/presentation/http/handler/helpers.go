package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/infrastructure/logger"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
	"github.com/sangkips/backoffice-api/internal/presentation/http/middleware"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
	"go.uber.org/zap"
)

// GetOperatorID extracts the operator ID from the Gin context
func GetOperatorID(c *gin.Context) *uuid.UUID {
	value, exists := c.Get(middleware.OperatorIDKey)
	if !exists {
		return nil
	}
	operatorID, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &operatorID
}

// parseID reads the :id path parameter. It writes the error response and
// returns false when the id is not a UUID.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid "+name+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the request body and writes a 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithCode(c, 400, apperror.KindBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pageParams reads page and per_page from the query string
func pageParams(c *gin.Context) *pagination.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	params := &pagination.PaginationParams{Page: page, PerPage: perPage}
	params.Validate()
	return params
}

// queryTime parses an optional RFC 3339 or YYYY-MM-DD query parameter
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid " + key + ", expected RFC 3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// handleServiceError logs unexpected errors and writes the error envelope
func handleServiceError(c *gin.Context, err error) {
	if !apperror.IsAppError(err) {
		logger.FromContext(c.Request.Context(), nil).Error("unhandled service error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalServerError(c, "Internal server error")
		return
	}
	response.Error(c, err)
}
