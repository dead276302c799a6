package handler

import (
	"errors"
	"net/http"
	"strconv"

	"branchdesk/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternal = "Internal server error"

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrEmailTaken, http.StatusBadRequest, "Email is already registered"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{service.ErrForbidden, http.StatusForbidden, "Access denied. Insufficient permissions."},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrBranchNotFound, http.StatusNotFound, "Branch not found"},
	{service.ErrAlumniNotFound, http.StatusNotFound, "Alumni record not found"},
	{service.ErrAlumniExists, http.StatusConflict, "User already has an alumni record"},
	{service.ErrBranchInUse, http.StatusConflict, "Branch still has members or alumni"},
}

// respondError maps service errors onto HTTP status codes. Anything unknown
// is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.message})
			return
		}
	}

	logger.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// pathID parses the :id parameter. It writes the 400 itself on failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}
