package handler

import (
	"net/http"

	"branchdesk/internal/middleware"
	"branchdesk/internal/models"
	"branchdesk/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlumniHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type alumniHandler struct {
	alumni service.AlumniService
	logger *zap.Logger
}

func NewAlumniHandler(alumni service.AlumniService, logger *zap.Logger) AlumniHandler {
	return &alumniHandler{alumni: alumni, logger: logger}
}

func (h *alumniHandler) List(c *gin.Context) {
	records, err := h.alumni.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *alumniHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := h.alumni.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *alumniHandler) Create(c *gin.Context) {
	var req models.CreateAlumniInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	record, err := h.alumni.Create(c.Request.Context(), middleware.ClaimsFromContext(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *alumniHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdateAlumniInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	record, err := h.alumni.Update(c.Request.Context(), middleware.ClaimsFromContext(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *alumniHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.alumni.Delete(c.Request.Context(), middleware.ClaimsFromContext(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alumni record deleted"})
}
